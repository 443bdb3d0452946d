package otel

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		raw  string
		want map[string]string
	}{
		{"", map[string]string{}},
		{"Authorization=Basic abc", map[string]string{"Authorization": "Basic abc"}},
		{"a=1, b = 2 ,=skip,novalue", map[string]string{"a": "1", "b": "2"}},
	}
	for _, tt := range tests {
		got := parseHeaders(tt.raw)
		if len(got) != len(tt.want) {
			t.Errorf("parseHeaders(%q) = %v, want %v", tt.raw, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("parseHeaders(%q)[%q] = %q, want %q", tt.raw, k, got[k], v)
			}
		}
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		endpoint string
		host     string
		base     string
		insecure bool
		wantErr  bool
	}{
		{"http://localhost:4318", "localhost:4318", "", true, false},
		{"https://otel.example.com/otlp/", "otel.example.com", "/otlp", false, false},
		{"localhost:4318", "", "", false, true},
		{"http://[::1", "", "", false, true},
	}
	for _, tt := range tests {
		got, err := parseTarget(tt.endpoint, "a=1")
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTarget(%q) error = %v, wantErr %v", tt.endpoint, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if got.host != tt.host || got.basePath != tt.base || got.insecure != tt.insecure {
			t.Errorf("parseTarget(%q) = %+v, want host=%q base=%q insecure=%v", tt.endpoint, got, tt.host, tt.base, tt.insecure)
		}
		if got.headers["a"] != "1" {
			t.Errorf("parseTarget(%q) headers = %v", tt.endpoint, got.headers)
		}
	}
}

func TestInit_InvalidEndpoint(t *testing.T) {
	if _, err := Init(context.Background(), OTELConfig{Endpoint: "not a url"}); err == nil {
		t.Fatal("expected an error for an endpoint without a host")
	}
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	tel, err := Init(context.Background(), OTELConfig{})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer tel.Shutdown(context.Background())
	if tel.Tracer == nil || tel.Metrics == nil {
		t.Fatal("expected tracer and metrics even without an endpoint")
	}
	tel.Metrics.RecordRound(context.Background(), 3)
	tel.Metrics.RecordDispatch(context.Background(), "switch", "active", "ok")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordRound(ctx, 1)
	m.RecordSourceFailure(ctx, "worktree")
	m.RecordSourceSkipped(ctx, "tmuxinator", "tmuxinator")
	m.RecordDependencyLookup(ctx, true)
	m.RecordDispatch(ctx, "kill", "active", "error")

	var tel *Telemetry
	tel.Shutdown(ctx)
}
