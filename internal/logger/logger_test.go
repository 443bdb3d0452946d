package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestComponentLogger_BeforeInitDiscards(t *testing.T) {
	Close()
	log := ComponentLogger("test")
	if log == nil {
		t.Fatal("expected a logger before Init")
	}
	log.Info("dropped")
}

func TestInitWritesComponent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "switcher.log")
	if err := Init(path, slog.LevelDebug); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer Close()

	if Path() != path {
		t.Errorf("Path() = %q, want %q", Path(), path)
	}
	ComponentLogger("registry").Warn("discover failed", "source", "worktree")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	for _, want := range []string{"component=registry", "source=worktree", "discover failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefaultLogPath_XDG(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")
	want := filepath.Join("/var/state", "session-switcher", "session-switcher.log")
	if got := DefaultLogPath(); got != want {
		t.Errorf("DefaultLogPath() = %q, want %q", got, want)
	}
}
