package model

import (
	"strings"
	"testing"
	"time"
)

func TestNewSessionRecord(t *testing.T) {
	md := NewMetadata("active").WithPath("/src/app").WithExists(true)
	before := time.Now()
	a := NewSessionRecord("app", "active", 10, md)
	b := NewSessionRecord("app", "active", 10, md)

	if a.ID == b.ID {
		t.Error("expected distinct IDs for distinct records")
	}
	if a.DiscoveredAt.Before(before) {
		t.Errorf("DiscoveredAt %v is before construction time %v", a.DiscoveredAt, before)
	}
	if a.Metadata.Path != "/src/app" || !a.Metadata.Exists {
		t.Errorf("metadata not carried: %+v", a.Metadata)
	}
}

func TestSessionRecord_WithHelpersCopy(t *testing.T) {
	orig := NewSessionRecord("notes", "active", 10, NewMetadata("active"))
	ts := time.Unix(888, 0)
	mod := orig.WithCurrent(true).WithActive(true).WithDiscoveredAt(ts)

	if orig.IsCurrent || orig.IsActive {
		t.Error("With helpers must not modify the receiver")
	}
	if !mod.IsCurrent || !mod.IsActive {
		t.Error("With helpers did not set flags")
	}
	if !mod.DiscoveredAt.Equal(ts) {
		t.Errorf("DiscoveredAt: got %v, want %v", mod.DiscoveredAt, ts)
	}
	if got := mod.WithDiscoveredAt(time.Time{}); !got.DiscoveredAt.Equal(ts) {
		t.Error("zero time should be ignored")
	}
}

func TestSessionMetadata_WithPropertyCopies(t *testing.T) {
	base := NewMetadata("worktree").WithProperty("branch", "main")
	derived := base.WithProperty("branch", "feature")

	if base.Property("branch") != "main" {
		t.Errorf("base branch changed to %q", base.Property("branch"))
	}
	if derived.Property("branch") != "feature" {
		t.Errorf("derived branch: got %q", derived.Property("branch"))
	}
	if base.Property("missing") != "" {
		t.Error("missing property should be empty")
	}
}

func scenarioSessions() []MuxSession {
	return []MuxSession{
		{Name: "notes", LastAttached: time.Unix(888, 0), Windows: 1},
		{Name: "main", LastAttached: time.Unix(890, 0), Windows: 3},
		{Name: "scratch-session", LastAttached: time.Unix(887, 0), Windows: 1},
		{Name: "dotfiles", LastAttached: time.Unix(889, 0), Windows: 2, Attached: true},
		{Name: "default", LastAttached: time.Unix(886, 0), Windows: 1},
	}
}

func isScratch(name string) bool { return strings.Contains(name, "scratch") }

func TestNewSessionContext(t *testing.T) {
	input := scenarioSessions()
	sc := NewSessionContext("dotfiles", input, isScratch)

	if sc.Current != "dotfiles" {
		t.Errorf("Current: got %q", sc.Current)
	}
	wantActive := []string{"main", "notes", "default"}
	if strings.Join(sc.Active, ",") != strings.Join(wantActive, ",") {
		t.Errorf("Active: got %v, want %v", sc.Active, wantActive)
	}
	if len(sc.Scratch) != 1 || sc.Scratch[0] != "scratch-session" {
		t.Errorf("Scratch: got %v", sc.Scratch)
	}
	if sc.All[0].Name != "main" || sc.All[len(sc.All)-1].Name != "default" {
		t.Errorf("All not sorted most recent first: %v", sc.All)
	}
	if input[0].Name != "notes" {
		t.Error("input slice was reordered")
	}
	if sc.MostRecent() != "main" {
		t.Errorf("MostRecent: got %q", sc.MostRecent())
	}
	if !sc.IsLive("scratch-session") || sc.IsLive("ghost") {
		t.Error("IsLive mismatch")
	}
	if sc.InActive("dotfiles") {
		t.Error("current session must not be in the active bucket")
	}
}

func TestNewSessionContext_NoCurrent(t *testing.T) {
	sc := NewSessionContext("", scenarioSessions(), isScratch)
	if sc.HasCurrent() {
		t.Error("HasCurrent: got true")
	}
	if len(sc.Active) != 4 {
		t.Errorf("Active: got %v, want 4 entries", sc.Active)
	}
}

func TestSessionContext_Empty(t *testing.T) {
	sc := NewSessionContext("", nil, isScratch)
	if sc.MostRecent() != "" {
		t.Error("MostRecent on empty context should be empty")
	}
	if _, ok := sc.Lookup("x"); ok {
		t.Error("Lookup on empty context should fail")
	}
	var nilCtx *SessionContext
	if nilCtx.HasCurrent() || nilCtx.MostRecent() != "" {
		t.Error("nil context helpers should be safe")
	}
}
