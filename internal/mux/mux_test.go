package mux_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/timvw/session-switcher/internal/mux"
	"github.com/timvw/session-switcher/internal/mux/muxtest"
)

func isScratch(name string) bool { return strings.Contains(name, "scratch") }

func TestSnapshot(t *testing.T) {
	f := muxtest.New("dotfiles",
		muxtest.Session("main", 890),
		muxtest.Session("dotfiles", 889),
		muxtest.Session("scratch-session", 887),
	)
	sc, err := mux.Snapshot(context.Background(), f, isScratch)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if sc.Current != "dotfiles" {
		t.Errorf("Current: got %q", sc.Current)
	}
	if len(sc.Active) != 1 || sc.Active[0] != "main" {
		t.Errorf("Active: got %v", sc.Active)
	}
	if len(sc.Scratch) != 1 {
		t.Errorf("Scratch: got %v", sc.Scratch)
	}
}

func TestSnapshot_OutsideClientIgnoresCurrent(t *testing.T) {
	f := muxtest.New("", muxtest.Session("main", 1))
	f.Current = "main"
	sc, err := mux.Snapshot(context.Background(), f, isScratch)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if sc.HasCurrent() {
		t.Errorf("outside a client there is no current session, got %q", sc.Current)
	}
}

func TestSnapshot_ListError(t *testing.T) {
	f := muxtest.New("x")
	f.Err = errors.New("boom")
	if _, err := mux.Snapshot(context.Background(), f, isScratch); err == nil {
		t.Fatal("expected error")
	}
}

func TestSwitchOrCreate(t *testing.T) {
	f := muxtest.New("main", muxtest.Session("main", 1))
	ctx := context.Background()

	if err := mux.SwitchOrCreate(ctx, f, "feature", "/src/feature"); err != nil {
		t.Fatalf("SwitchOrCreate: %v", err)
	}
	if !f.Called("new:feature") || !f.Called("switch:feature") {
		t.Errorf("calls: %v", f.Calls)
	}
	if p, ok := f.SessionPath(ctx, "feature"); !ok || p != "/src/feature" {
		t.Errorf("path: got %q, %v", p, ok)
	}

	f.Calls = nil
	if err := mux.SwitchOrCreate(ctx, f, "main", ""); err != nil {
		t.Fatalf("SwitchOrCreate existing: %v", err)
	}
	if f.Called("new:main") {
		t.Error("existing session must not be recreated")
	}
}

func TestIsNotFound(t *testing.T) {
	if !mux.IsNotFound(mux.ErrNoServer) || !mux.IsNotFound(mux.ErrSessionNotFound) {
		t.Error("sentinels should be not-found")
	}
	if mux.IsNotFound(errors.New("other")) {
		t.Error("plain error is not not-found")
	}
}
