// Package source defines the contract every session source implements and
// the built-in sources: recent, worktree, active, tmuxinator and scratch.
//
// A source discovers candidate sessions from a SessionContext, re-resolves a
// name it owns into fresh metadata, and performs the switch, kill, start and
// preview actions for the sessions it owns.
package source

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
	"github.com/timvw/session-switcher/internal/tmuxinator"
	"github.com/timvw/session-switcher/internal/vcs"
)

// Built-in source names, in registry declaration order.
const (
	Recent     = "recent"
	Worktree   = "worktree"
	Active     = "active"
	Tmuxinator = "tmuxinator"
	Scratch    = "scratch"
)

// Built-in priorities. Lower is shown first.
const (
	RecentPriority     uint = 0
	WorktreePriority   uint = 5
	ActivePriority     uint = 10
	TmuxinatorPriority uint = 50
	ScratchPriority    uint = 999
)

// propLastAttached holds the unix time a live session was last attached.
const propLastAttached = "last_attached"

// Source discovers, resolves and acts on one category of sessions.
type Source interface {
	Name() string
	Description() string
	Priority() uint
	// Dependencies lists commands that must be on PATH for the source to run.
	Dependencies() []string

	// Discover returns candidate records. Nothing to show is an empty list,
	// not an error.
	Discover(ctx context.Context, sc *model.SessionContext) ([]model.SessionRecord, error)
	// Resolve recomputes metadata for a name this source owns. Names it does
	// not own fail with a KindNotFound error.
	Resolve(ctx context.Context, name string, sc *model.SessionContext) (model.SessionMetadata, error)
	// CanHandle is the ownership test used to route actions.
	CanHandle(ctx context.Context, name string, sc *model.SessionContext) bool

	Switch(ctx context.Context, name string, md model.SessionMetadata) error
	Kill(ctx context.Context, name string) error
	Start(ctx context.Context, name string, md model.SessionMetadata) error
	Preview(ctx context.Context, name string, md model.SessionMetadata) (string, error)

	// HelpText describes the source's list icons.
	HelpText() []string
}

// Base supplies the default behaviour shared by most sources. Embed it and
// override what differs.
type Base struct {
	Mux mux.Multiplexer
}

// Dependencies returns none.
func (b Base) Dependencies() []string { return nil }

// HelpText returns none.
func (b Base) HelpText() []string { return nil }

// Kill kills the multiplexer session of the same name.
func (b Base) Kill(ctx context.Context, name string) error {
	return b.Mux.KillSession(ctx, name)
}

// OwnsByResolve is the default ownership test: s owns name when it resolves.
func OwnsByResolve(ctx context.Context, s Source, name string, sc *model.SessionContext) bool {
	_, err := s.Resolve(ctx, name, sc)
	return err == nil
}

// FallbackPreview is the one-line preview used when a source has nothing better.
func FallbackPreview(name string, md model.SessionMetadata) string {
	if md.Path != "" {
		return fmt.Sprintf("Session: %s\nPath: %s", name, md.Path)
	}
	return fmt.Sprintf("Session: %s", name)
}

// Deps are the collaborators of the built-in sources.
type Deps struct {
	Mux            mux.Multiplexer
	Git            vcs.Git
	Tmuxinator     tmuxinator.Tool
	TmuxinatorDirs []string
	IsScratch      func(string) bool
	// Getwd locates the repository when not inside a session. Defaults to os.Getwd.
	Getwd func() (string, error)
}

// Builtins returns the built-in sources in declaration order.
func Builtins(d Deps) []Source {
	if d.IsScratch == nil {
		d.IsScratch = func(name string) bool { return strings.Contains(name, "scratch") }
	}
	if d.Getwd == nil {
		d.Getwd = os.Getwd
	}
	return []Source{
		NewRecent(d.Mux),
		NewWorktree(d.Mux, d.Git, d.Getwd),
		NewActive(d.Mux, d.IsScratch),
		NewTmuxinator(d.Mux, d.Tmuxinator, d.TmuxinatorDirs),
		NewScratch(d.Mux, d.IsScratch),
	}
}

// liveRecord builds the record for a live session, taking its timestamp
// from the snapshot when available.
func liveRecord(name, sourceID string, priority uint, sc *model.SessionContext) model.SessionRecord {
	md := model.NewMetadata(sourceID).WithExists(true)
	rec := model.NewSessionRecord(name, sourceID, priority, md).WithActive(true)
	if s, ok := sc.Lookup(name); ok {
		rec = rec.WithDiscoveredAt(s.LastAttached)
	}
	return rec
}

// resolveLive resolves a live session for the recent, active and scratch sources.
func resolveLive(ctx context.Context, m mux.Multiplexer, sourceID, name string, sc *model.SessionContext) (model.SessionMetadata, bool) {
	if !m.HasSession(ctx, name) {
		return model.SessionMetadata{}, false
	}
	md := model.NewMetadata(sourceID).WithExists(true)
	if path, ok := m.SessionPath(ctx, name); ok {
		md = md.WithPath(path)
	}
	if s, ok := sc.Lookup(name); ok && !s.LastAttached.IsZero() {
		md = md.WithProperty(propLastAttached, strconv.FormatInt(s.LastAttached.Unix(), 10))
	}
	return md, true
}

// livePreview describes a running session and shows what is on its screen.
func livePreview(ctx context.Context, m mux.Multiplexer, name string, md model.SessionMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", name)
	if md.Path != "" {
		fmt.Fprintf(&b, "Path: %s\n", md.Path)
	}
	if info, err := m.SessionInfo(ctx, name); err == nil {
		fmt.Fprintf(&b, "Windows: %d  Attached: %d\n", info.Windows, info.Attached)
	}
	if ts := md.Property(propLastAttached); ts != "" {
		if secs, err := strconv.ParseInt(ts, 10, 64); err == nil {
			fmt.Fprintf(&b, "Last used: %s\n", humanize.Time(time.Unix(secs, 0)))
		}
	}
	if content, err := m.CaptureSession(ctx, name); err == nil && strings.TrimSpace(content) != "" {
		b.WriteString(strings.Repeat("─", 40))
		b.WriteString("\n")
		b.WriteString(strings.TrimRight(content, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}
