// Package mux provides an abstraction over the terminal multiplexer.
//
// The package is pure transport: it lists, creates, switches and kills
// sessions and reports what it observes. Deciding which session belongs to
// which source is left to the source package.
package mux

import (
	"context"
	"errors"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/model"
)

var (
	ErrNoServer        = errors.New("no tmux server running")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// SessionInfo holds the counts shown in previews.
type SessionInfo struct {
	Windows  int
	Attached int
}

// Multiplexer abstracts terminal multiplexer operations.
type Multiplexer interface {
	// Name returns the multiplexer name (e.g., "tmux").
	Name() string

	// InsideClient reports whether this process runs inside a multiplexer client.
	InsideClient() bool

	// ListSessions returns every live session. No running server yields an
	// empty list, not an error.
	ListSessions(ctx context.Context) ([]model.MuxSession, error)

	// CurrentSession returns the session this process runs in, or "" outside any.
	CurrentSession(ctx context.Context) (string, error)

	// HasSession reports whether a session with exactly this name exists.
	HasSession(ctx context.Context, name string) bool

	// SessionPath returns the session's working directory. Lookup failures
	// are reported as ok=false.
	SessionPath(ctx context.Context, name string) (path string, ok bool)

	// NewSession creates a detached session, optionally rooted at path.
	NewSession(ctx context.Context, name, path string) error

	// KillSession destroys a session.
	KillSession(ctx context.Context, name string) error

	// SwitchOrAttach moves the current client to the session, or attaches
	// the terminal to it when running outside a client.
	SwitchOrAttach(ctx context.Context, name string) error

	// CaptureSession captures the visible content of the session's active pane.
	CaptureSession(ctx context.Context, name string) (string, error)

	// SessionInfo returns the window and attached-client counts.
	SessionInfo(ctx context.Context, name string) (SessionInfo, error)
}

// Snapshot builds the SessionContext for one discovery round.
func Snapshot(ctx context.Context, m Multiplexer, isScratch func(string) bool) (*model.SessionContext, error) {
	sessions, err := m.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	current := ""
	if m.InsideClient() {
		current, err = m.CurrentSession(ctx)
		if err != nil && !errors.Is(err, ErrNoServer) {
			return nil, err
		}
	}
	return model.NewSessionContext(current, sessions, isScratch), nil
}

// SwitchOrCreate switches to name, creating it at path first when it does not exist.
func SwitchOrCreate(ctx context.Context, m Multiplexer, name, path string) error {
	if !m.HasSession(ctx, name) {
		if err := m.NewSession(ctx, name, path); err != nil {
			return err
		}
	}
	return m.SwitchOrAttach(ctx, name)
}

// IsNotFound reports whether err means the session or server is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoServer) ||
		apperrors.Is(err, apperrors.KindNotFound)
}
