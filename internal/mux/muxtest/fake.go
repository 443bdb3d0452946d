// Package muxtest provides an in-memory Multiplexer for tests.
package muxtest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/mux"
)

// Fake is a concurrency-safe in-memory multiplexer. Calls records every
// side-effecting operation as "op:name".
type Fake struct {
	mu       sync.Mutex
	Inside   bool
	Current  string
	Sessions []model.MuxSession
	Paths    map[string]string
	Captures map[string]string
	Calls    []string

	// Err, when set, is returned by ListSessions.
	Err error
	// FailOn maps "op:name" to an error returned by that call.
	FailOn map[string]error
}

// New returns a Fake inside a client attached to current.
func New(current string, sessions ...model.MuxSession) *Fake {
	return &Fake{
		Inside:   current != "",
		Current:  current,
		Sessions: sessions,
		Paths:    map[string]string{},
		Captures: map[string]string{},
	}
}

// Session is a shorthand for a MuxSession last attached at unix time ts.
func Session(name string, ts int64) model.MuxSession {
	return model.MuxSession{Name: name, LastAttached: time.Unix(ts, 0), Windows: 1}
}

var _ mux.Multiplexer = (*Fake)(nil)

func (f *Fake) Name() string { return "fake" }

func (f *Fake) InsideClient() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Inside
}

func (f *Fake) ListSessions(ctx context.Context) ([]model.MuxSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return slices.Clone(f.Sessions), nil
}

func (f *Fake) CurrentSession(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Current, nil
}

func (f *Fake) HasSession(ctx context.Context, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexLocked(name) >= 0
}

func (f *Fake) SessionPath(ctx context.Context, name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexLocked(name) < 0 {
		return "", false
	}
	p, ok := f.Paths[name]
	return p, ok && p != ""
}

func (f *Fake) NewSession(ctx context.Context, name, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("new", name); err != nil {
		return err
	}
	if f.indexLocked(name) >= 0 {
		return mux.ErrSessionExists
	}
	f.Sessions = append(f.Sessions, model.MuxSession{Name: name, LastAttached: time.Now(), Windows: 1})
	if path != "" {
		f.Paths[name] = path
	}
	return nil
}

func (f *Fake) KillSession(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("kill", name); err != nil {
		return err
	}
	i := f.indexLocked(name)
	if i < 0 {
		return mux.ErrSessionNotFound
	}
	f.Sessions = slices.Delete(f.Sessions, i, i+1)
	return nil
}

func (f *Fake) SwitchOrAttach(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failLocked("switch", name); err != nil {
		return err
	}
	if f.indexLocked(name) < 0 {
		return mux.ErrSessionNotFound
	}
	return nil
}

func (f *Fake) CaptureSession(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexLocked(name) < 0 {
		return "", mux.ErrSessionNotFound
	}
	return f.Captures[name], nil
}

func (f *Fake) SessionInfo(ctx context.Context, name string) (mux.SessionInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.indexLocked(name)
	if i < 0 {
		return mux.SessionInfo{}, mux.ErrSessionNotFound
	}
	attached := 0
	if f.Sessions[i].Attached {
		attached = 1
	}
	return mux.SessionInfo{Windows: f.Sessions[i].Windows, Attached: attached}, nil
}

// Called reports whether "op:name" was recorded.
func (f *Fake) Called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Contains(f.Calls, call)
}

func (f *Fake) indexLocked(name string) int {
	return slices.IndexFunc(f.Sessions, func(s model.MuxSession) bool { return s.Name == name })
}

// failLocked records the call and returns any configured failure.
func (f *Fake) failLocked(op, name string) error {
	call := op + ":" + name
	f.Calls = append(f.Calls, call)
	return f.FailOn[call]
}
