// Package switcher runs the interactive loop: list sessions, let the user
// pick one, act on it, and list again when the action leaves the user in
// the picker.
package switcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/timvw/session-switcher/internal/config"
	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/logger"
	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/picker"
)

// State is a control loop state.
type State int

const (
	Listing State = iota
	Switch
	KillAndRelist
	StartAndRelist
	TogglePreviewAndRelist
	Unsupported
	Cancelled
)

func (s State) String() string {
	switch s {
	case Listing:
		return "listing"
	case Switch:
		return "switch"
	case KillAndRelist:
		return "kill"
	case StartAndRelist:
		return "start"
	case TogglePreviewAndRelist:
		return "toggle-preview"
	case Unsupported:
		return "unsupported"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether the loop stops after s.
func (s State) Terminal() bool {
	return s == Switch || s == Unsupported || s == Cancelled
}

// Outcome is how a run ended.
type Outcome struct {
	State   State
	Session string
	Rounds  int
}

// Registry is the part of registry.Registry the loop drives.
type Registry interface {
	DiscoverAll(ctx context.Context, sc *model.SessionContext) []model.SessionRecord
	SwitchTo(ctx context.Context, name string, sc *model.SessionContext) error
	Kill(ctx context.Context, name string, sc *model.SessionContext) error
	Start(ctx context.Context, name string, sc *model.SessionContext) error
	MissingDependencies(ctx context.Context) int
}

// Loop wires the registry to a picker.
type Loop struct {
	Registry  Registry
	Picker    picker.Picker
	Formatter *picker.Formatter
	Settings  *config.Config
	// Snapshot builds a fresh SessionContext, usually mux.Snapshot.
	Snapshot func(ctx context.Context) (*model.SessionContext, error)
	// Options carry the preview and help commands. Preview is taken from
	// Settings every round.
	Options picker.Options

	log *slog.Logger
}

// stateFor maps a picker key to the transition it requests.
func stateFor(key string) State {
	switch key {
	case picker.KeyKill:
		return KillAndRelist
	case picker.KeyStart:
		return StartAndRelist
	case picker.KeyTogglePreview:
		return TogglePreviewAndRelist
	case picker.KeyRename, picker.KeyNew:
		return Unsupported
	default:
		return Switch
	}
}

// Run loops until the user switches, cancels or an action fails.
func (l *Loop) Run(ctx context.Context) (Outcome, error) {
	if l.log == nil {
		l.log = logger.ComponentLogger("switcher")
	}
	opts := l.Options
	if opts.Prompt == "" {
		opts.Prompt = picker.DefaultPrompt
	}
	if n := l.Registry.MissingDependencies(ctx); n > 0 {
		opts.Prompt += fmt.Sprintf(" [missing %d dependencies]", n)
	}

	out := Outcome{State: Listing}
	for {
		out.Rounds++
		state, name, err := l.round(ctx, opts)
		out.State, out.Session = state, name
		l.log.Debug("round finished", "round", out.Rounds, "state", state, "session", name, "error", err)
		if err != nil || state.Terminal() {
			return out, err
		}
	}
}

// round runs one Listing iteration and returns the state it moved to.
func (l *Loop) round(ctx context.Context, opts picker.Options) (State, string, error) {
	sc, err := l.Snapshot(ctx)
	if err != nil {
		return Cancelled, "", err
	}
	records := l.Registry.DiscoverAll(ctx, sc)
	if len(records) == 0 {
		return Cancelled, "", nil
	}

	opts.Preview = l.Settings.PreviewEnabled
	res, err := l.Picker.Select(ctx, l.Formatter.FormatAll(records), opts)
	if err != nil {
		return Cancelled, "", err
	}
	if res.Cancelled() {
		return Cancelled, "", nil
	}

	name := picker.ExtractSessionName(res.Line)
	state := stateFor(res.Key)

	// The picker may have been open for a while.
	sc, err = l.Snapshot(ctx)
	if err != nil {
		return state, name, err
	}

	switch state {
	case KillAndRelist:
		err = l.Registry.Kill(ctx, name, sc)
	case StartAndRelist:
		err = l.Registry.Start(ctx, name, sc)
	case TogglePreviewAndRelist:
		err = l.Settings.TogglePreview()
	case Unsupported:
		action := "rename"
		if res.Key == picker.KeyNew {
			action = "new session"
		}
		err = apperrors.Unsupported(action)
	case Switch:
		err = l.Registry.SwitchTo(ctx, name, sc)
	}
	return state, name, err
}
