package picker

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/charmbracelet/x/term"

	apperrors "github.com/timvw/session-switcher/internal/errors"
)

// UI modes.
const (
	ModeAuto    = "auto"
	ModeFZF     = "fzf"
	ModePopup   = "popup"
	ModeBuiltin = "builtin"
)

// Choice describes the environment a front end is chosen for.
type Choice struct {
	Mode string
	// NoPopup forces fzf on the current terminal even inside tmux.
	NoPopup bool
	// Inside reports whether we run inside a multiplexer client.
	Inside bool
	// Popups opens popups. Without it popup mode is unavailable.
	Popups Popuper

	PopupWidth  string
	PopupHeight string
	Theme       string
	Preview     PreviewFunc
	Help        func() string

	// LookPath and IsTerminal default to exec.LookPath and a stdin TTY check.
	LookPath   func(string) (string, error)
	IsTerminal func() bool
}

// Choose returns the front end for c. In auto mode fzf is preferred, in a
// popup when inside tmux, and the built-in list is the fallback.
func Choose(c Choice) (Picker, error) {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	isTerminal := c.IsTerminal
	if isTerminal == nil {
		isTerminal = func() bool { return term.IsTerminal(os.Stdin.Fd()) }
	}
	_, err := lookPath("fzf")
	hasFZF := err == nil
	canPopup := c.Inside && !c.NoPopup && c.Popups != nil

	popup := func() Picker {
		return &Popup{Mux: c.Popups, Width: c.PopupWidth, Height: c.PopupHeight}
	}
	builtin := func() (Picker, error) {
		if !isTerminal() {
			return nil, apperrors.E(apperrors.Op("picker.Choose"), apperrors.KindUnsupported,
				"the built-in picker needs a terminal")
		}
		return &Builtin{Theme: ThemeByName(c.Theme), Preview: c.Preview, Help: c.Help}, nil
	}

	switch c.Mode {
	case ModeAuto, "":
		switch {
		case hasFZF && canPopup:
			return popup(), nil
		case hasFZF:
			return &FZF{}, nil
		default:
			return builtin()
		}
	case ModeFZF:
		if !hasFZF {
			return nil, apperrors.DependencyMissing("picker", "fzf")
		}
		return &FZF{}, nil
	case ModePopup:
		if !hasFZF {
			return nil, apperrors.DependencyMissing("picker", "fzf")
		}
		if !canPopup {
			return &FZF{}, nil
		}
		return popup(), nil
	case ModeBuiltin:
		return builtin()
	default:
		return nil, apperrors.E(apperrors.Op("picker.Choose"), apperrors.KindConfig, fmt.Sprintf("unknown ui mode %q", c.Mode))
	}
}
