package mux

import (
	"fmt"
	"os/exec"

	apperrors "github.com/timvw/session-switcher/internal/errors"
)

// Detect returns the multiplexer to drive. Only tmux is supported; it must
// be on PATH. A running server is not required since new-session starts one.
func Detect(opts ...Option) (Multiplexer, error) {
	if _, err := exec.LookPath("tmux"); err != nil {
		return nil, apperrors.E(apperrors.Op("mux.Detect"), apperrors.KindDependencyMissing,
			"no supported terminal multiplexer detected (install tmux)", err)
	}
	return NewTmux(opts...), nil
}

// FromName creates a Multiplexer by name.
func FromName(name string, opts ...Option) (Multiplexer, error) {
	switch name {
	case "", "tmux":
		return NewTmux(opts...), nil
	default:
		return nil, fmt.Errorf("unknown multiplexer: %q (supported: tmux)", name)
	}
}
