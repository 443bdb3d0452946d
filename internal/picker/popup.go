package picker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/logger"
	"github.com/timvw/session-switcher/internal/mux"
)

// Popuper runs a shell command in a multiplexer popup. *mux.Tmux implements it.
type Popuper interface {
	Popup(ctx context.Context, opts mux.PopupOptions, command string) error
}

// Popup runs fzf inside a tmux popup over the current client. Input and
// output go through temp files because the popup has its own terminal.
type Popup struct {
	Mux    Popuper
	Width  string
	Height string
	// FZF is the fzf binary. Defaults to "fzf".
	FZF string
}

// Select writes lines to a temp file, runs fzf over it in a popup and reads
// the result back.
func (p *Popup) Select(ctx context.Context, lines []string, opts Options) (Result, error) {
	if len(lines) == 0 {
		return Result{}, nil
	}
	dir, err := os.MkdirTemp("", "session-switcher-")
	if err != nil {
		return Result{}, fmt.Errorf("creating popup workspace: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "input")
	out := filepath.Join(dir, "output")
	status := filepath.Join(dir, "status")
	if err := os.WriteFile(in, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		return Result{}, fmt.Errorf("writing popup input: %w", err)
	}

	command := p.command(opts, in, out, status)
	logger.ComponentLogger("picker").Debug("opening popup", "command", command)

	popupErr := p.Mux.Popup(ctx, mux.PopupOptions{
		Width:  p.Width,
		Height: p.Height,
		Title:  " sessions ",
	}, command)

	code, ok := readStatus(status)
	if !ok {
		if popupErr != nil {
			return Result{}, popupErr
		}
		return Result{}, nil
	}
	switch code {
	case 0:
	case 1, 130:
		return Result{}, nil
	default:
		return Result{}, apperrors.ExternalToolFailed(p.binary(), []string{"--expect"}, fmt.Errorf("exit status %d", code))
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return Result{}, fmt.Errorf("reading popup output: %w", err)
	}
	return ParseFZFOutput(string(data)), nil
}

// command is the shell line run inside the popup. The exit status is saved
// because display-popup does not report it reliably.
func (p *Popup) command(opts Options, in, out, status string) string {
	parts := []string{shellQuote(p.binary())}
	for _, a := range Args(opts) {
		parts = append(parts, shellQuote(a))
	}
	return fmt.Sprintf("%s < %s > %s; echo $? > %s",
		strings.Join(parts, " "), shellQuote(in), shellQuote(out), shellQuote(status))
}

func (p *Popup) binary() string {
	if p.FZF == "" {
		return "fzf"
	}
	return p.FZF
}

func readStatus(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return code, true
}

// shellQuote quotes s for a POSIX shell.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=:,%", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
