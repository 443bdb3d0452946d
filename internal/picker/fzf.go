package picker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	apperrors "github.com/timvw/session-switcher/internal/errors"
)

// FZF runs fzf on the current terminal.
type FZF struct {
	// Path is the fzf binary. Defaults to "fzf".
	Path string
}

// Select pipes lines into fzf and parses what it prints.
func (f *FZF) Select(ctx context.Context, lines []string, opts Options) (Result, error) {
	if len(lines) == 0 {
		return Result{}, nil
	}
	bin := f.binary()
	args := append([]string{"--height=40%"}, Args(opts)...)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = strings.NewReader(strings.Join(lines, "\n") + "\n")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if cancelled(err) {
			return Result{}, nil
		}
		return Result{}, apperrors.ExternalToolFailed(bin, []string{"--expect"}, err)
	}
	return ParseFZFOutput(stdout.String()), nil
}

func (f *FZF) binary() string {
	if f.Path == "" {
		return "fzf"
	}
	return f.Path
}

// Args builds the fzf arguments shared by the terminal and popup front ends.
func Args(opts Options) []string {
	args := []string{
		"--ansi",
		"--reverse",
		"--border",
		"--prompt=" + opts.prompt() + ": ",
		"--expect=" + strings.Join(ExpectedKeys, ","),
		"--bind=ctrl-d:preview-page-down",
		"--bind=ctrl-u:preview-page-up",
	}
	window := opts.PreviewWindow
	if window == "" {
		window = "right:50%:wrap"
	}
	if opts.PreviewCommand != "" {
		args = append(args, "--preview="+opts.PreviewCommand+" {}")
		if opts.Preview {
			args = append(args, "--preview-window="+window)
		} else {
			args = append(args, "--preview-window="+window+":hidden")
		}
	} else {
		args = append(args, "--preview-window=hidden")
	}
	if opts.HelpCommand != "" {
		args = append(args, fmt.Sprintf("--bind=?:preview(%s)+change-preview-window(%s)", opts.HelpCommand, window))
	}
	return args
}

// cancelled reports fzf's "no match" (1) and "interrupted" (130) exits.
func cancelled(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	code := exitErr.ExitCode()
	return code == 1 || code == 130
}

// ShellCommand joins parts into a shell line, quoting where needed. Use it
// to build PreviewCommand and HelpCommand.
func ShellCommand(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = shellQuote(p)
	}
	return strings.Join(quoted, " ")
}
