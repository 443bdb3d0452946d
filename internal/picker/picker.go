// Package picker presents the ranked session list and reports what the user
// chose. Three front ends exist: fzf on the current terminal, fzf inside a
// tmux popup, and a built-in bubbletea list for systems without fzf.
package picker

import (
	"context"
	"strings"
)

// Keys reported alongside a selection. An empty key means plain accept.
const (
	KeyKill          = "ctrl-x"
	KeyRename        = "ctrl-r"
	KeyStart         = "ctrl-s"
	KeyNew           = "ctrl-n"
	KeyTogglePreview = "ctrl-p"
)

// ExpectedKeys are the keys that end selection with a key report.
var ExpectedKeys = []string{KeyKill, KeyRename, KeyStart, KeyNew, KeyTogglePreview}

// DefaultPrompt is shown in front of the query.
const DefaultPrompt = "Select session (?: help)"

// Options control one selection.
type Options struct {
	Prompt string
	// Preview shows the preview pane initially.
	Preview bool
	// PreviewWindow is the fzf --preview-window layout, e.g. "right:50%:wrap".
	PreviewWindow string
	// PreviewCommand is run by fzf with the highlighted line as {}.
	PreviewCommand string
	// HelpCommand is run by fzf when "?" is pressed.
	HelpCommand string
}

// Result is the outcome of one selection. An empty Line means cancelled.
type Result struct {
	Line string
	Key  string
}

// Cancelled reports whether the user left without choosing.
func (r Result) Cancelled() bool {
	return r.Line == ""
}

// Picker shows lines and waits for a choice.
type Picker interface {
	Select(ctx context.Context, lines []string, opts Options) (Result, error)
}

// ParseFZFOutput interprets fzf output printed with --expect: one line is a
// selection, two or more lines are a key followed by the selection.
func ParseFZFOutput(out string) Result {
	out = strings.TrimSpace(out)
	if out == "" {
		return Result{}
	}
	lines := strings.Split(out, "\n")
	if len(lines) == 1 {
		return Result{Line: lines[0]}
	}
	return Result{Key: strings.TrimSpace(lines[0]), Line: lines[1]}
}

func (o Options) prompt() string {
	if o.Prompt == "" {
		return DefaultPrompt
	}
	return o.Prompt
}
