package picker

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/timvw/session-switcher/internal/model"
	"github.com/timvw/session-switcher/internal/source"
)

// Icons.
const (
	IconCurrent    = "→"
	IconRecent     = "★"
	IconActive     = "●"
	IconIdle       = "○"
	IconScratch    = "󱗽"
	IconTmuxinator = "◆"
)

// unsuffixed sources are recognisable by their icon alone.
var unsuffixed = map[string]bool{
	source.Recent:  true,
	source.Active:  true,
	source.Scratch: true,
}

// Formatter renders records as picker lines: a colored icon, the name and,
// for most sources, the source name in parentheses.
type Formatter struct {
	ShowSourceNames bool

	recent     lipgloss.Style
	active     lipgloss.Style
	worktree   lipgloss.Style
	tmuxinator lipgloss.Style
}

// NewFormatter creates a formatter. color selects ANSI output; fzf is
// started with --ansi so the color survives the pipe.
func NewFormatter(showSourceNames, color bool) *Formatter {
	r := lipgloss.NewRenderer(io.Discard)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Formatter{
		ShowSourceNames: showSourceNames,
		recent:          r.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		active:          r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		worktree:        r.NewStyle().Foreground(lipgloss.Color("4")),
		tmuxinator:      r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Format renders one record.
func (f *Formatter) Format(rec model.SessionRecord) string {
	line := f.style(rec).Render(icon(rec)) + " " + rec.Name
	if f.ShowSourceNames || !unsuffixed[rec.SourceID] {
		line += " (" + rec.SourceID + ")"
	}
	return line
}

// FormatAll renders records in order.
func (f *Formatter) FormatAll(recs []model.SessionRecord) []string {
	lines := make([]string, len(recs))
	for i, r := range recs {
		lines[i] = f.Format(r)
	}
	return lines
}

func icon(rec model.SessionRecord) string {
	if rec.IsCurrent {
		return IconCurrent
	}
	switch rec.SourceID {
	case source.Recent:
		return IconRecent
	case source.Worktree:
		if rec.IsActive {
			return IconActive
		}
		return IconIdle
	case source.Scratch:
		return IconScratch
	case source.Tmuxinator:
		return IconTmuxinator
	default:
		return IconActive
	}
}

func (f *Formatter) style(rec model.SessionRecord) lipgloss.Style {
	switch rec.SourceID {
	case source.Recent:
		return f.recent
	case source.Worktree:
		return f.worktree
	case source.Scratch:
		if rec.IsActive {
			return f.active
		}
		return f.worktree
	case source.Tmuxinator:
		return f.tmuxinator
	default:
		return f.active
	}
}

// ExtractSessionName recovers the session name from a picker line. Lines
// without an icon are returned trimmed.
func ExtractSessionName(line string) string {
	line = strings.TrimSpace(ansi.Strip(line))
	_, rest, ok := strings.Cut(line, " ")
	if !ok {
		return line
	}
	rest = strings.TrimSpace(rest)
	if strings.HasSuffix(rest, ")") {
		if i := strings.LastIndex(rest, " ("); i > 0 {
			rest = rest[:i]
		}
	}
	return rest
}
