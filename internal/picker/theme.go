package picker

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors of the built-in picker.
type Theme struct {
	Primary        lipgloss.Color // prompt, cursor
	Secondary      lipgloss.Color // selected row text
	Error          lipgloss.Color
	Success        lipgloss.Color // match count
	Text           lipgloss.Color
	TextMuted      lipgloss.Color // hints
	BackgroundElem lipgloss.Color // selected row background
	Border         lipgloss.Color // column separator
}

// DarkTheme is the default.
func DarkTheme() Theme {
	return Theme{
		Primary:        lipgloss.Color("#fab283"),
		Secondary:      lipgloss.Color("#5c9cf5"),
		Error:          lipgloss.Color("#e06c75"),
		Success:        lipgloss.Color("#7fd88f"),
		Text:           lipgloss.Color("#eeeeee"),
		TextMuted:      lipgloss.Color("#808080"),
		BackgroundElem: lipgloss.Color("#1e1e1e"),
		Border:         lipgloss.Color("#484848"),
	}
}

// LightTheme suits bright terminal backgrounds.
func LightTheme() Theme {
	return Theme{
		Primary:        lipgloss.Color("#b35c00"),
		Secondary:      lipgloss.Color("#0550ae"),
		Error:          lipgloss.Color("#cf222e"),
		Success:        lipgloss.Color("#116329"),
		Text:           lipgloss.Color("#1f2328"),
		TextMuted:      lipgloss.Color("#656d76"),
		BackgroundElem: lipgloss.Color("#f6f8fa"),
		Border:         lipgloss.Color("#d0d7de"),
	}
}

// ThemeByName returns a theme by name. Defaults to dark.
func ThemeByName(name string) Theme {
	switch name {
	case "light":
		return LightTheme()
	default:
		return DarkTheme()
	}
}

// styles are derived once per picker run.
type styles struct {
	prompt   lipgloss.Style
	cursor   lipgloss.Style
	selected lipgloss.Style
	border   lipgloss.Style
	count    lipgloss.Style
	dim      lipgloss.Style
	err      lipgloss.Style

	hintKey  lipgloss.Style
	hintDesc lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		prompt:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		selected: lipgloss.NewStyle().Bold(true).Foreground(t.Secondary).Background(t.BackgroundElem),
		border:   lipgloss.NewStyle().Foreground(t.Border),
		count:    lipgloss.NewStyle().Foreground(t.Success),
		dim:      lipgloss.NewStyle().Foreground(t.TextMuted),
		err:      lipgloss.NewStyle().Foreground(t.Error),

		hintKey:  lipgloss.NewStyle().Foreground(t.Text),
		hintDesc: lipgloss.NewStyle().Foreground(t.TextMuted),
	}
}
