package cmd

import "github.com/charmbracelet/lipgloss"

var (
	headStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f7768e"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

func mark(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return badStyle.Render("✗")
}
