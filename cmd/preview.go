package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	apperrors "github.com/timvw/session-switcher/internal/errors"
	"github.com/timvw/session-switcher/internal/picker"
)

var previewCmd = &cobra.Command{
	Use:   "preview <line>",
	Short: "Print the preview for a picker line",
	Long: `Print the preview text for one line of the picker list.

The line may be exactly what the picker shows, icons, colors and
"(source)" suffix included. The session name is extracted from it and the
owning source renders the preview. fzf calls this for the preview pane.`,
	Args:   cobra.MinimumNArgs(1),
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		fmt.Fprintln(os.Stdout, a.previewLine(ctx, strings.Join(args, " ")))
		return nil
	},
}

var helpPreviewCmd = &cobra.Command{
	Use:    "help-preview",
	Short:  "Print the keybinding and icon legend",
	Args:   cobra.NoArgs,
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		fmt.Fprintln(os.Stdout, a.helpText())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(helpPreviewCmd)
}

// previewLine renders the preview for one picker line. Failures become
// text, since the result is shown in a pane rather than acted on.
func (a *app) previewLine(ctx context.Context, line string) string {
	name := picker.ExtractSessionName(line)
	if name == "" {
		return ""
	}
	sc, err := a.snapshot(ctx)
	if err != nil {
		return fmt.Sprintf("Preview failed: %v", err)
	}
	text, err := a.registry.Preview(ctx, name, sc)
	switch {
	case apperrors.Is(err, apperrors.KindNotFound):
		return fmt.Sprintf("No preview available for session: %s", name)
	case err != nil:
		a.log.Warn("preview failed", "session", name, "error", err)
		return fmt.Sprintf("Preview failed for %s: %v", name, err)
	}
	return text
}

var keyLegend = [][2]string{
	{"enter", "Switch to session"},
	{picker.KeyKill, "Kill session"},
	{picker.KeyStart, "Start session in background"},
	{picker.KeyTogglePreview, "Toggle preview"},
	{picker.KeyRename, "Rename session (not supported)"},
	{picker.KeyNew, "New session (not supported)"},
	{"ctrl-d/u", "Scroll preview"},
	{"?", "Show this help"},
	{"esc", "Exit"},
}

// helpText is the legend shown by "?": keybindings, then each source's icons.
func (a *app) helpText() string {
	title := headStyle.Render("Session Switcher")
	key := lipgloss.NewStyle().Bold(true).Width(10)

	var b strings.Builder
	b.WriteString(title + "\n\n")
	b.WriteString(headStyle.Render("Keys") + "\n")
	for _, kv := range keyLegend {
		b.WriteString("  " + key.Render(kv[0]) + kv[1] + "\n")
	}
	if icons := a.registry.HelpText(); len(icons) > 0 {
		b.WriteString("\n" + headStyle.Render("Sources") + "\n")
		for _, l := range icons {
			b.WriteString("  " + l + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
