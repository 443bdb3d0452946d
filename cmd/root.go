package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/session-switcher/internal/mux"
	"github.com/timvw/session-switcher/internal/picker"
	"github.com/timvw/session-switcher/internal/switcher"
)

var (
	// Global flags.
	flagConfig  string
	flagSocket  string
	flagUI      string
	flagNoPopup bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "session-switcher",
	Short: "Pick, start and switch tmux sessions from one ranked list",
	Long: `session-switcher lists every session you are likely to want next and
switches to the one you pick.

Candidates come from several sources: the most recent session, live
sessions, git worktrees of the current repository, tmuxinator projects,
scratch sessions and any extensions found in the plugin directory. Each
name appears once, ranked by source priority and then by recency.

Keys in the picker:
  enter   switch to the session
  ctrl-x  kill the session and list again
  ctrl-s  start the session in the background and list again
  ctrl-p  toggle the preview pane (persisted)
  ?       show help`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitcher(cmd)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", envOrDefault("SESSION_SWITCHER_CONFIG", ""), "config file (default: search .session-switcher.yaml, then the XDG config dir)")
	rootCmd.PersistentFlags().StringVar(&flagSocket, "socket", "", "tmux socket name or path (overrides tmux_socket)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log at debug level")
	rootCmd.Flags().StringVar(&flagUI, "ui", "", "picker: auto, fzf, popup, builtin (overrides ui.mode)")
	rootCmd.Flags().BoolVar(&flagNoPopup, "no-popup", false, "run fzf on this terminal even inside tmux")
}

func runSwitcher(cmd *cobra.Command) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if flagUI != "" {
		a.cfg.UI.Mode = flagUI
	}
	popups, _ := a.mux.(picker.Popuper)
	p, err := picker.Choose(picker.Choice{
		Mode:        a.cfg.UI.Mode,
		NoPopup:     flagNoPopup,
		Inside:      a.mux.InsideClient(),
		Popups:      popups,
		PopupWidth:  a.cfg.UI.PopupWidth,
		PopupHeight: a.cfg.UI.PopupHeight,
		Theme:       a.cfg.UI.Theme,
		Preview:     a.previewLine,
		Help:        a.helpText,
	})
	if err != nil {
		return err
	}

	loop := &switcher.Loop{
		Registry:  a.registry,
		Picker:    p,
		Formatter: picker.NewFormatter(a.cfg.UI.ShowSourceNames, true),
		Settings:  a.cfg,
		Snapshot:  a.snapshot,
		Options: picker.Options{
			PreviewWindow:  a.cfg.UI.PreviewPosition,
			PreviewCommand: picker.ShellCommand(a.selfCommand("preview")...),
			HelpCommand:    picker.ShellCommand(a.selfCommand("help-preview")...),
		},
	}

	out, err := loop.Run(ctx)
	a.log.Info("switcher finished", "state", out.State, "session", out.Session, "rounds", out.Rounds, "error", err)
	if err != nil {
		if out.Session != "" {
			return fmt.Errorf("%s %s: %w", out.State, out.Session, err)
		}
		return err
	}
	return nil
}

// getMultiplexer returns tmux, honouring the configured socket.
func getMultiplexer(socket string) (mux.Multiplexer, error) {
	return mux.Detect(mux.WithSocket(socket))
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
