package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timvw/session-switcher/internal/logger"
)

// tools checked by doctor; only tmux is required.
var doctorTools = []struct {
	name     string
	required bool
	purpose  string
}{
	{"tmux", true, "sessions"},
	{"fzf", false, "fzf and popup pickers"},
	{"git", false, "worktree source"},
	{"tmuxinator", false, "tmuxinator source"},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check external tools, sources and configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		failed := false
		fmt.Println(headStyle.Render("Tools"))
		for _, t := range doctorTools {
			path, err := exec.LookPath(t.name)
			found := err == nil
			if !found && t.required {
				failed = true
			}
			if !found {
				path = "not found"
			}
			fmt.Printf("  %s %-11s %s %s\n", mark(found), t.name, path, dimStyle.Render("("+t.purpose+")"))
		}

		fmt.Println()
		fmt.Println(headStyle.Render("Sources"))
		for _, s := range a.registry.Inspect(ctx) {
			detail := s.Description
			if !s.Usable() {
				detail = "missing " + strings.Join(s.Missing, ", ")
			}
			fmt.Printf("  %s %-14s %s\n", mark(s.Usable()), s.Name, detail)
		}

		fmt.Println()
		fmt.Println(headStyle.Render("Paths"))
		printPath("config", a.cfg.ConfigFile)
		printPath("plugins", a.cfg.PluginDir)
		printPath("log", logger.Path())

		if failed {
			return fmt.Errorf("required tools are missing")
		}
		return nil
	},
}

func printPath(label, path string) {
	_, err := os.Stat(path)
	fmt.Printf("  %s %-11s %s\n", mark(err == nil), label, path)
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
