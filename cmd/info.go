package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the environment and every discovered session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		sc, records, err := a.discover(ctx)
		if err != nil {
			return err
		}

		fmt.Println(headStyle.Render("Environment"))
		fmt.Printf("  inside tmux:  %t\n", a.mux.InsideClient())
		fmt.Printf("  current:      %s\n", orNone(sc.Current))
		fmt.Printf("  live:         %d\n", len(sc.Active))
		fmt.Printf("  socket:       %s\n", orNone(a.cfg.TmuxSocket))
		fmt.Printf("  ui mode:      %s\n", a.cfg.UI.Mode)
		fmt.Printf("  preview:      %t\n", a.cfg.PreviewEnabled)
		fmt.Printf("  TMUX:         %s\n", orNone(os.Getenv("TMUX")))

		counts := make(map[string]int)
		for _, r := range records {
			counts[r.SourceID]++
		}
		fmt.Println()
		fmt.Println(headStyle.Render("Sources"))
		for _, s := range a.registry.Inspect(ctx) {
			fmt.Printf("  %s %-14s %3d sessions\n", mark(s.Usable()), s.Name, counts[s.Name])
		}

		fmt.Println()
		fmt.Println(headStyle.Render(fmt.Sprintf("Sessions (%d)", len(records))))
		for _, r := range records {
			flags := ""
			if r.IsCurrent {
				flags += " current"
			}
			if r.IsActive {
				flags += " live"
			}
			fmt.Printf("  %-30s %-12s %-14s%s\n", r.Name, r.SourceID, humanize.Time(r.DiscoveredAt), dimStyle.Render(flags))
			if r.Metadata.Path != "" {
				fmt.Printf("  %s\n", dimStyle.Render("  "+r.Metadata.Path))
			}
		}
		return nil
	},
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
