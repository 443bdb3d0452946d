package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List sources by priority",
	Long: `List every built-in and extension source in priority order, with its
dependencies and whether they are all on PATH.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		for _, s := range a.registry.Inspect(ctx) {
			kind := "builtin"
			if s.Extension {
				kind = "extension"
			}
			line := fmt.Sprintf("%s %4d  %-14s %-9s %s", mark(s.Usable()), s.Priority, s.Name, kind, s.Description)
			if len(s.Dependencies) > 0 {
				line += dimStyle.Render(" [needs " + strings.Join(s.Dependencies, ", ") + "]")
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
