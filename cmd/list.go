package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/session-switcher/internal/picker"
)

var (
	flagPlain bool
	flagJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the ranked session list",
	Long: `Run one discovery round and print the list the picker would show,
one session per line, best candidates first.

With --plain the lines carry no color. With --json every record is
printed with its source, priority and metadata.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		_, records, err := a.discover(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		f := picker.NewFormatter(a.cfg.UI.ShowSourceNames, !flagPlain)
		for _, line := range f.FormatAll(records) {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&flagPlain, "plain", false, "print without colors")
	listCmd.Flags().BoolVar(&flagJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(listCmd)
}
