package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var captureCmd = &cobra.Command{
	Use:   "capture <session>",
	Short: "Capture the visible content of a session",
	Long: `Capture the visible content of the active pane of a live session and
print it to stdout. This is what previews of live sessions show.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		m, err := getMultiplexer(flagSocket)
		if err != nil {
			return err
		}

		content, err := m.CaptureSession(cmd.Context(), name)
		if err != nil {
			return fmt.Errorf("failed to capture session %q: %w", name, err)
		}

		fmt.Fprint(os.Stdout, content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(captureCmd)
}
