package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrdja026/pcagent/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persisted configuration",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Save the Anthropic API key to the on-disk config",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(args[0]); err != nil {
			return fmt.Errorf("save api key: %w", err)
		}
		fmt.Println("API key saved.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(setKeyCmd)
}
