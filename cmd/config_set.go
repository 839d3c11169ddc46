package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/malikkrehic/action/internal/config"
)

var configSetCmd = &cobra.Command{
	Use:   "config:set KEY VALUE",
	Short: "Set one configuration value",
	Long: `Set a dotted configuration key in the active config file, keeping its
comments and layout.

Examples:
  action config:set http.addr 0.0.0.0:9000
  action config:set idempotency.ttl 30m
  action config:set tracing.enabled true`,
	Args: cobra.ExactArgs(2),
	// a broken config must still be fixable
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		if err := config.SetValue(path, args[0], args[1]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", args[0], args[1], path)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configSetCmd)
}
