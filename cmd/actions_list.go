package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/malikkrehic/action/internal/presentation"
)

var listTable bool

var actionsListCmd = &cobra.Command{
	Use:   "actions:list",
	Short: "List all registered actions",
	Long: `List all registered actions with their payload type and fields.

Output is JSON unless --table is given.

Examples:
  # List all actions
  action actions:list

  # Render a table
  action actions:list --table

  # Parse specific fields with jq
  action actions:list | jq '.actions | keys'`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close(context.Background()) }()

		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		list := presentation.FromRegistry(a.manager.Registry())
		if listTable {
			return formatter.FormatActionsTable(list)
		}
		return formatter.FormatActions(list)
	},
}

func init() {
	actionsListCmd.Flags().BoolVarP(&listTable, "table", "t", false, "Render the listing as a table")
	rootCmd.AddCommand(actionsListCmd)
}
