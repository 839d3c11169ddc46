package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/presentation"
)

var (
	execData           string
	execIdempotencyKey string
)

var actionsExecCmd = &cobra.Command{
	Use:   "actions:exec NAME",
	Short: "Run one action with a JSON payload",
	Long: `Run the named action with the JSON object given in --data and print the
result as JSON.

Validation failures print the offending fields and exit non-zero.

Examples:
  action actions:exec echo --data '{"text": "hello"}'
  action actions:exec create-chat -D '{"description": "Sprint plan", "model": "gpt-4"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runActionsExec,
}

func init() {
	actionsExecCmd.Flags().StringVarP(&execData, "data", "D", "", "Payload as a JSON object (required)")
	actionsExecCmd.Flags().StringVar(&execIdempotencyKey, "idempotency-key", "", "Idempotency key for the invocation")
	_ = actionsExecCmd.MarkFlagRequired("data")
	rootCmd.AddCommand(actionsExecCmd)
}

func runActionsExec(cmd *cobra.Command, args []string) error {
	data, err := parseData(execData)
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	ctx := cmd.Context()
	if execIdempotencyKey != "" {
		ctx = action.WithIdempotencyKey(ctx, execIdempotencyKey)
	}

	formatter := presentation.NewFormatter(cmd.OutOrStdout())
	result, err := a.manager.Execute(ctx, args[0], data)
	if err != nil {
		var ae *action.Error
		if errors.As(err, &ae) && len(ae.Fields) > 0 {
			_ = presentation.NewFormatter(cmd.ErrOrStderr()).FormatResult(map[string]any{"errors": ae.Fields})
		}
		if action.KindOf(err) == action.KindNotFound {
			return fmt.Errorf("%w (available: %v)", err, a.manager.Names())
		}
		return err
	}
	return formatter.FormatResult(result)
}

// parseData decodes a --data value, which must be a JSON object.
func parseData(raw string) (map[string]any, error) {
	if !gjson.Valid(raw) {
		return nil, errors.New("--data must be valid JSON")
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsObject() {
		return nil, errors.New("--data must be a JSON object")
	}
	data, _ := parsed.Value().(map[string]any)
	return data, nil
}
