package main

import (
	"encoding/json"
	"fmt"
	"strings"

	z "github.com/Oudwins/zog"
	"github.com/spf13/cobra"

	"github.com/docgate/docgate/internals/cliutil"
	"github.com/docgate/docgate/internals/schemas"
)

type CallArgs struct {
	User      string `zog:"user"`
	Tool      string `zog:"tool"`
	Arguments []string
	JSON      string
}

var callArgsSchema = z.Struct(z.Shape{
	"User": z.String().Required(z.Message("--user is required")).Trim(),
	"Tool": z.String().Required().Trim(),
})

func newCallCmd(opts *rootOptions) *cobra.Command {
	parsed := CallArgs{}
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool as a user and stream its progress",
		Example: `  docgate call create_document --user charlie --arg doc_id=notes --arg content="# Notes"
  docgate call check_permission --user bob --arg action=delete`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed.Tool = args[0]
			if issues := callArgsSchema.Validate(&parsed); len(issues) > 0 {
				return fmt.Errorf("invalid arguments:\n%s", z.Issues.Prettify(issues))
			}
			arguments, err := parseToolArguments(parsed.JSON, parsed.Arguments)
			if err != nil {
				return err
			}

			client, err := opts.connect()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			result, err := client.CallTool(cmd.Context(), parsed.User, parsed.Tool, arguments, func(line string) {
				cliutil.PrintLog(out, line)
			})
			if err != nil {
				return err
			}
			cliutil.PrintResult(out, result)
			if result.Status() != schemas.ResultStatusSuccess {
				return &ToolFailedError{Message: result.Message()}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&parsed.User, "user", "u", "", "User to act as")
	cmd.Flags().StringArrayVarP(&parsed.Arguments, "arg", "a", nil, "Tool argument as key=value (repeatable)")
	cmd.Flags().StringVar(&parsed.JSON, "json", "", "Tool arguments as a JSON object")
	return cmd
}

// parseToolArguments merges a JSON object with key=value pairs. Values that
// parse as JSON keep their type, anything else is a string.
func parseToolArguments(raw string, pairs []string) (map[string]any, error) {
	arguments := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
			return nil, fmt.Errorf("invalid --json: %w", err)
		}
	}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --arg %q: expected key=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			arguments[key] = decoded
			continue
		}
		arguments[key] = value
	}
	return arguments, nil
}
