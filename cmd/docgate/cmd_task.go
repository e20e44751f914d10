package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/docgate/docgate/internals/cliutil"
	"github.com/docgate/docgate/internals/schemas"
	"github.com/docgate/docgate/internals/timeouts"
)

func newTaskCmd(opts *rootOptions) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "task <id>",
		Short: "Show a task's status, log and result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.connect()
			if err != nil {
				return err
			}
			var task *schemas.TaskResponse
			if wait {
				task, err = client.Wait(cmd.Context(), args[0])
			} else {
				ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.SecondShort)
				defer cancel()
				task, err = client.TaskStatus(ctx, args[0])
			}
			if err != nil {
				return err
			}
			cliutil.PrintTask(cmd.OutOrStdout(), task)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the task to finish")
	return cmd
}

func newStreamCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stream <id>",
		Short: "Follow a task's events until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.connect()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var failure error
			err = client.Stream(cmd.Context(), args[0], func(ev schemas.Event) {
				switch ev.Type {
				case schemas.EventLog:
					cliutil.PrintLog(out, ev.Message)
				case schemas.EventResult:
					cliutil.PrintResult(out, ev.Result)
				case schemas.EventError:
					failure = &ToolFailedError{Message: ev.Message}
				}
			})
			if err != nil {
				return err
			}
			return failure
		},
	}
}
