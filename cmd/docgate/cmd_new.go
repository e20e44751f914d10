package main

import (
	"github.com/spf13/cobra"

	"github.com/docgate/docgate/tui"
)

func newNewCmd(opts *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a document with an interactive form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.connect()
			if err != nil {
				return err
			}
			return tui.Run(client, cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "Prefill the user field")
	return cmd
}
