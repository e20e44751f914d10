package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docgate/docgate/docgated/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the docgate server in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serverInstance := server.New()
			defer serverInstance.Base.Close()
			return serverInstance.Run(ctx)
		},
	}
}

func newShutdownCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Stop a running docgate server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.client().Shutdown(cmd.Context())
		},
	}
}
