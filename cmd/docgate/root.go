package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/docgate/docgate/internals/cliutil"
	"github.com/docgate/docgate/internals/conf"
	"github.com/docgate/docgate/internals/version"
	"github.com/docgate/docgate/sdk"
)

type rootOptions struct {
	baseURL string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "docgate",
		Short: "Docgate - permission-gated document tools",
		Long: `Docgate runs document tools as background tasks on a local server.

Every call names the user it acts for. The server checks the user's role
against the RBAC policy before the tool runs and streams progress back.`,
		Version:       version.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "url", "", "Server base url (defaults to DOCGATE_HOST and DOCGATE_PORT)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCallCmd(opts))
	cmd.AddCommand(newStreamCmd(opts))
	cmd.AddCommand(newTaskCmd(opts))
	cmd.AddCommand(newToolsCmd(opts))
	cmd.AddCommand(newUsersCmd(opts))
	cmd.AddCommand(newPermsCmd(opts))
	cmd.AddCommand(newDocsCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newNewCmd(opts))
	cmd.AddCommand(newShutdownCmd(opts))
	return cmd
}

func execute() error {
	return newRootCmd().Execute()
}

func (o *rootOptions) client() *sdk.Client {
	if strings.TrimSpace(o.baseURL) != "" {
		return sdk.NewClient(sdk.WithBaseURL(o.baseURL))
	}
	return sdk.NewClient()
}

// connect returns a client for a running server, starting a local one when
// none answers.
func (o *rootOptions) connect() (*sdk.Client, error) {
	client := o.client()
	if err := cliutil.EnsureDaemonRunning(client, conf.GetConfig().Version); err != nil {
		return nil, err
	}
	return client, nil
}
