package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docgate/docgate/internals/cliutil"
	"github.com/docgate/docgate/internals/timeouts"
)

func newToolsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.connect()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.SecondShort)
			defer cancel()
			list, err := client.ListTools(ctx)
			if err != nil {
				return err
			}
			cliutil.PrintTools(cmd.OutOrStdout(), list.Tools)
			return nil
		},
	}
}

func newUsersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users and their roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.connect()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.SecondShort)
			defer cancel()
			list, err := client.Users(ctx)
			if err != nil {
				return err
			}
			cliutil.PrintUsers(cmd.OutOrStdout(), list.Users)
			return nil
		},
	}
}

func newPermsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "perms <role>",
		Short: "List a role's permissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.connect()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.SecondShort)
			defer cancel()
			list, err := client.Permissions(ctx, args[0])
			if err != nil {
				return err
			}
			cliutil.PrintPermissions(cmd.OutOrStdout(), list.Role, list.Permissions)
			return nil
		},
	}
}

func newDocsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.connect()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.SecondShort)
			defer cancel()
			list, err := client.Documents(ctx)
			if err != nil {
				return err
			}
			cliutil.PrintDocuments(cmd.OutOrStdout(), list.Documents)
			return nil
		},
	}
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "render <id>",
		Short: "Render a document's markdown as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.connect()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.SecondShort)
			defer cancel()
			html, err := client.DocumentHTML(ctx, user, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), html)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "User to read as")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
