package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/televi1/televi/internal/infra/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			return database.MigratePostgres(a.db)
		},
	}
}

func newMasterCmd() *cobra.Command {
	var token, staff string
	cmd := &cobra.Command{
		Use:   "master",
		Short: "Register the master bot and its staff owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			bot, err := a.bots.RegisterMaster(cmd.Context(), token, staff)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "master %s registered, webhook %s\n", bot, a.bots.WebhookURL(bot))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Bot API token of the master bot.")
	cmd.Flags().StringVar(&staff, "staff", "", "Username of the staff owner (generated when empty).")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func newWebhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage platform webhooks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Point every active bot at its webhook URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			n, err := a.bots.SyncAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "%d webhooks synced\n", n)
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show what the platform reports for every active bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())

			bots, err := a.bots.ListActive(cmd.Context(), 0)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, bot := range bots {
				info, err := a.bots.WebhookStatus(cmd.Context(), bot)
				if err != nil {
					fmt.Fprintf(out, "%s\terror: %v\n", bot, err)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\tpending=%d\t%s\n", bot, info.URL, info.PendingUpdateCount, info.LastErrorMessage)
			}
			return nil
		},
	})
	return cmd
}
