package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "televi",
		Short:        "Multi-bot content distribution over Telegram webhooks",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "config.yaml", "Config file path.")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newPollCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newMasterCmd())
	cmd.AddCommand(newWebhookCmd())

	return cmd
}
