package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Deliver owner notifications from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			if a.amqp == nil {
				return errors.New("worker needs queue.url; without it notifications are delivered by serve")
			}
			return a.amqp.Consume(ctx, a.config.Queue.Workers, a.notifications)
		},
	}
}
