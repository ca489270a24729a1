package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/dispatch/fsm"
	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/present/telegram"
)

const (
	maxPolledBots = 10
	pollTimeout   = 10 * time.Second
	pollBackoff   = 3 * time.Second
)

func newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Detach webhooks and long-poll updates (development)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))

			bots, err := a.bots.ListActive(ctx, maxPolledBots)
			if err != nil {
				return err
			}
			router := telegram.NewRouter(fsm.NewMemoryStorage(), a.handlers())

			g, ctx := errgroup.WithContext(ctx)
			for _, bot := range bots {
				if err := a.bots.DetachWebhook(ctx, bot); err != nil {
					a.logger.ErrorContext(ctx, "skipping bot", slog.String("bot", bot.String()), slog.String("error", err.Error()), slog.String("module", "poll"))
					continue
				}
				a.logger.InfoContext(ctx, "polling", slog.String("bot", bot.String()), slog.String("module", "poll"))
				bot := bot
				g.Go(func() error {
					a.poll(ctx, router, bot)
					return nil
				})
			}
			return g.Wait()
		},
	}
}

func (a *app) poll(ctx context.Context, router *dispatch.Router, bot domain.Bot) {
	api := a.gateway.Bot(bot.Token)
	var offset int64
	for ctx.Err() == nil {
		updates, next, err := api.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.logger.ErrorContext(ctx, "getUpdates failed", slog.String("bot", bot.String()), slog.String("error", err.Error()), slog.String("module", "poll"))
			select {
			case <-ctx.Done():
			case <-time.After(pollBackoff):
			}
			continue
		}
		offset = next

		for i := range updates {
			call, err := router.Dispatch(ctx, bot, api, &updates[i])
			if err == nil && call != nil {
				err = api.Do(ctx, call)
			}
			if err != nil {
				a.logger.ErrorContext(ctx, "update failed",
					slog.String("bot", bot.String()),
					slog.Int64("update", updates[i].UpdateID),
					slog.String("error", err.Error()),
					slog.String("module", "poll"),
				)
			}
		}
	}
}
