package telegram

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/domain"
)

// Authentication resolves the chat user behind the sender. Lookup failures
// leave the event anonymous.
func (h *Handlers) Authentication(ctx context.Context, ev *dispatch.Event, next dispatch.Next) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "Telegram.Middleware.Authentication")
	defer span.End()

	account, err := h.accounts.Resolve(ctx, ev.Bot, ev.From(), ev.Update.EventChat())
	if err != nil {
		span.RecordError(err)
		ev.Logger.ErrorContext(ctx, "failed to resolve chat user",
			slog.String("error", err.Error()),
			slog.String("module", "telegram"),
		)
	}
	ev.Account = account
	return next(ctx, ev)
}

// PowerGate stops every update to a powered-off bot. Its owner is told how to
// turn it back on.
func (h *Handlers) PowerGate(ctx context.Context, ev *dispatch.Event, next dispatch.Next) (*domain.Call, error) {
	if !ev.Bot.IsPoweredOff {
		return next(ctx, ev)
	}

	from := ev.From()
	owner := ev.Bot.Owner
	if from == nil || owner == nil || !owner.Is(from.ID) {
		ev.Logger.DebugContext(ctx, "update dropped: bot is powered off", slog.String("module", "telegram"))
		return nil, nil
	}

	parent := ev.Bot.RegisteredFrom
	if parent == nil {
		ev.Logger.WarnContext(ctx, "powered-off bot has no parent", slog.String("module", "telegram"))
		return nil, nil
	}
	if err := ev.Send(ctx, domain.SendText(ev.ChatID(), textPoweredOff(parent.Username))); err != nil {
		return nil, errors.Wrap(err, "Handlers.PowerGate")
	}
	return nil, nil
}
