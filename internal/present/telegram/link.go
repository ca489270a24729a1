package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/domain"
)

// bundleLink replays the bundle behind a share link to whoever opened it.
func (h *Handlers) bundleLink(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "Telegram.Handler.BundleLink")
	defer span.End()

	params, _ := dispatch.Value[map[string]string](ev, dispatch.LinkParamsKey)
	from := ev.From()
	if from == nil {
		return nil, nil
	}

	result, err := h.content.Replay(ctx, ev.Bot, params[dispatch.BundleKeyParam], ev.ChatID(), ev.Account, from.ID)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "Handlers.bundleLink")
	}
	if !result.Found || len(result.Missing) == 0 {
		return nil, nil
	}

	ev.Logger.DebugContext(ctx, "requester must join chats first",
		slog.Int64("bundle", result.Bundle.ID),
		slog.Int("missing", len(result.Missing)),
		slog.String("module", "telegram"),
	)
	var b strings.Builder
	b.WriteString(textJoinFirst)
	for _, c := range result.Missing {
		b.WriteString("\n")
		switch {
		case c.Username != "":
			b.WriteString("@" + c.Username)
		case c.Title != "":
			b.WriteString(c.Title)
		}
	}
	return domain.SendText(ev.ChatID(), b.String()).WithMarkup(joinKeyboard(result.Missing)), nil
}
