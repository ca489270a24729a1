package telegram

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/dispatch/fsm"
	"github.com/televi1/televi/internal/domain"
)

// The new-content wizard collects messages, then must-join chats, then a
// name, and builds the bundle from what was collected.

func (h *Handlers) wizardStart(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if err := ev.State.Clear(ctx); err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardStart: clear state")
	}
	if err := ev.State.SetState(ctx, StateNewContentMessages); err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardStart")
	}
	if err := ev.Send(ctx, domain.SendText(ev.ChatID(), textSendMessages).WithMarkup(cancelKeyboard)); err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardStart")
	}
	return domain.AnswerCallback(ev.Callback().ID, ""), nil
}

func (h *Handlers) wizardResetMessages(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if err := dropKey(ctx, ev, dataMessages); err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardResetMessages")
	}
	return domain.SendText(ev.ChatID(), textResetMessages).WithMarkup(cancelKeyboard), nil
}

func (h *Handlers) wizardEndMessages(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	data, err := ev.State.Data(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardEndMessages")
	}
	ids, _, err := fsm.Get[[]int64](data, dataMessages)
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardEndMessages")
	}
	if len(ids) == 0 {
		return domain.SendText(ev.ChatID(), textNothingAdded).WithMarkup(cancelKeyboard), nil
	}

	if err := ev.State.SetState(ctx, StateNewContentMustJoin); err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardEndMessages")
	}
	return domain.SendText(ev.ChatID(), textChooseMustJoins).WithMarkup(mustJoinKeyboard), nil
}

func (h *Handlers) wizardCapture(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	msg := ev.Message()
	captured, err := h.content.CaptureMessage(ctx, ev.Bot, msg, ev.Account)
	if errors.Is(err, domain.ErrUnsupportedContent) {
		return domain.SendText(ev.ChatID(), textUnsupported).ReplyTo(msg.MessageID), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardCapture")
	}

	var count int
	_, err = ev.State.UpdateData(ctx, func(d fsm.Data) error {
		ids, _, err := fsm.Get[[]int64](d, dataMessages)
		if err != nil {
			return err
		}
		if !slices.Contains(ids, captured.ID) {
			ids = append(ids, captured.ID)
		}
		count = len(ids)
		return fsm.Put(d, dataMessages, ids)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardCapture: update data")
	}
	return domain.SendText(ev.ChatID(), textKeepAdding(count)).ReplyTo(msg.MessageID).WithMarkup(collectKeyboard), nil
}

func (h *Handlers) wizardResetMustJoins(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if err := dropKey(ctx, ev, dataMustJoins); err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardResetMustJoins")
	}
	return domain.SendText(ev.ChatID(), textResetMustJoins).WithMarkup(mustJoinKeyboard), nil
}

func (h *Handlers) wizardMustJoin(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	shared := ev.Message().ChatShared
	join := domain.MustJoin{ChatID: shared.ChatID, IsChannel: shared.RequestID == RequestChannel}

	var count int
	_, err := ev.State.UpdateData(ctx, func(d fsm.Data) error {
		joins, _, err := fsm.Get[[]domain.MustJoin](d, dataMustJoins)
		if err != nil {
			return err
		}
		joins = append(joins, join)
		count = len(joins)
		return fsm.Put(d, dataMustJoins, joins)
	})
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardMustJoin")
	}
	return domain.SendText(ev.ChatID(), textMustJoinAdded(count)).WithMarkup(mustJoinKeyboard), nil
}

func (h *Handlers) wizardEndMustJoins(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if err := ev.State.SetState(ctx, StateNewContentName); err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardEndMustJoins")
	}
	return domain.SendText(ev.ChatID(), textEnterName).WithMarkup(cancelKeyboard), nil
}

func (h *Handlers) wizardName(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "Telegram.Handler.WizardName")
	defer span.End()

	name := strings.TrimSpace(ev.Message().Text)
	if name == "" {
		return domain.SendText(ev.ChatID(), textEnterName).WithMarkup(cancelKeyboard), nil
	}

	data, err := ev.State.Data(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardName")
	}
	ids, _, err := fsm.Get[[]int64](data, dataMessages)
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardName")
	}
	joins, _, err := fsm.Get[[]domain.MustJoin](data, dataMustJoins)
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardName")
	}

	bundle, link, err := h.content.BuildBundle(ctx, ev.Bot, *ev.Account, name, ids, joins)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "Handlers.wizardName")
	}
	if err := ev.State.Clear(ctx); err != nil {
		return nil, errors.Wrap(err, "Handlers.wizardName: clear state")
	}

	url, err := shareURL(ev.Bot, link)
	if err != nil {
		ev.Logger.WarnContext(ctx, "failed to encode share link",
			slog.Int64("bundle", bundle.ID),
			slog.String("error", err.Error()),
			slog.String("module", "telegram"),
		)
		url = ""
	}
	return domain.SendText(ev.ChatID(), textContentAdded(bundle.Name, len(ids), url)).WithMarkup(removeKeyboard), nil
}

func dropKey(ctx context.Context, ev *dispatch.Event, key string) error {
	_, err := ev.State.UpdateData(ctx, func(d fsm.Data) error {
		delete(d, key)
		return nil
	})
	return err
}
