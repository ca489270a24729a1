package telegram

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/domain"
)

func (h *Handlers) masterMenu(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if ev.Account == nil {
		return nil, nil
	}
	if err := ev.State.Clear(ctx); err != nil {
		return nil, errors.Wrap(err, "Handlers.masterMenu: clear state")
	}
	bots, err := h.bots.ListOwned(ctx, *ev.Account)
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.masterMenu")
	}
	if ev.Message().Text == LabelCancel {
		if err := ev.Send(ctx, domain.SendText(ev.ChatID(), textCancelled).WithMarkup(removeKeyboard)); err != nil {
			return nil, errors.Wrap(err, "Handlers.masterMenu")
		}
	}
	return domain.SendText(ev.ChatID(), textMasterMenu).WithMarkup(masterMenu(len(bots) > 0)), nil
}

func (h *Handlers) masterRegister(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if err := ev.State.SetState(ctx, StateNewBotToken); err != nil {
		return nil, errors.Wrap(err, "Handlers.masterRegister")
	}
	if err := ev.Send(ctx, domain.SendText(ev.ChatID(), textSendToken).WithMarkup(cancelKeyboard)); err != nil {
		return nil, errors.Wrap(err, "Handlers.masterRegister")
	}
	return domain.AnswerCallback(ev.Callback().ID, ""), nil
}

func (h *Handlers) masterToken(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	ctx, span := tracer.Start(ctx, "Telegram.Handler.MasterToken")
	defer span.End()

	if ev.Account == nil {
		return nil, nil
	}
	msg := ev.Message()
	outcome, err := h.bots.Register(ctx, strings.TrimSpace(msg.Text), ev.Bot, *ev.Account)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "Handlers.masterToken")
	}

	reply := func(text string, markup domain.Markup) *domain.Call {
		return domain.SendText(ev.ChatID(), text).ReplyTo(msg.MessageID).WithMarkup(markup)
	}
	switch outcome.Result {
	case domain.RegisterNotAToken:
		return reply(textNotAToken, cancelKeyboard), nil
	case domain.RegisterRevokedToken:
		return reply(textRevokedToken, cancelKeyboard), nil
	case domain.RegisterRevokeRequired:
		return reply(textRevokeOther, cancelKeyboard), nil
	}

	if err := ev.State.Clear(ctx); err != nil {
		return nil, errors.Wrap(err, "Handlers.masterToken: clear state")
	}
	text := textAlreadyAdded
	if outcome.Result == domain.RegisterDone {
		text = textBotCreated(outcome.Bot.Username)
		ev.Logger.InfoContext(ctx, "bot registered through master",
			slog.String("registered", outcome.Bot.String()),
			slog.String("module", "telegram"),
		)
	}
	if outcome.Revoked > 0 {
		text += "\n" + textRevokedCount(outcome.Revoked)
	}
	return reply(text, removeKeyboard), nil
}

func (h *Handlers) masterBotList(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if ev.Account == nil {
		return nil, nil
	}
	bots, err := h.bots.ListOwned(ctx, *ev.Account)
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.masterBotList")
	}
	if len(bots) == 0 {
		return replaceMessage(ctx, ev, textNoBots, masterMenu(false))
	}
	return replaceMessage(ctx, ev, textBotList, botListKeyboard(bots))
}

func (h *Handlers) masterBotAction(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	action, _ := dispatch.Value[*BotAction](ev, dispatch.CallbackKey)
	if ev.Account == nil || action == nil {
		return nil, nil
	}

	bot, err := h.bots.GetOwned(ctx, *ev.Account, action.PK)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(ev), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.masterBotAction")
	}

	answer := ""
	if action.Action != BotGet {
		on := action.Action == BotPowerOn
		var result domain.ChangePowerResult
		result, bot, err = h.bots.ChangePower(ctx, bot, on)
		if err != nil {
			return nil, errors.Wrap(err, "Handlers.masterBotAction")
		}
		answer = textPowerChanged(bot.Username, on)
		if result == domain.ChangePowerAlreadyThere {
			answer = textPowerAlready(bot.Username, on)
		}
	}

	if _, err := replaceMessage(ctx, ev, textBotDetail(bot.Username, bot.IsPoweredOff), botDetailKeyboard(bot)); err != nil {
		return nil, err
	}
	return domain.AnswerCallback(ev.Callback().ID, answer), nil
}
