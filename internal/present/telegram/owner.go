package telegram

import (
	"context"

	"github.com/pkg/errors"

	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/domain"
)

func (h *Handlers) ownerMenu(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	if err := ev.State.Clear(ctx); err != nil {
		return nil, errors.Wrap(err, "Handlers.ownerMenu: clear state")
	}
	if ev.Message().Text == LabelCancel {
		if err := ev.Send(ctx, domain.SendText(ev.ChatID(), textCancelled).WithMarkup(removeKeyboard)); err != nil {
			return nil, errors.Wrap(err, "Handlers.ownerMenu")
		}
	}
	return domain.SendText(ev.ChatID(), textOwnerMenu).WithMarkup(ownerMenu()), nil
}

func (h *Handlers) ownerContentList(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	bundles, err := h.content.ListBundles(ctx, ev.Bot, *ev.Account)
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.ownerContentList")
	}
	if len(bundles) == 0 {
		empty := inline([]domain.InlineButton{button(labelNewContent, &SimpleButton{Name: ButtonNewContent})})
		return replaceMessage(ctx, ev, textNoContent, empty)
	}
	return replaceMessage(ctx, ev, textContentList, contentListKeyboard(bundles))
}

func (h *Handlers) ownerContentAction(ctx context.Context, ev *dispatch.Event) (*domain.Call, error) {
	action, _ := dispatch.Value[*ContentAction](ev, dispatch.CallbackKey)
	if action == nil {
		return nil, nil
	}

	bundle, err := h.content.GetBundle(ctx, ev.Bot, *ev.Account, action.PK)
	if errors.Is(err, domain.ErrNotFound) {
		return notFound(ev), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Handlers.ownerContentAction")
	}

	switch action.Action {
	case ContentGetLink:
		link, err := h.content.LatestLink(ctx, bundle)
		if err != nil {
			return nil, errors.Wrap(err, "Handlers.ownerContentAction: link")
		}
		url, err := shareURL(ev.Bot, link)
		if err != nil {
			return nil, errors.Wrap(err, "Handlers.ownerContentAction")
		}
		if err := ev.Send(ctx, domain.SendText(ev.ChatID(), url)); err != nil {
			return nil, errors.Wrap(err, "Handlers.ownerContentAction")
		}
		return domain.AnswerCallback(ev.Callback().ID, ""), nil
	default:
		return replaceMessage(ctx, ev, textBundleDetail(bundle.Name, len(bundle.MessageIDs)), contentDetailKeyboard(bundle))
	}
}

// shareURL is the public deep link replaying link through bot.
func shareURL(bot domain.Bot, link domain.ShareLink) (string, error) {
	payload, err := dispatch.EncodeLink(dispatch.LinkBundle, map[string]string{dispatch.BundleKeyParam: link.QueryID})
	if err != nil {
		return "", err
	}
	return dispatch.StartLink(bot.Username, payload), nil
}
