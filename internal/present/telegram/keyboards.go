package telegram

import (
	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/domain"
)

func replyKeyboard(rows ...[]domain.KeyboardButton) domain.ReplyKeyboard {
	return domain.ReplyKeyboard{Keyboard: rows, ResizeKeyboard: true}
}

func labels(texts ...string) []domain.KeyboardButton {
	row := make([]domain.KeyboardButton, len(texts))
	for i, t := range texts {
		row[i] = domain.KeyboardButton{Text: t}
	}
	return row
}

func button(text string, cd dispatch.CallbackData) domain.InlineButton {
	return domain.InlineButton{Text: text, CallbackData: dispatch.MustPackCallback(cd)}
}

func inline(rows ...[]domain.InlineButton) domain.InlineKeyboard {
	if rows == nil {
		rows = [][]domain.InlineButton{}
	}
	return domain.InlineKeyboard{InlineKeyboard: rows}
}

var (
	cancelKeyboard   = replyKeyboard(labels(LabelCancel))
	collectKeyboard  = replyKeyboard(labels(LabelCancel, LabelReset, LabelEnd))
	removeKeyboard   = domain.RemoveKeyboard{RemoveKeyboard: true}
	mustJoinKeyboard = replyKeyboard(
		[]domain.KeyboardButton{
			{Text: LabelChooseChannel, RequestChat: &domain.RequestChat{RequestID: RequestChannel, ChatIsChannel: true, BotIsMember: true}},
			{Text: LabelChooseGroup, RequestChat: &domain.RequestChat{RequestID: RequestGroup, ChatIsChannel: false, BotIsMember: true}},
		},
		labels(LabelCancel, LabelEnd),
	)
)

func masterMenu(hasBots bool) domain.InlineKeyboard {
	rows := [][]domain.InlineButton{
		{button(labelRegisterBot, &SimpleButton{Name: ButtonRegisterBot})},
	}
	if hasBots {
		rows = append(rows, []domain.InlineButton{button(labelBotList, &SimpleButton{Name: ButtonBotList})})
	}
	return inline(rows...)
}

func ownerMenu() domain.InlineKeyboard {
	return inline(
		[]domain.InlineButton{button(labelNewContent, &SimpleButton{Name: ButtonNewContent})},
		[]domain.InlineButton{button(labelContentList, &SimpleButton{Name: ButtonContentList})},
	)
}

func botListKeyboard(bots []domain.Bot) domain.InlineKeyboard {
	rows := make([][]domain.InlineButton, 0, len(bots))
	for _, b := range bots {
		rows = append(rows, []domain.InlineButton{button("@"+b.Username, &BotAction{PK: b.ID, Action: BotGet})})
	}
	return inline(rows...)
}

func botDetailKeyboard(bot domain.Bot) domain.InlineKeyboard {
	toggle := button(labelTurnOff, &BotAction{PK: bot.ID, Action: BotPowerOff})
	if bot.IsPoweredOff {
		toggle = button(labelTurnOn, &BotAction{PK: bot.ID, Action: BotPowerOn})
	}
	return inline(
		[]domain.InlineButton{toggle},
		[]domain.InlineButton{button(labelBotList, &SimpleButton{Name: ButtonBotList})},
	)
}

func contentListKeyboard(bundles []domain.Bundle) domain.InlineKeyboard {
	rows := make([][]domain.InlineButton, 0, len(bundles))
	for _, b := range bundles {
		rows = append(rows, []domain.InlineButton{button(b.Name, &ContentAction{PK: b.ID, Action: ContentGet})})
	}
	return inline(rows...)
}

func contentDetailKeyboard(bundle domain.Bundle) domain.InlineKeyboard {
	return inline(
		[]domain.InlineButton{button(labelGetLink, &ContentAction{PK: bundle.ID, Action: ContentGetLink})},
		[]domain.InlineButton{button(labelContentList, &SimpleButton{Name: ButtonContentList})},
	)
}

// joinKeyboard links the chats that expose a public username.
func joinKeyboard(chats []domain.Chat) domain.InlineKeyboard {
	var rows [][]domain.InlineButton
	for _, c := range chats {
		if c.Username == "" {
			continue
		}
		title := c.Title
		if title == "" {
			title = "@" + c.Username
		}
		rows = append(rows, []domain.InlineButton{{Text: title, URL: "https://t.me/" + c.Username}})
	}
	return inline(rows...)
}
