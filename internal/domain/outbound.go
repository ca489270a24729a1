package domain

import (
	"github.com/televi1/televi/internal/utils"
)

// Method names an outbound platform call.
type Method string

const (
	MethodSendMessage         Method = "sendMessage"
	MethodSendPhoto           Method = "sendPhoto"
	MethodSendVideo           Method = "sendVideo"
	MethodSendDocument        Method = "sendDocument"
	MethodSendAudio           Method = "sendAudio"
	MethodSendVoice           Method = "sendVoice"
	MethodSendMediaGroup      Method = "sendMediaGroup"
	MethodEditMessageText     Method = "editMessageText"
	MethodAnswerCallbackQuery Method = "answerCallbackQuery"
)

// fileParam is the parameter carrying the file id for single-file sends.
var fileParam = map[Method]string{
	MethodSendPhoto:    "photo",
	MethodSendVideo:    "video",
	MethodSendDocument: "document",
	MethodSendAudio:    "audio",
	MethodSendVoice:    "voice",
}

// Call is a not-yet-sent outbound platform call. It can be executed through
// a client or written into a webhook response body.
type Call struct {
	Method           Method
	ChatID           int64
	MessageID        int64
	CallbackQueryID  string
	Text             string
	Entities         []Entity
	FileID           string
	Caption          string
	CaptionEntities  []Entity
	Media            []InputMedia
	ReplyToMessageID int64
	ShowAlert        bool
	Markup           Markup
}

// InputMedia is one item of a media group.
type InputMedia struct {
	Type            string   `json:"type"`
	Media           string   `json:"media"`
	Caption         string   `json:"caption,omitempty"`
	CaptionEntities []Entity `json:"caption_entities,omitempty"`
}

// Markup is a reply markup variant.
type Markup interface {
	markup()
}

type InlineKeyboard struct {
	InlineKeyboard [][]InlineButton `json:"inline_keyboard"`
}

type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type ReplyKeyboard struct {
	Keyboard       [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard bool               `json:"resize_keyboard,omitempty"`
}

type KeyboardButton struct {
	Text        string       `json:"text"`
	RequestChat *RequestChat `json:"request_chat,omitempty"`
}

type RequestChat struct {
	RequestID     int64 `json:"request_id"`
	ChatIsChannel bool  `json:"chat_is_channel"`
	BotIsMember   bool  `json:"bot_is_member,omitempty"`
}

type RemoveKeyboard struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

func (InlineKeyboard) markup() {}
func (ReplyKeyboard) markup()  {}
func (RemoveKeyboard) markup() {}

// SendText builds a sendMessage call.
func SendText(chatID int64, text string) *Call {
	return &Call{Method: MethodSendMessage, ChatID: chatID, Text: text}
}

// EditText builds an editMessageText call for an existing message.
func EditText(chatID, messageID int64, text string) *Call {
	return &Call{Method: MethodEditMessageText, ChatID: chatID, MessageID: messageID, Text: text}
}

// AnswerCallback builds an answerCallbackQuery call.
func AnswerCallback(queryID, text string) *Call {
	return &Call{Method: MethodAnswerCallbackQuery, CallbackQueryID: queryID, Text: text}
}

func (c *Call) WithMarkup(m Markup) *Call {
	c.Markup = m
	return c
}

func (c *Call) ReplyTo(messageID int64) *Call {
	c.ReplyToMessageID = messageID
	return c
}

// Params flattens the call into its wire parameters, omitting empty values.
// Keys keep a fixed order so the encoded body is stable.
func (c *Call) Params() utils.OrderedKVMap[any] {
	params := utils.OrderedKVMap[any]{}
	put := func(key string, value any, present bool) {
		if present {
			params.Set(key, value)
		}
	}

	put("chat_id", c.ChatID, c.ChatID != 0)
	put("message_id", c.MessageID, c.MessageID != 0)
	put("callback_query_id", c.CallbackQueryID, c.CallbackQueryID != "")
	put("text", c.Text, c.Text != "")
	put("entities", c.Entities, len(c.Entities) > 0)
	if name, ok := fileParam[c.Method]; ok {
		put(name, c.FileID, c.FileID != "")
	}
	put("caption", c.Caption, c.Caption != "")
	put("caption_entities", c.CaptionEntities, len(c.CaptionEntities) > 0)
	put("media", c.Media, len(c.Media) > 0)
	put("reply_to_message_id", c.ReplyToMessageID, c.ReplyToMessageID != 0)
	put("show_alert", c.ShowAlert, c.ShowAlert)
	put("reply_markup", c.Markup, c.Markup != nil)

	return params
}

// WebhookReply is the call in the shape the platform accepts as a webhook
// response: the method name followed by the flattened parameters.
func (c *Call) WebhookReply() utils.OrderedKVMap[any] {
	body := c.Params()
	body["method"] = utils.OrderedKV[any]{Value: string(c.Method), Order: 0}
	return body
}
