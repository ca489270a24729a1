package domain

import "strings"

// Update is the normalized inbound envelope delivered by the bot platform.
// Only the union members the dispatcher understands are decoded.
type Update struct {
	UpdateID      int64              `json:"update_id"`
	Message       *Message           `json:"message,omitempty"`
	EditedMessage *Message           `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery     `json:"callback_query,omitempty"`
	MyChatMember  *ChatMemberUpdated `json:"my_chat_member,omitempty"`
}

// Sender is a platform account as seen in updates.
type Sender struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

const (
	ChatTypePrivate    = "private"
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
	ChatTypeChannel    = "channel"
)

type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

type Message struct {
	MessageID       int64            `json:"message_id"`
	From            *Sender          `json:"from,omitempty"`
	Chat            Chat             `json:"chat"`
	Date            int64            `json:"date,omitempty"`
	MediaGroupID    string           `json:"media_group_id,omitempty"`
	Text            string           `json:"text,omitempty"`
	Entities        []Entity         `json:"entities,omitempty"`
	Caption         string           `json:"caption,omitempty"`
	CaptionEntities []Entity         `json:"caption_entities,omitempty"`
	Audio           *FileAttachment  `json:"audio,omitempty"`
	Document        *FileAttachment  `json:"document,omitempty"`
	Photo           []FileAttachment `json:"photo,omitempty"`
	Video           *FileAttachment  `json:"video,omitempty"`
	Voice           *FileAttachment  `json:"voice,omitempty"`
	ChatShared      *ChatShared      `json:"chat_shared,omitempty"`
}

// Entity is a rich-text span. Offsets and lengths are in UTF-16 code units.
type Entity struct {
	Type     string `json:"type"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	URL      string `json:"url,omitempty"`
	Language string `json:"language,omitempty"`
}

// FileAttachment covers the common shape of audio, document, photo size,
// video and voice payloads.
type FileAttachment struct {
	FileID       string          `json:"file_id"`
	FileUniqueID string          `json:"file_unique_id"`
	FileSize     int64           `json:"file_size,omitempty"`
	Width        int             `json:"width,omitempty"`
	Height       int             `json:"height,omitempty"`
	Duration     int             `json:"duration,omitempty"`
	Performer    string          `json:"performer,omitempty"`
	Title        string          `json:"title,omitempty"`
	FileName     string          `json:"file_name,omitempty"`
	MimeType     string          `json:"mime_type,omitempty"`
	Thumbnail    *FileAttachment `json:"thumbnail,omitempty"`
}

type ChatShared struct {
	RequestID int64 `json:"request_id"`
	ChatID    int64 `json:"chat_id"`
}

type CallbackQuery struct {
	ID      string   `json:"id"`
	From    Sender   `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

type ChatMember struct {
	Status string  `json:"status"`
	User   *Sender `json:"user,omitempty"`
}

const (
	MemberStatusCreator       = "creator"
	MemberStatusAdministrator = "administrator"
	MemberStatusMember        = "member"
	MemberStatusRestricted    = "restricted"
	MemberStatusLeft          = "left"
	MemberStatusKicked        = "kicked"
)

// IsPresent reports whether the status counts as being inside the chat.
func (m ChatMember) IsPresent() bool {
	switch m.Status {
	case MemberStatusCreator, MemberStatusAdministrator, MemberStatusMember, MemberStatusRestricted:
		return true
	}
	return false
}

type ChatMemberUpdated struct {
	Chat          Chat       `json:"chat"`
	From          Sender     `json:"from"`
	Date          int64      `json:"date"`
	OldChatMember ChatMember `json:"old_chat_member"`
	NewChatMember ChatMember `json:"new_chat_member"`
}

type WebhookInfo struct {
	URL                string `json:"url"`
	PendingUpdateCount int    `json:"pending_update_count"`
	LastErrorDate      int64  `json:"last_error_date,omitempty"`
	LastErrorMessage   string `json:"last_error_message,omitempty"`
}

type ContentType string

const (
	ContentTypeText       ContentType = "text"
	ContentTypeAudio      ContentType = "audio"
	ContentTypeDocument   ContentType = "document"
	ContentTypePhoto      ContentType = "photo"
	ContentTypeVideo      ContentType = "video"
	ContentTypeVoice      ContentType = "voice"
	ContentTypeChatShared ContentType = "chat_shared"
	ContentTypeUnknown    ContentType = "unknown"
)

// ContentType derives the message kind the same way the platform documents it:
// the first populated payload wins.
func (m *Message) ContentType() ContentType {
	switch {
	case m == nil:
		return ContentTypeUnknown
	case m.Text != "":
		return ContentTypeText
	case m.Audio != nil:
		return ContentTypeAudio
	case m.Document != nil:
		return ContentTypeDocument
	case len(m.Photo) > 0:
		return ContentTypePhoto
	case m.Video != nil:
		return ContentTypeVideo
	case m.Voice != nil:
		return ContentTypeVoice
	case m.ChatShared != nil:
		return ContentTypeChatShared
	}
	return ContentTypeUnknown
}

// Command splits "/name@bot args" into its name and argument string.
// ok is false when the text is not a command.
func (m *Message) Command() (name, args string, ok bool) {
	if m == nil || !strings.HasPrefix(m.Text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(m.Text, " ")
	head = strings.TrimPrefix(head, "/")
	if at := strings.IndexByte(head, '@'); at >= 0 {
		head = head[:at]
	}
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

// Sender returns the user who triggered the update, if any.
func (u *Update) Sender() *Sender {
	switch {
	case u.Message != nil:
		return u.Message.From
	case u.EditedMessage != nil:
		return u.EditedMessage.From
	case u.CallbackQuery != nil:
		return &u.CallbackQuery.From
	case u.MyChatMember != nil:
		return &u.MyChatMember.From
	}
	return nil
}

// EventChat returns the chat the update happened in, if any.
func (u *Update) EventChat() *Chat {
	switch {
	case u.Message != nil:
		return &u.Message.Chat
	case u.EditedMessage != nil:
		return &u.EditedMessage.Chat
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		return &u.CallbackQuery.Message.Chat
	case u.MyChatMember != nil:
		return &u.MyChatMember.Chat
	}
	return nil
}
