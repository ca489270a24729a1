package domain

import "time"

// FileKind discriminates the File union.
type FileKind string

const (
	FileKindAudio     FileKind = "audio"
	FileKindDocument  FileKind = "document"
	FileKindPhoto     FileKind = "photo"
	FileKindVideo     FileKind = "video"
	FileKindVoice     FileKind = "voice"
	FileKindThumbnail FileKind = "thumbnail"
)

// File is a platform file reference. Shared fields are always set, the rest
// depend on Kind.
type File struct {
	ID           int64    `json:"id"`
	Kind         FileKind `json:"kind"`
	BotID        int64    `json:"botID"`
	FileID       string   `json:"fileID"`
	FileUniqueID string   `json:"fileUniqueID"`
	FileSize     int64    `json:"fileSize,omitempty"`
	Width        int      `json:"width,omitempty"`
	Height       int      `json:"height,omitempty"`
	Duration     int      `json:"duration,omitempty"`
	Performer    string   `json:"performer,omitempty"`
	Title        string   `json:"title,omitempty"`
	FileName     string   `json:"fileName,omitempty"`
	MimeType     string   `json:"mimeType,omitempty"`
	Thumbnail    *File    `json:"thumbnail,omitempty"`
}

// MessageEntity is a captured rich-text span on either the body or the caption.
type MessageEntity struct {
	OnCaption bool   `json:"onCaption"`
	Order     int    `json:"order"`
	Type      string `json:"type"`
	Offset    int    `json:"offset"`
	Length    int    `json:"length"`
	URL       string `json:"url,omitempty"`
	Language  string `json:"language,omitempty"`
}

// CapturedMessage is one immutable message captured from a chat.
type CapturedMessage struct {
	ID           int64           `json:"id"`
	BotID        int64           `json:"botID"`
	ChatID       int64           `json:"chatID"`
	PlatformID   int64           `json:"platformID"`
	SentByID     *int64          `json:"sentByID,omitempty"`
	ContentType  ContentType     `json:"contentType"`
	Text         string          `json:"text,omitempty"`
	Caption      string          `json:"caption,omitempty"`
	MediaGroupID string          `json:"mediaGroupID,omitempty"`
	Entities     []MessageEntity `json:"entities,omitempty"`
	// File holds the audio, document, video or voice payload.
	File *File `json:"file,omitempty"`
	// Photos holds every size of a photo message.
	Photos []File    `json:"photos,omitempty"`
	CDate  time.Time `json:"cdate"`
}

// BodyEntities returns the spans attached to the text or caption.
func (m CapturedMessage) BodyEntities(onCaption bool) []MessageEntity {
	var out []MessageEntity
	for _, e := range m.Entities {
		if e.OnCaption == onCaption {
			out = append(out, e)
		}
	}
	return out
}

// LargestPhoto returns the biggest stored size by file size.
func (m CapturedMessage) LargestPhoto() (File, bool) {
	if len(m.Photos) == 0 {
		return File{}, false
	}
	best := m.Photos[0]
	for _, p := range m.Photos[1:] {
		if p.FileSize > best.FileSize || (p.FileSize == best.FileSize && p.Width*p.Height > best.Width*best.Height) {
			best = p
		}
	}
	return best, true
}

// MustJoin is a gating chat a requester has to be a member of.
type MustJoin struct {
	ChatID    int64 `json:"chat_id"`
	IsChannel bool  `json:"is_channel"`
}

// Bundle is a named, ordered collection of captured messages.
type Bundle struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	BotID       int64      `json:"botID"`
	CreatedByID int64      `json:"createdByID"`
	MessageIDs  []int64    `json:"messageIDs,omitempty"`
	MustJoins   []MustJoin `json:"mustJoins,omitempty"`
	CDate       time.Time  `json:"cdate"`
}

// ShareLink maps an opaque query id to a bundle.
type ShareLink struct {
	ID       int64     `json:"id"`
	QueryID  string    `json:"queryID"`
	BundleID int64     `json:"bundleID"`
	Bundle   *Bundle   `json:"bundle,omitempty"`
	CDate    time.Time `json:"cdate"`
}

// Membership is the last known status of either a bot or an account in a chat.
type Membership struct {
	ChatID    int64     `json:"chatID"`
	BotID     *int64    `json:"botID,omitempty"`
	AccountID *int64    `json:"accountID,omitempty"`
	Status    string    `json:"status"`
	MDate     time.Time `json:"mdate"`
}
