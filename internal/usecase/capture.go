package usecase

import (
	"github.com/televi1/televi/internal/domain"
)

// captureFromWire converts a platform message into its stored form.
func captureFromWire(bot domain.Bot, msg *domain.Message, sentBy *domain.Account) (domain.CapturedMessage, error) {
	captured := domain.CapturedMessage{
		BotID:        bot.ID,
		ChatID:       msg.Chat.ID,
		PlatformID:   msg.MessageID,
		ContentType:  msg.ContentType(),
		Text:         msg.Text,
		Caption:      msg.Caption,
		MediaGroupID: msg.MediaGroupID,
	}
	if sentBy != nil {
		id := sentBy.ID
		captured.SentByID = &id
	}

	switch captured.ContentType {
	case domain.ContentTypeText:
		captured.Caption = ""
		captured.Entities = captureEntities(msg.Entities, false)
		return captured, nil
	case domain.ContentTypePhoto:
		for _, size := range msg.Photo {
			captured.Photos = append(captured.Photos, fileFromWire(bot, domain.FileKindPhoto, size))
		}
	case domain.ContentTypeAudio:
		captured.File = filePtr(fileFromWire(bot, domain.FileKindAudio, *msg.Audio))
	case domain.ContentTypeDocument:
		captured.File = filePtr(fileFromWire(bot, domain.FileKindDocument, *msg.Document))
	case domain.ContentTypeVideo:
		captured.File = filePtr(fileFromWire(bot, domain.FileKindVideo, *msg.Video))
	case domain.ContentTypeVoice:
		captured.File = filePtr(fileFromWire(bot, domain.FileKindVoice, *msg.Voice))
	default:
		return domain.CapturedMessage{}, domain.ErrUnsupportedContent
	}

	captured.Text = ""
	captured.Entities = captureEntities(msg.CaptionEntities, true)
	return captured, nil
}

func captureEntities(entities []domain.Entity, onCaption bool) []domain.MessageEntity {
	out := make([]domain.MessageEntity, 0, len(entities))
	for i, e := range entities {
		out = append(out, domain.MessageEntity{
			OnCaption: onCaption,
			Order:     i,
			Type:      e.Type,
			Offset:    e.Offset,
			Length:    e.Length,
			URL:       e.URL,
			Language:  e.Language,
		})
	}
	return out
}

func fileFromWire(bot domain.Bot, kind domain.FileKind, f domain.FileAttachment) domain.File {
	file := domain.File{
		Kind:         kind,
		BotID:        bot.ID,
		FileID:       f.FileID,
		FileUniqueID: f.FileUniqueID,
		FileSize:     f.FileSize,
		Width:        f.Width,
		Height:       f.Height,
		Duration:     f.Duration,
		Performer:    f.Performer,
		Title:        f.Title,
		FileName:     f.FileName,
		MimeType:     f.MimeType,
	}
	if f.Thumbnail != nil {
		file.Thumbnail = filePtr(fileFromWire(bot, domain.FileKindThumbnail, *f.Thumbnail))
	}
	return file
}

func filePtr(f domain.File) *domain.File {
	return &f
}

func wireEntities(entities []domain.MessageEntity) []domain.Entity {
	if len(entities) == 0 {
		return nil
	}
	out := make([]domain.Entity, len(entities))
	for i, e := range entities {
		out[i] = domain.Entity{
			Type:     e.Type,
			Offset:   e.Offset,
			Length:   e.Length,
			URL:      e.URL,
			Language: e.Language,
		}
	}
	return out
}

var sendMethods = map[domain.ContentType]domain.Method{
	domain.ContentTypeAudio:    domain.MethodSendAudio,
	domain.ContentTypeDocument: domain.MethodSendDocument,
	domain.ContentTypeVideo:    domain.MethodSendVideo,
	domain.ContentTypeVoice:    domain.MethodSendVoice,
}

// ReplayCall translates a captured message into the call that re-sends it to chatID.
func ReplayCall(m domain.CapturedMessage, chatID int64) (*domain.Call, error) {
	switch m.ContentType {
	case domain.ContentTypeText:
		call := domain.SendText(chatID, m.Text)
		call.Entities = wireEntities(m.BodyEntities(false))
		return call, nil
	case domain.ContentTypePhoto:
		photo, ok := m.LargestPhoto()
		if !ok {
			return nil, domain.ErrUnsupportedContent
		}
		return &domain.Call{
			Method:          domain.MethodSendPhoto,
			ChatID:          chatID,
			FileID:          photo.FileID,
			Caption:         m.Caption,
			CaptionEntities: wireEntities(m.BodyEntities(true)),
		}, nil
	}

	method, ok := sendMethods[m.ContentType]
	if !ok || m.File == nil {
		return nil, domain.ErrUnsupportedContent
	}
	return &domain.Call{
		Method:          method,
		ChatID:          chatID,
		FileID:          m.File.FileID,
		Caption:         m.Caption,
		CaptionEntities: wireEntities(m.BodyEntities(true)),
	}, nil
}

// mediaGroupCall returns a single sendMediaGroup call when messages form
// exactly one album of photos and videos.
func mediaGroupCall(messages []domain.CapturedMessage, chatID int64) (*domain.Call, bool) {
	if len(messages) < 2 || len(messages) > 10 {
		return nil, false
	}
	group := messages[0].MediaGroupID
	if group == "" {
		return nil, false
	}

	media := make([]domain.InputMedia, 0, len(messages))
	for _, m := range messages {
		if m.MediaGroupID != group {
			return nil, false
		}
		item := domain.InputMedia{
			Caption:         m.Caption,
			CaptionEntities: wireEntities(m.BodyEntities(true)),
		}
		switch m.ContentType {
		case domain.ContentTypePhoto:
			photo, ok := m.LargestPhoto()
			if !ok {
				return nil, false
			}
			item.Type, item.Media = "photo", photo.FileID
		case domain.ContentTypeVideo:
			if m.File == nil {
				return nil, false
			}
			item.Type, item.Media = "video", m.File.FileID
		default:
			return nil, false
		}
		media = append(media, item)
	}
	return &domain.Call{Method: domain.MethodSendMediaGroup, ChatID: chatID, Media: media}, true
}
