package repository

import (
	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/infra/database/models"
)

func accountToDomain(m *models.Account) *domain.Account {
	if m == nil {
		return nil
	}
	return &domain.Account{
		ID:             m.ID,
		Kind:           domain.AccountKind(m.Kind),
		Username:       m.Username,
		PlatformUserID: m.PlatformUserID,
		BotID:          m.BotID,
		FirstName:      m.FirstName,
		CDate:          m.CDate,
	}
}

func accountToModel(a domain.Account) models.Account {
	return models.Account{
		ID:             a.ID,
		Kind:           string(a.Kind),
		Username:       a.Username,
		PlatformUserID: a.PlatformUserID,
		BotID:          a.BotID,
		FirstName:      a.FirstName,
	}
}

func botToDomain(m *models.Bot) *domain.Bot {
	if m == nil {
		return nil
	}
	return &domain.Bot{
		ID:               m.ID,
		PlatformID:       m.PlatformID,
		Username:         m.Username,
		Title:            m.Title,
		Token:            m.Token,
		SecretToken:      m.SecretToken,
		URLSpecifier:     m.URLSpecifier,
		DomainName:       m.DomainName,
		IsMaster:         m.IsMaster,
		OwnerID:          m.OwnerID,
		Owner:            accountToDomain(m.Owner),
		RegisteredFromID: m.RegisteredFromID,
		RegisteredFrom:   botToDomain(m.RegisteredFrom),
		WebhookSyncedAt:  m.WebhookSyncedAt,
		IsRevoked:        m.IsRevoked,
		IsPoweredOff:     m.IsPoweredOff,
		CDate:            m.CDate,
	}
}

func botToModel(b domain.Bot) models.Bot {
	return models.Bot{
		PlatformID:       b.PlatformID,
		Username:         b.Username,
		Title:            b.Title,
		Token:            b.Token,
		SecretToken:      b.SecretToken,
		URLSpecifier:     b.URLSpecifier,
		DomainName:       b.DomainName,
		IsMaster:         b.IsMaster,
		OwnerID:          b.OwnerID,
		RegisteredFromID: b.RegisteredFromID,
		WebhookSyncedAt:  b.WebhookSyncedAt,
		IsRevoked:        b.IsRevoked,
		IsPoweredOff:     b.IsPoweredOff,
	}
}

func fileToDomain(m *models.File) *domain.File {
	if m == nil {
		return nil
	}
	return &domain.File{
		ID:           m.ID,
		Kind:         domain.FileKind(m.Kind),
		BotID:        m.BotID,
		FileID:       m.FileID,
		FileUniqueID: m.FileUniqueID,
		FileSize:     m.FileSize,
		Width:        m.Width,
		Height:       m.Height,
		Duration:     m.Duration,
		Performer:    m.Performer,
		Title:        m.Title,
		FileName:     m.FileName,
		MimeType:     m.MimeType,
		Thumbnail:    fileToDomain(m.Thumbnail),
	}
}

func fileToModel(f domain.File) models.File {
	return models.File{
		Kind:         string(f.Kind),
		BotID:        f.BotID,
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
}

func messageToDomain(m *models.CapturedMessage) domain.CapturedMessage {
	out := domain.CapturedMessage{
		ID:           m.ID,
		BotID:        m.BotID,
		ChatID:       m.ChatID,
		PlatformID:   m.PlatformID,
		SentByID:     m.SentByID,
		ContentType:  domain.ContentType(m.ContentType),
		Text:         m.Text,
		Caption:      m.Caption,
		MediaGroupID: m.MediaGroupID,
		File:         fileToDomain(m.File),
		CDate:        m.CDate,
	}
	for _, p := range m.Photos {
		out.Photos = append(out.Photos, *fileToDomain(&p.File))
	}
	for _, e := range m.Entities {
		out.Entities = append(out.Entities, domain.MessageEntity{
			OnCaption: e.OnCaption,
			Order:     e.Position,
			Type:      e.Type,
			Offset:    e.Offset,
			Length:    e.Length,
			URL:       e.URL,
			Language:  e.Language,
		})
	}
	return out
}

func bundleToDomain(m *models.Bundle) *domain.Bundle {
	if m == nil {
		return nil
	}
	out := &domain.Bundle{
		ID:          m.ID,
		Name:        m.Name,
		BotID:       m.BotID,
		CreatedByID: m.CreatedByID,
		CDate:       m.CDate,
	}
	for _, bm := range m.Messages {
		out.MessageIDs = append(out.MessageIDs, bm.MessageID)
	}
	for _, mj := range m.MustJoins {
		out.MustJoins = append(out.MustJoins, domain.MustJoin{ChatID: mj.ChatID, IsChannel: mj.IsChannel})
	}
	return out
}

func linkToDomain(m models.ShareLink) domain.ShareLink {
	return domain.ShareLink{
		ID:       m.ID,
		QueryID:  m.QueryID,
		BundleID: m.BundleID,
		Bundle:   bundleToDomain(m.Bundle),
		CDate:    m.CDate,
	}
}
