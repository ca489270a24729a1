package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/infra/database/models"
	"github.com/televi1/televi/internal/usecase"
)

type MessageRepository struct {
	db *gorm.DB
}

var _ usecase.MessageRepository = (*MessageRepository)(nil)

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func withContent(db *gorm.DB) *gorm.DB {
	return db.
		Preload("File.Thumbnail").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Photos.File").
		Preload("Entities", func(db *gorm.DB) *gorm.DB { return db.Order("on_caption ASC, position ASC") })
}

// ensureFile stores f (and its thumbnail) unless the platform file id is
// already known and returns the row id.
func ensureFile(tx *gorm.DB, f domain.File) (int64, error) {
	row := fileToModel(f)
	if f.Thumbnail != nil {
		thumbID, err := ensureFile(tx, *f.Thumbnail)
		if err != nil {
			return 0, err
		}
		row.ThumbnailID = &thumbID
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "file_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return 0, err
	}

	var stored models.File
	if err := tx.Select("id").Where("file_id = ?", f.FileID).Take(&stored).Error; err != nil {
		return 0, err
	}
	return stored.ID, nil
}

func (r *MessageRepository) Capture(ctx context.Context, msg domain.CapturedMessage) (domain.CapturedMessage, error) {
	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := models.CapturedMessage{
			BotID:        msg.BotID,
			ChatID:       msg.ChatID,
			PlatformID:   msg.PlatformID,
			SentByID:     msg.SentByID,
			ContentType:  string(msg.ContentType),
			Text:         msg.Text,
			Caption:      msg.Caption,
			MediaGroupID: msg.MediaGroupID,
		}
		if msg.File != nil {
			fileID, err := ensureFile(tx, *msg.File)
			if err != nil {
				return err
			}
			row.FileID = &fileID
		}

		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bot_id"}, {Name: "chat_id"}, {Name: "platform_id"}},
			DoNothing: true,
		}).Create(&row)
		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			var existing models.CapturedMessage
			err := tx.Select("id").
				Where("bot_id = ? AND chat_id = ? AND platform_id = ?", msg.BotID, msg.ChatID, msg.PlatformID).
				Take(&existing).Error
			if err != nil {
				return err
			}
			id = existing.ID
			return nil
		}
		id = row.ID

		for i, photo := range msg.Photos {
			fileID, err := ensureFile(tx, photo)
			if err != nil {
				return err
			}
			if err := tx.Create(&models.MessagePhoto{MessageID: row.ID, Position: i, FileID: fileID}).Error; err != nil {
				return err
			}
		}

		if len(msg.Entities) > 0 {
			entities := make([]models.MessageEntity, 0, len(msg.Entities))
			for _, e := range msg.Entities {
				entities = append(entities, models.MessageEntity{
					MessageID: row.ID,
					OnCaption: e.OnCaption,
					Position:  e.Order,
					Type:      e.Type,
					Offset:    e.Offset,
					Length:    e.Length,
					URL:       e.URL,
					Language:  e.Language,
				})
			}
			if err := tx.Create(&entities).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.CapturedMessage{}, err
	}

	var stored models.CapturedMessage
	if err := withContent(r.db.WithContext(ctx)).Where("id = ?", id).Take(&stored).Error; err != nil {
		return domain.CapturedMessage{}, err
	}
	return messageToDomain(&stored), nil
}

func (r *MessageRepository) GetMany(ctx context.Context, ids []int64) ([]domain.CapturedMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.CapturedMessage
	if err := withContent(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.CapturedMessage, len(rows))
	for i := range rows {
		byID[rows[i].ID] = &rows[i]
	}
	out := make([]domain.CapturedMessage, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			out = append(out, messageToDomain(row))
		}
	}
	return out, nil
}

func notFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Resource: resource}
	}
	return err
}
