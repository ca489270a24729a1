package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/infra/database/models"
	"github.com/televi1/televi/internal/usecase"
)

type BotRepository struct {
	db *gorm.DB
}

var _ usecase.BotRepository = (*BotRepository)(nil)

func NewBotRepository(db *gorm.DB) *BotRepository {
	return &BotRepository{db: db}
}

func (r *BotRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Owner").Preload("RegisteredFrom")
}

func (r *BotRepository) take(ctx context.Context, query string, args ...any) (domain.Bot, error) {
	var bot models.Bot
	err := r.query(ctx).Where(query, args...).Take(&bot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Bot{}, domain.NotFoundError{Resource: "bot"}
	}
	if err != nil {
		return domain.Bot{}, err
	}
	return *botToDomain(&bot), nil
}

func (r *BotRepository) list(ctx context.Context, limit int, query string, args ...any) ([]domain.Bot, error) {
	var rows []models.Bot
	q := r.query(ctx).Where(query, args...).Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	bots := make([]domain.Bot, 0, len(rows))
	for i := range rows {
		bots = append(bots, *botToDomain(&rows[i]))
	}
	return bots, nil
}

func (r *BotRepository) Get(ctx context.Context, id int64) (domain.Bot, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *BotRepository) GetBySpecifier(ctx context.Context, specifier string) (domain.Bot, error) {
	return r.take(ctx, "url_specifier = ?", specifier)
}

func (r *BotRepository) GetMaster(ctx context.Context) (domain.Bot, error) {
	return r.take(ctx, "is_master = ?", true)
}

func (r *BotRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Bot, error) {
	return r.list(ctx, 0, "owner_id = ? AND is_revoked = ?", ownerID, false)
}

func (r *BotRepository) ListActive(ctx context.Context, limit int) ([]domain.Bot, error) {
	return r.list(ctx, limit, "is_revoked = ?", false)
}

func (r *BotRepository) FindClaims(ctx context.Context, platformID int64) ([]domain.Bot, error) {
	return r.list(ctx, 0, "platform_id = ? AND is_revoked = ?", platformID, false)
}

func (r *BotRepository) Create(ctx context.Context, bot domain.Bot) (domain.Bot, error) {
	row := botToModel(bot)
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Bot{}, domain.ErrConflict
	}
	if err != nil {
		return domain.Bot{}, err
	}
	return r.Get(ctx, row.ID)
}

func (r *BotRepository) SetPoweredOff(ctx context.Context, id int64, poweredOff bool) error {
	return r.update(ctx, id, "is_powered_off", poweredOff)
}

func (r *BotRepository) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, "webhook_synced_at", at)
}

func (r *BotRepository) update(ctx context.Context, id int64, column string, value any) error {
	result := r.db.WithContext(ctx).Model(&models.Bot{}).Where("id = ?", id).Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "bot"}
	}
	return nil
}

func (r *BotRepository) Revoke(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []models.Bot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id IN ?", ids).
			Find(&locked).Error
		if err != nil {
			return err
		}
		if len(locked) != len(ids) {
			return domain.NotFoundError{Resource: "bot"}
		}
		return tx.Model(&models.Bot{}).Where("id IN ?", ids).Update("is_revoked", true).Error
	})
}
