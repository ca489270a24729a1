package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/infra/database/models"
	"github.com/televi1/televi/internal/usecase"
)

type BundleRepository struct {
	db *gorm.DB
}

var _ usecase.BundleRepository = (*BundleRepository)(nil)

func NewBundleRepository(db *gorm.DB) *BundleRepository {
	return &BundleRepository{db: db}
}

func withParts(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("MustJoins", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

func (r *BundleRepository) Create(ctx context.Context, bundle domain.Bundle, mint usecase.LinkMinter) (domain.Bundle, domain.ShareLink, error) {
	var (
		created models.Bundle
		link    models.ShareLink
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created = models.Bundle{
			Name:        bundle.Name,
			BotID:       bundle.BotID,
			CreatedByID: bundle.CreatedByID,
		}
		if err := tx.Omit("Messages", "MustJoins").Create(&created).Error; err != nil {
			return err
		}

		if len(bundle.MessageIDs) > 0 {
			messages := make([]models.BundleMessage, 0, len(bundle.MessageIDs))
			for i, id := range bundle.MessageIDs {
				messages = append(messages, models.BundleMessage{BundleID: created.ID, Position: i, MessageID: id})
			}
			if err := tx.Create(&messages).Error; err != nil {
				return err
			}
			created.Messages = messages
		}

		if len(bundle.MustJoins) > 0 {
			mustJoins := make([]models.BundleMustJoin, 0, len(bundle.MustJoins))
			for i, mj := range bundle.MustJoins {
				mustJoins = append(mustJoins, models.BundleMustJoin{BundleID: created.ID, Position: i, ChatID: mj.ChatID, IsChannel: mj.IsChannel})
			}
			if err := tx.Create(&mustJoins).Error; err != nil {
				return err
			}
			created.MustJoins = mustJoins
		}

		var err error
		link, err = createLink(ctx, tx, created.ID, mint)
		return err
	})
	if err != nil {
		return domain.Bundle{}, domain.ShareLink{}, err
	}
	return *bundleToDomain(&created), linkToDomain(link), nil
}

// createLink mints a query id that no row uses yet. The unique index on
// query_id still rejects a concurrent duplicate.
func createLink(ctx context.Context, tx *gorm.DB, bundleID int64, mint usecase.LinkMinter) (models.ShareLink, error) {
	taken := func(queryID string) (bool, error) {
		var count int64
		err := tx.Model(&models.ShareLink{}).Where("query_id = ?", queryID).Count(&count).Error
		return count > 0, err
	}
	queryID, err := mint(ctx, taken)
	if err != nil {
		return models.ShareLink{}, err
	}
	link := models.ShareLink{QueryID: queryID, BundleID: bundleID}
	if err := tx.Omit("Bundle").Create(&link).Error; err != nil {
		return models.ShareLink{}, err
	}
	return link, nil
}

func (r *BundleRepository) Get(ctx context.Context, id int64) (domain.Bundle, error) {
	var bundle models.Bundle
	if err := withParts(r.db.WithContext(ctx)).Where("id = ?", id).Take(&bundle).Error; err != nil {
		return domain.Bundle{}, notFound(err, "bundle")
	}
	return *bundleToDomain(&bundle), nil
}

func (r *BundleRepository) ListByCreator(ctx context.Context, botID, creatorID int64) ([]domain.Bundle, error) {
	var rows []models.Bundle
	err := r.db.WithContext(ctx).
		Where("bot_id = ? AND created_by_id = ?", botID, creatorID).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	bundles := make([]domain.Bundle, 0, len(rows))
	for i := range rows {
		bundles = append(bundles, *bundleToDomain(&rows[i]))
	}
	return bundles, nil
}

func (r *BundleRepository) CreateLink(ctx context.Context, bundleID int64, mint usecase.LinkMinter) (domain.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		link, err = createLink(ctx, tx, bundleID, mint)
		return err
	})
	if err != nil {
		return domain.ShareLink{}, err
	}
	return linkToDomain(link), nil
}

func (r *BundleRepository) LatestLink(ctx context.Context, bundleID int64) (domain.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).
		Where("bundle_id = ?", bundleID).
		Order("c_date DESC, id DESC").
		Take(&link).Error
	if err != nil {
		return domain.ShareLink{}, notFound(err, "share link")
	}
	return linkToDomain(link), nil
}

func (r *BundleRepository) GetLink(ctx context.Context, queryID string) (domain.ShareLink, error) {
	var link models.ShareLink
	err := r.db.WithContext(ctx).
		Preload("Bundle.Messages", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Bundle.MustJoins", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("query_id = ?", queryID).
		Take(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && link.Bundle == nil) {
		return domain.ShareLink{}, domain.NotFoundError{Resource: "share link"}
	}
	if err != nil {
		return domain.ShareLink{}, err
	}
	return linkToDomain(link), nil
}
