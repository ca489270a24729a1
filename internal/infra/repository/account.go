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

type AccountRepository struct {
	db *gorm.DB
}

var _ usecase.AccountRepository = (*AccountRepository)(nil)

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) take(ctx context.Context, query string, args ...any) (domain.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where(query, args...).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Account{}, domain.NotFoundError{Resource: "account"}
	}
	if err != nil {
		return domain.Account{}, err
	}
	return *accountToDomain(&account), nil
}

func (r *AccountRepository) Get(ctx context.Context, id int64) (domain.Account, error) {
	return r.take(ctx, "id = ?", id)
}

func (r *AccountRepository) GetChatUser(ctx context.Context, botID, platformUserID int64) (domain.Account, error) {
	return r.take(ctx, "kind = ? AND bot_id = ? AND platform_user_id = ?", string(domain.AccountKindChat), botID, platformUserID)
}

// CreateChatUser inserts the chat user unless a concurrent request already
// did; the stored row is returned either way.
func (r *AccountRepository) CreateChatUser(ctx context.Context, account domain.Account) (domain.Account, error) {
	if account.BotID == nil || account.PlatformUserID == nil {
		return domain.Account{}, errors.New("AccountRepository.CreateChatUser: bot and platform user are required")
	}
	row := accountToModel(account)
	row.Kind = string(domain.AccountKindChat)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform_user_id"}, {Name: "bot_id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return domain.Account{}, err
	}
	return r.GetChatUser(ctx, *account.BotID, *account.PlatformUserID)
}

func (r *AccountRepository) CreateStaff(ctx context.Context, account domain.Account) (domain.Account, error) {
	row := accountToModel(account)
	row.Kind = string(domain.AccountKindStaff)
	row.PlatformUserID = nil
	row.BotID = nil
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Account{}, err
	}
	return *accountToDomain(&row), nil
}
