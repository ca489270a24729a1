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

type MembershipRepository struct {
	db *gorm.DB
}

var _ usecase.MembershipRepository = (*MembershipRepository)(nil)

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Upsert(ctx context.Context, membership domain.Membership) error {
	var subject string
	switch {
	case membership.BotID != nil && membership.AccountID == nil:
		subject = "bot_id"
	case membership.AccountID != nil && membership.BotID == nil:
		subject = "account_id"
	default:
		return errors.New("MembershipRepository.Upsert: exactly one of bot and account must be set")
	}

	row := models.ChatMembership{
		ChatID:    membership.ChatID,
		BotID:     membership.BotID,
		AccountID: membership.AccountID,
		Status:    membership.Status,
		MDate:     membership.MDate,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: subject}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "m_date"}),
	}).Create(&row).Error
}
