package usecase

import (
	"context"
	"errors"

	"github.com/televi1/televi/internal/domain"
)

type AccountUsecase struct {
	repo  AccountRepository
	creds CredentialGenerator
}

func NewAccountUsecase(repo AccountRepository, creds CredentialGenerator) *AccountUsecase {
	return &AccountUsecase{
		repo:  repo,
		creds: creds,
	}
}

// Resolve finds the chat user behind sender on bot. Unknown senders writing
// in a private chat are registered; anywhere else they stay anonymous (nil).
func (uc *AccountUsecase) Resolve(ctx context.Context, bot domain.Bot, sender *domain.Sender, chat *domain.Chat) (*domain.Account, error) {
	if sender == nil {
		return nil, nil
	}

	account, err := uc.repo.GetChatUser(ctx, bot.ID, sender.ID)
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if chat == nil || chat.Type != domain.ChatTypePrivate {
		return nil, nil
	}

	platformUserID, botID := sender.ID, bot.ID
	account, err = uc.repo.CreateChatUser(ctx, domain.Account{
		Kind:           domain.AccountKindChat,
		Username:       uc.creds.Username(),
		PlatformUserID: &platformUserID,
		BotID:          &botID,
		FirstName:      sender.FirstName,
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateStaff registers an operator account without a platform identity.
func (uc *AccountUsecase) CreateStaff(ctx context.Context, username string) (domain.Account, error) {
	if username == "" {
		username = uc.creds.Username()
	}
	return uc.repo.CreateStaff(ctx, domain.Account{
		Kind:     domain.AccountKindStaff,
		Username: username,
	})
}
