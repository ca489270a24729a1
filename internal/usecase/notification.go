package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/televi1/televi/internal/domain"
)

type NotificationUsecase struct {
	accounts AccountRepository
	bots     BotRepository
	api      BotAPIProvider
	logger   *slog.Logger
}

func NewNotificationUsecase(accounts AccountRepository, bots BotRepository, api BotAPIProvider, logger *slog.Logger) *NotificationUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationUsecase{
		accounts: accounts,
		bots:     bots,
		api:      api,
		logger:   logger,
	}
}

// Deliver sends n to its account through the bot the account belongs to.
// Accounts that cannot be reached are skipped; only transient failures are
// returned so the queue can retry them.
func (uc *NotificationUsecase) Deliver(ctx context.Context, n domain.OwnerNotification) error {
	account, err := uc.accounts.Get(ctx, n.AccountID)
	if errors.Is(err, domain.ErrNotFound) {
		uc.skip(ctx, n, "account not found")
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "NotificationUsecase.Deliver: account")
	}
	if !account.IsChatUser() || account.BotID == nil {
		uc.skip(ctx, n, "account has no chat identity")
		return nil
	}

	bot, err := uc.bots.Get(ctx, *account.BotID)
	if err != nil {
		return errors.Wrap(err, "NotificationUsecase.Deliver: bot")
	}
	if bot.IsRevoked {
		uc.skip(ctx, n, "account bot is revoked")
		return nil
	}

	err = uc.api.ForToken(bot.Token).Do(ctx, domain.SendText(*account.PlatformUserID, n.Text))
	if errors.Is(err, domain.ErrForbidden) || errors.Is(err, domain.ErrUnauthorized) {
		uc.skip(ctx, n, err.Error())
		return nil
	}
	return err
}

func (uc *NotificationUsecase) skip(ctx context.Context, n domain.OwnerNotification, reason string) {
	uc.logger.WarnContext(ctx, "notification dropped",
		slog.Int64("account", n.AccountID),
		slog.String("reason", reason),
		slog.String("module", "notification"),
	)
}
