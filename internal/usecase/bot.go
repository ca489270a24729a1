package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/televi1/televi/internal/domain"
)

var tracer = otel.Tracer("usecase")

const (
	syncConcurrency   = 4
	maxCreateAttempts = 4
)

type BotConfig struct {
	WebhookPrefix string
	FlyingDomains []string
}

// RegisterOutcome is the result of Register. Bot is the new bot for done, the
// existing one for already_added and the conflicting one for revoke_required.
type RegisterOutcome struct {
	Result  domain.RegisterResult
	Bot     domain.Bot
	Revoked int
}

type BotUsecase struct {
	repo     BotRepository
	accounts AccountRepository
	api      BotAPIProvider
	creds    CredentialGenerator
	notifier Notifier
	config   BotConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewBotUsecase(
	repo BotRepository,
	accounts AccountRepository,
	api BotAPIProvider,
	creds CredentialGenerator,
	notifier Notifier,
	config BotConfig,
	logger *slog.Logger,
) *BotUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &BotUsecase{
		repo:     repo,
		accounts: accounts,
		api:      api,
		creds:    creds,
		notifier: notifier,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// IsTokenSyntax reports whether token looks like "<digits>:<secret>" with no
// whitespace. It never calls the platform.
func IsTokenSyntax(token string) bool {
	if strings.IndexFunc(token, unicode.IsSpace) >= 0 {
		return false
	}
	id, secret, found := strings.Cut(token, ":")
	if !found || id == "" || secret == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Register adds the bot behind token for owner, registered through from.
func (uc *BotUsecase) Register(ctx context.Context, token string, from domain.Bot, owner domain.Account) (RegisterOutcome, error) {
	ctx, span := tracer.Start(ctx, "Bot.Usecase.Register")
	defer span.End()

	if !IsTokenSyntax(token) {
		return RegisterOutcome{Result: domain.RegisterNotAToken}, nil
	}

	api := uc.api.ForToken(token)
	me, err := api.GetMe(ctx)
	if errors.Is(err, domain.ErrUnauthorized) {
		return RegisterOutcome{Result: domain.RegisterRevokedToken}, nil
	}
	if err != nil {
		span.RecordError(err)
		return RegisterOutcome{}, errors.Wrap(err, "BotUsecase.Register: getMe")
	}
	span.SetAttributes(attribute.Int64("platform_id", me.ID))

	claims, err := uc.repo.FindClaims(ctx, me.ID)
	if err != nil {
		return RegisterOutcome{}, errors.Wrap(err, "BotUsecase.Register: find claims")
	}

	var others, own []domain.Bot
	for _, claim := range claims {
		if claim.OwnerID == owner.ID {
			own = append(own, claim)
		} else {
			others = append(others, claim)
		}
	}

	for _, other := range others {
		if other.Token == token {
			return RegisterOutcome{Result: domain.RegisterRevokeRequired, Bot: other}, nil
		}
	}

	revoked := 0
	if len(others) > 0 {
		if err := uc.revokeAll(ctx, others); err != nil {
			span.RecordError(err)
			return RegisterOutcome{}, err
		}
		revoked = len(others)
	}

	if len(own) > 0 {
		return RegisterOutcome{Result: domain.RegisterAlreadyAdded, Bot: own[0], Revoked: revoked}, nil
	}

	title, err := api.GetMyName(ctx)
	if err != nil || title == "" {
		title = me.FirstName
	}

	fromID := from.ID
	bot, err := uc.create(ctx, domain.Bot{
		PlatformID:       me.ID,
		Username:         me.Username,
		Title:            title,
		Token:            token,
		OwnerID:          owner.ID,
		RegisteredFromID: &fromID,
	})
	if err != nil {
		return RegisterOutcome{}, errors.Wrap(err, "BotUsecase.Register: create")
	}

	if err := uc.SyncWebhook(ctx, &bot); err != nil {
		span.RecordError(err)
		return RegisterOutcome{}, err
	}

	uc.logger.InfoContext(ctx, "bot registered",
		slog.String("bot", bot.String()),
		slog.Int("revoked", revoked),
		slog.String("module", "bot"),
	)
	return RegisterOutcome{Result: domain.RegisterDone, Bot: bot, Revoked: revoked}, nil
}

// create fills in fresh webhook credentials and stores bot, drawing new ones
// when the generated path is already taken.
func (uc *BotUsecase) create(ctx context.Context, bot domain.Bot) (domain.Bot, error) {
	var err error
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		bot.SecretToken = uc.creds.Secret()
		bot.URLSpecifier = uc.creds.URLSpecifier()
		bot.DomainName = uc.creds.DomainName(uc.config.FlyingDomains)

		var created domain.Bot
		created, err = uc.repo.Create(ctx, bot)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.Bot{}, err
		}
		uc.logger.WarnContext(ctx, "webhook path collision, regenerating",
			slog.Int64("platform_id", bot.PlatformID),
			slog.String("module", "bot"),
		)
	}
	return domain.Bot{}, err
}

func (uc *BotUsecase) revokeAll(ctx context.Context, bots []domain.Bot) error {
	if len(bots) > domain.MaxBulkRevocations {
		return errors.Wrapf(domain.ErrRevokeLimitExceeded, "BotUsecase.Register: %d claims", len(bots))
	}

	ids := make([]int64, len(bots))
	for i, b := range bots {
		ids[i] = b.ID
	}
	if err := uc.repo.Revoke(ctx, ids); err != nil {
		return errors.Wrap(err, "BotUsecase.Register: revoke")
	}

	for _, b := range bots {
		uc.notifyRevoked(ctx, b)
	}
	return nil
}

func (uc *BotUsecase) notifyRevoked(ctx context.Context, bot domain.Bot) {
	err := uc.notifier.Publish(ctx, domain.OwnerNotification{
		AccountID: bot.OwnerID,
		Text:      fmt.Sprintf("Your bot @%s was revoked because its token is now registered elsewhere.", bot.Username),
	})
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to publish revoke notification",
			slog.String("bot", bot.String()),
			slog.String("error", err.Error()),
			slog.String("module", "bot"),
		)
	}
}

// WebhookURL is where the platform delivers updates for bot.
func (uc *BotUsecase) WebhookURL(bot domain.Bot) string {
	return fmt.Sprintf("https://%s/%s/%s/", bot.DomainName, strings.Trim(uc.config.WebhookPrefix, "/"), bot.URLSpecifier)
}

// SyncWebhook points the platform at bot's webhook URL. The sync time is
// stored only once the platform acknowledged it.
func (uc *BotUsecase) SyncWebhook(ctx context.Context, bot *domain.Bot) error {
	ok, err := uc.api.ForToken(bot.Token).SetWebhook(ctx, uc.WebhookURL(*bot), bot.SecretToken)
	if err != nil {
		return errors.Wrapf(err, "BotUsecase.SyncWebhook: %s", bot)
	}
	if !ok {
		return errors.Wrapf(domain.ErrWebhookNotAcknowledged, "BotUsecase.SyncWebhook: %s", bot)
	}

	at := uc.now()
	if err := uc.repo.MarkSynced(ctx, bot.ID, at); err != nil {
		return errors.Wrap(err, "BotUsecase.SyncWebhook: mark synced")
	}
	bot.WebhookSyncedAt = &at
	return nil
}

// SyncAll resyncs every non-revoked bot and returns how many succeeded.
func (uc *BotUsecase) SyncAll(ctx context.Context) (int, error) {
	bots, err := uc.repo.ListActive(ctx, 0)
	if err != nil {
		return 0, err
	}

	var (
		g      errgroup.Group
		synced = make([]bool, len(bots))
	)
	g.SetLimit(syncConcurrency)
	for i := range bots {
		i := i
		g.Go(func() error {
			if err := uc.SyncWebhook(ctx, &bots[i]); err != nil {
				uc.logger.ErrorContext(ctx, "webhook sync failed",
					slog.String("bot", bots[i].String()),
					slog.String("error", err.Error()),
					slog.String("module", "bot"),
				)
				return err
			}
			synced[i] = true
			return nil
		})
	}
	err = g.Wait()

	n := 0
	for _, ok := range synced {
		if ok {
			n++
		}
	}
	return n, err
}

// ChangePower switches bot on or off. It is a no-op when bot already is.
func (uc *BotUsecase) ChangePower(ctx context.Context, bot domain.Bot, on bool) (domain.ChangePowerResult, domain.Bot, error) {
	if bot.IsPoweredOff == !on {
		return domain.ChangePowerAlreadyThere, bot, nil
	}
	if err := uc.repo.SetPoweredOff(ctx, bot.ID, !on); err != nil {
		return "", bot, errors.Wrap(err, "BotUsecase.ChangePower")
	}
	bot.IsPoweredOff = !on
	return domain.ChangePowerDone, bot, nil
}

func (uc *BotUsecase) Revoke(ctx context.Context, bot domain.Bot, notifyOwner bool) error {
	if err := uc.repo.Revoke(ctx, []int64{bot.ID}); err != nil {
		return errors.Wrap(err, "BotUsecase.Revoke")
	}
	if notifyOwner {
		uc.notifyRevoked(ctx, bot)
	}
	return nil
}

// RegisterMaster bootstraps the master bot owned by a new staff account.
func (uc *BotUsecase) RegisterMaster(ctx context.Context, token, staffUsername string) (domain.Bot, error) {
	if !IsTokenSyntax(token) {
		return domain.Bot{}, domain.ErrNotAToken
	}
	_, err := uc.repo.GetMaster(ctx)
	if err == nil {
		return domain.Bot{}, domain.ErrMasterExists
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Bot{}, err
	}

	api := uc.api.ForToken(token)
	me, err := api.GetMe(ctx)
	if err != nil {
		return domain.Bot{}, errors.Wrap(err, "BotUsecase.RegisterMaster: getMe")
	}
	title, err := api.GetMyName(ctx)
	if err != nil || title == "" {
		title = me.FirstName
	}

	if staffUsername == "" {
		staffUsername = uc.creds.Username()
	}
	staff, err := uc.accounts.CreateStaff(ctx, domain.Account{Kind: domain.AccountKindStaff, Username: staffUsername})
	if err != nil {
		return domain.Bot{}, errors.Wrap(err, "BotUsecase.RegisterMaster: staff")
	}

	bot, err := uc.create(ctx, domain.Bot{
		PlatformID: me.ID,
		Username:   me.Username,
		Title:      title,
		Token:      token,
		IsMaster:   true,
		OwnerID:    staff.ID,
	})
	if err != nil {
		return domain.Bot{}, errors.Wrap(err, "BotUsecase.RegisterMaster: create")
	}
	if err := uc.SyncWebhook(ctx, &bot); err != nil {
		return bot, err
	}
	return bot, nil
}

// Resolve finds the bot serving a webhook path. Revoked bots are unknown.
func (uc *BotUsecase) Resolve(ctx context.Context, specifier string) (domain.Bot, error) {
	bot, err := uc.repo.GetBySpecifier(ctx, specifier)
	if err != nil {
		return domain.Bot{}, err
	}
	if bot.IsRevoked {
		return domain.Bot{}, domain.NotFoundError{Resource: "bot"}
	}
	return bot, nil
}

func (uc *BotUsecase) ListOwned(ctx context.Context, owner domain.Account) ([]domain.Bot, error) {
	return uc.repo.ListByOwner(ctx, owner.ID)
}

// GetOwned loads a bot, hiding bots of other owners.
func (uc *BotUsecase) GetOwned(ctx context.Context, owner domain.Account, id int64) (domain.Bot, error) {
	bot, err := uc.repo.Get(ctx, id)
	if err != nil {
		return domain.Bot{}, err
	}
	if bot.OwnerID != owner.ID {
		return domain.Bot{}, domain.NotFoundError{Resource: "bot"}
	}
	return bot, nil
}

// ListActive returns up to limit non-revoked bots.
func (uc *BotUsecase) ListActive(ctx context.Context, limit int) ([]domain.Bot, error) {
	return uc.repo.ListActive(ctx, limit)
}

func (uc *BotUsecase) WebhookStatus(ctx context.Context, bot domain.Bot) (domain.WebhookInfo, error) {
	return uc.api.ForToken(bot.Token).GetWebhookInfo(ctx)
}

// DetachWebhook removes the webhook so the bot can be long-polled.
func (uc *BotUsecase) DetachWebhook(ctx context.Context, bot domain.Bot) error {
	ok, err := uc.api.ForToken(bot.Token).DeleteWebhook(ctx, false)
	if err != nil {
		return errors.Wrapf(err, "BotUsecase.DetachWebhook: %s", bot)
	}
	if !ok {
		return errors.Wrapf(domain.ErrWebhookNotAcknowledged, "BotUsecase.DetachWebhook: %s", bot)
	}
	return nil
}
