package usecase

import (
	"context"
	"time"

	"github.com/televi1/televi/internal/domain"
)

// BotAPI is the remote platform bound to one bot token.
type BotAPI interface {
	GetMe(ctx context.Context) (domain.Sender, error)
	GetMyName(ctx context.Context) (string, error)
	SetWebhook(ctx context.Context, url, secret string) (bool, error)
	DeleteWebhook(ctx context.Context, dropPending bool) (bool, error)
	GetWebhookInfo(ctx context.Context) (domain.WebhookInfo, error)
	GetChat(ctx context.Context, chatID int64) (domain.Chat, error)
	GetChatMember(ctx context.Context, chatID, userID int64) (domain.ChatMember, error)
	Do(ctx context.Context, call *domain.Call) error
}

// BotAPIProvider hands out a BotAPI per token.
type BotAPIProvider interface {
	ForToken(token string) BotAPI
}

// BotRepository defines persistence for bots. Lookups preload the owner and
// the bot it was registered from.
type BotRepository interface {
	Get(ctx context.Context, id int64) (domain.Bot, error)
	GetBySpecifier(ctx context.Context, specifier string) (domain.Bot, error)
	GetMaster(ctx context.Context) (domain.Bot, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Bot, error)
	// ListActive returns non-revoked bots, oldest first. limit <= 0 means all.
	ListActive(ctx context.Context, limit int) ([]domain.Bot, error)
	// FindClaims returns non-revoked bots with the given platform id.
	FindClaims(ctx context.Context, platformID int64) ([]domain.Bot, error)
	// Create fails with domain.ErrConflict when a unique column is taken.
	Create(ctx context.Context, bot domain.Bot) (domain.Bot, error)
	SetPoweredOff(ctx context.Context, id int64, poweredOff bool) error
	MarkSynced(ctx context.Context, id int64, at time.Time) error
	// Revoke flags every id in one transaction; either all or none are revoked.
	Revoke(ctx context.Context, ids []int64) error
}

// AccountRepository defines persistence for bot owners and chat users.
type AccountRepository interface {
	Get(ctx context.Context, id int64) (domain.Account, error)
	GetChatUser(ctx context.Context, botID, platformUserID int64) (domain.Account, error)
	// CreateChatUser returns the existing row when (platform user, bot) is taken.
	CreateChatUser(ctx context.Context, account domain.Account) (domain.Account, error)
	CreateStaff(ctx context.Context, account domain.Account) (domain.Account, error)
}

// MessageRepository defines persistence for captured messages.
type MessageRepository interface {
	// Capture stores msg unless (bot, chat, platform id) exists and returns the
	// stored record either way. Files are deduplicated by platform file id.
	Capture(ctx context.Context, msg domain.CapturedMessage) (domain.CapturedMessage, error)
	// GetMany returns the messages in the order of ids. Unknown ids are skipped.
	GetMany(ctx context.Context, ids []int64) ([]domain.CapturedMessage, error)
}

// LinkMinter picks an unused share-link query id. taken reports whether a
// candidate is already in use, inside the caller's transaction.
type LinkMinter func(ctx context.Context, taken func(queryID string) (bool, error)) (string, error)

// BundleRepository defines persistence for bundles and their share links.
type BundleRepository interface {
	// Create writes the bundle with its ordered messages and must-joins, and its
	// first share link, in one transaction.
	Create(ctx context.Context, bundle domain.Bundle, mint LinkMinter) (domain.Bundle, domain.ShareLink, error)
	Get(ctx context.Context, id int64) (domain.Bundle, error)
	ListByCreator(ctx context.Context, botID, creatorID int64) ([]domain.Bundle, error)
	CreateLink(ctx context.Context, bundleID int64, mint LinkMinter) (domain.ShareLink, error)
	LatestLink(ctx context.Context, bundleID int64) (domain.ShareLink, error)
	// GetLink resolves a query id with its bundle loaded.
	GetLink(ctx context.Context, queryID string) (domain.ShareLink, error)
}

// MembershipRepository records the last known chat membership of bots and accounts.
type MembershipRepository interface {
	Upsert(ctx context.Context, membership domain.Membership) error
}

// CredentialGenerator produces the random identifiers bots and links need.
type CredentialGenerator interface {
	Secret() string
	URLSpecifier() string
	DomainName(pool []string) string
	QueryID() string
	Username() string
}

// Notifier hands owner notifications to the delivery queue.
type Notifier interface {
	Publish(ctx context.Context, notification domain.OwnerNotification) error
}
