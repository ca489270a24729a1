package client

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/televi1/televi/internal/domain"
)

const memberCacheTTL = 30 * time.Second

// AllowedUpdates lists the update kinds the dispatcher consumes.
var AllowedUpdates = []string{"message", "callback_query", "my_chat_member"}

// Bot is the Bot API bound to a single token.
type Bot struct {
	client      *Client
	token       string
	fingerprint string
}

func (c *Client) Bot(token string) *Bot {
	return &Bot{
		client:      c,
		token:       token,
		fingerprint: Fingerprint(token),
	}
}

func (b *Bot) Fingerprint() string {
	return b.fingerprint
}

func (b *Bot) GetMe(ctx context.Context) (domain.Sender, error) {
	var me domain.Sender
	err := b.client.Request(ctx, b.token, "getMe", nil, &me)
	return me, err
}

func (b *Bot) GetMyName(ctx context.Context) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	err := b.client.Request(ctx, b.token, "getMyName", nil, &out)
	return out.Name, err
}

func (b *Bot) SetWebhook(ctx context.Context, url, secret string) (bool, error) {
	params := map[string]any{
		"url":             url,
		"secret_token":    secret,
		"allowed_updates": AllowedUpdates,
	}
	var ok bool
	err := b.client.Request(ctx, b.token, "setWebhook", params, &ok)
	return ok, err
}

func (b *Bot) DeleteWebhook(ctx context.Context, dropPending bool) (bool, error) {
	params := map[string]any{"drop_pending_updates": dropPending}
	var ok bool
	err := b.client.Request(ctx, b.token, "deleteWebhook", params, &ok)
	return ok, err
}

func (b *Bot) GetWebhookInfo(ctx context.Context) (domain.WebhookInfo, error) {
	var info domain.WebhookInfo
	err := b.client.Request(ctx, b.token, "getWebhookInfo", nil, &info)
	return info, err
}

func (b *Bot) GetChat(ctx context.Context, chatID int64) (domain.Chat, error) {
	cacheKey := fmt.Sprintf("chat:%s:%d", b.fingerprint, chatID)
	if x, found := b.client.cache.Get(cacheKey); found {
		return x.(domain.Chat), nil
	}

	var chat domain.Chat
	err := b.client.Request(ctx, b.token, "getChat", map[string]any{"chat_id": chatID}, &chat)
	if err != nil {
		return domain.Chat{}, err
	}

	b.client.cache.Set(cacheKey, chat, cache.DefaultExpiration)
	return chat, nil
}

func (b *Bot) GetChatMember(ctx context.Context, chatID, userID int64) (domain.ChatMember, error) {
	cacheKey := fmt.Sprintf("member:%s:%d:%d", b.fingerprint, chatID, userID)
	if x, found := b.client.cache.Get(cacheKey); found {
		return x.(domain.ChatMember), nil
	}

	var member domain.ChatMember
	params := map[string]any{"chat_id": chatID, "user_id": userID}
	err := b.client.Request(ctx, b.token, "getChatMember", params, &member)
	if err != nil {
		return domain.ChatMember{}, err
	}

	b.client.cache.Set(cacheKey, member, memberCacheTTL)
	return member, nil
}

// GetUpdates long-polls for updates and returns the next offset to ask for.
func (b *Bot) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]domain.Update, int64, error) {
	secs := int(timeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	params := map[string]any{
		"timeout":         secs,
		"allowed_updates": AllowedUpdates,
	}
	if offset > 0 {
		params["offset"] = offset
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout+defaultTimeout)
	defer cancel()

	var updates []domain.Update
	if err := b.client.Request(reqCtx, b.token, "getUpdates", params, &updates); err != nil {
		return nil, offset, err
	}

	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

// Do executes a prepared call.
func (b *Bot) Do(ctx context.Context, call *domain.Call) error {
	if call == nil {
		return nil
	}
	return b.client.Request(ctx, b.token, string(call.Method), call.Params(), nil)
}
