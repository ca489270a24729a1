package gateway

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/televi1/televi/client"
	"github.com/televi1/televi/internal/usecase"
)

// TelegramGateway hands out Bot API handles per token. Handles are cached by
// token fingerprint so the raw token never becomes a map key.
type TelegramGateway struct {
	client *client.Client
	cache  *cache.Cache
}

var _ usecase.BotAPIProvider = (*TelegramGateway)(nil)

func NewTelegramGateway(cl *client.Client) *TelegramGateway {
	return &TelegramGateway{
		client: cl,
		cache:  cache.New(30*time.Minute, 60*time.Minute),
	}
}

func (g *TelegramGateway) ForToken(token string) usecase.BotAPI {
	return g.Bot(token)
}

// Bot returns the concrete handle, which also exposes polling.
func (g *TelegramGateway) Bot(token string) *client.Bot {
	key := client.Fingerprint(token)
	if x, found := g.cache.Get(key); found {
		return x.(*client.Bot)
	}
	bot := g.client.Bot(token)
	g.cache.SetDefault(key, bot)
	return bot
}
