package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/televi1/televi/internal/domain"
)

var tracer = otel.Tracer("auth")

// ErrBadSecret is returned when the secret header does not match the bot.
var ErrBadSecret = fmt.Errorf("webhook secret mismatch")

type BotResolver interface {
	Resolve(ctx context.Context, specifier string) (domain.Bot, error)
}

type AuthService struct {
	bots BotResolver
}

func NewAuthService(bots BotResolver) *AuthService {
	return &AuthService{
		bots: bots,
	}
}

// AuthWebhook identifies the bot an inbound webhook is addressed to and
// checks the platform-supplied secret token against it. Unknown and revoked
// bots are reported as domain.ErrNotFound.
func (s *AuthService) AuthWebhook(ctx context.Context, specifier, secret string) (domain.Bot, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthWebhook")
	defer span.End()

	bot, err := s.bots.Resolve(ctx, specifier)
	if err != nil {
		span.RecordError(errors.Wrap(err, "bot lookup failed"))
		return domain.Bot{}, err
	}
	span.SetAttributes(attribute.Int64("BotID", bot.ID))

	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(bot.SecretToken)) != 1 {
		span.RecordError(ErrBadSecret)
		return domain.Bot{}, ErrBadSecret
	}

	return bot, nil
}
