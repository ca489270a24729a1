package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/present/rest/presenter"
)

var tracer = otel.Tracer("auth")

const (
	// SecretHeader carries the per-bot secret set with setWebhook.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"
	// BotKey is the echo context key of the authenticated bot.
	BotKey = "webhookBot"
)

type WebhookAuthenticator interface {
	AuthWebhook(ctx context.Context, specifier, secret string) (domain.Bot, error)
}

type AuthMiddleware struct {
	auth WebhookAuthenticator
}

func NewAuthMiddleware(auth WebhookAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// IdentifyBot resolves the bot from the wildcard path segment and checks the
// secret header. Failures answer 403 with an empty body.
func (s *AuthMiddleware) IdentifyBot(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyBot")
		defer span.End()

		specifier := strings.Trim(c.Param("*"), "/")
		secret := c.Request().Header.Get(SecretHeader)
		if specifier == "" || secret == "" {
			span.RecordError(errors.New("missing specifier or secret"))
			return presenter.Forbidden(c)
		}

		bot, err := s.auth.AuthWebhook(ctx, specifier, secret)
		if err != nil {
			span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyBot: s.auth.AuthWebhook failed"))
			if !errors.Is(err, domain.ErrNotFound) {
				slog.WarnContext(ctx, "webhook rejected",
					slog.String("error", err.Error()),
					slog.String("module", "rest"),
				)
			}
			return presenter.Forbidden(c)
		}

		span.SetAttributes(attribute.Int64("BotID", bot.ID))
		c.Set(BotKey, bot)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}
