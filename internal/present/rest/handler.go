package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/televi1/televi/internal/config"
	"github.com/televi1/televi/internal/dispatch"
	"github.com/televi1/televi/internal/domain"
	"github.com/televi1/televi/internal/present/rest/middleware"
	"github.com/televi1/televi/internal/present/rest/presenter"
	"github.com/televi1/televi/internal/usecase"
)

var tracer = otel.Tracer("rest")

type Dispatcher interface {
	Dispatch(ctx context.Context, bot domain.Bot, api dispatch.Caller, update *domain.Update) (*domain.Call, error)
}

var _ Dispatcher = (*dispatch.Router)(nil)

type Handler struct {
	config config.Telegram
	router Dispatcher
	api    usecase.BotAPIProvider
	auth   *middleware.AuthMiddleware
	logger *slog.Logger
}

func NewHandler(
	config config.Telegram,
	router Dispatcher,
	api usecase.BotAPIProvider,
	auth *middleware.AuthMiddleware,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		config: config,
		router: router,
		api:    api,
		auth:   auth,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealth)
	prefix := strings.Trim(h.config.WebhookPrefix, "/")
	e.POST("/"+prefix+"/*", h.handleWebhook, h.auth.IdentifyBot)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, map[string]string{"status": "ok"})
}

func (h *Handler) handleWebhook(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Webhook.Handler.HandleWebhook")
	defer span.End()

	bot, ok := c.Get(middleware.BotKey).(domain.Bot)
	if !ok {
		return presenter.Forbidden(c)
	}

	var update domain.Update
	if err := c.Bind(&update); err != nil {
		span.RecordError(err)
		return presenter.BadRequest(c, err)
	}
	span.SetAttributes(
		attribute.Int64("BotID", bot.ID),
		attribute.Int64("UpdateID", update.UpdateID),
	)

	api := h.api.ForToken(bot.Token)
	call, err := h.router.Dispatch(ctx, bot, api, &update)
	if err != nil {
		span.RecordError(err)
		h.logger.ErrorContext(ctx, "dispatch failed",
			slog.String("bot", bot.String()),
			slog.Int64("update", update.UpdateID),
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
		return presenter.Empty(c)
	}
	if call == nil {
		return presenter.Empty(c)
	}

	if h.config.ReplyToWebhook {
		return c.JSON(http.StatusOK, call.WebhookReply())
	}
	if err := api.Do(ctx, call); err != nil {
		span.RecordError(errors.Wrap(err, "Handler.handleWebhook: deferred call"))
		h.logger.ErrorContext(ctx, "deferred call failed",
			slog.String("bot", bot.String()),
			slog.String("method", string(call.Method)),
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
	}
	return presenter.Empty(c)
}
