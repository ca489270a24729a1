package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/televi1/televi/client"
	"github.com/televi1/televi/internal/config"
	"github.com/televi1/televi/internal/dispatch/fsm"
	"github.com/televi1/televi/internal/infra/database"
	"github.com/televi1/televi/internal/infra/fsmstore"
	"github.com/televi1/televi/internal/infra/gateway"
	"github.com/televi1/televi/internal/infra/queue"
	"github.com/televi1/televi/internal/infra/repository"
	"github.com/televi1/televi/internal/infra/telemetry"
	"github.com/televi1/televi/internal/present/telegram"
	"github.com/televi1/televi/internal/service"
	"github.com/televi1/televi/internal/usecase"
)

// app is the object graph shared by every command.
type app struct {
	config  config.Config
	logger  *slog.Logger
	db      *gorm.DB
	gateway *gateway.TelegramGateway

	accounts      *usecase.AccountUsecase
	bots          *usecase.BotUsecase
	content       *usecase.ContentUsecase
	gate          *usecase.GateChecker
	notifications *usecase.NotificationUsecase
	amqp          *queue.AMQP
	inline        *queue.Inline

	closers []func(context.Context) error
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}

	logger, err := config.NewLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	a := &app{config: cfg, logger: logger}

	if cfg.Server.EnableTrace {
		shutdown, err := telemetry.SetupTracer(ctx, "televi", cfg.Server.TraceEndpoint)
		if err != nil {
			return nil, errors.Wrap(err, "setup tracer")
		}
		a.closers = append(a.closers, shutdown)
	}

	db, err := database.NewPostgres(cfg.Server.PostgresDsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}
	a.db = db

	creds := service.NewCredentialService()
	a.gateway = gateway.NewTelegramGateway(client.New(cfg.Telegram.APIBaseURL))

	accountRepo := repository.NewAccountRepository(db)
	botRepo := repository.NewBotRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	bundleRepo := repository.NewBundleRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)

	a.notifications = usecase.NewNotificationUsecase(accountRepo, botRepo, a.gateway, logger)

	var notifier usecase.Notifier
	if cfg.Queue.URL != "" {
		a.amqp, err = queue.Dial(cfg.Queue.URL, logger)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return a.amqp.Close() })
		notifier = a.amqp
	} else {
		a.inline = queue.NewInline(a.notifications, logger)
		a.closers = append(a.closers, func(context.Context) error {
			a.inline.Wait()
			return nil
		})
		notifier = a.inline
	}

	a.accounts = usecase.NewAccountUsecase(accountRepo, creds)
	a.bots = usecase.NewBotUsecase(botRepo, accountRepo, a.gateway, creds, notifier, usecase.BotConfig{
		WebhookPrefix: cfg.Telegram.WebhookPrefix,
		FlyingDomains: cfg.Telegram.FlyingDomains,
	}, logger)
	a.gate = usecase.NewGateChecker(membershipRepo, logger)
	a.content = usecase.NewContentUsecase(messageRepo, bundleRepo, a.gateway, a.gate, creds, logger)

	return a, nil
}

// stateStorage opens the configured conversation store.
func (a *app) stateStorage(ctx context.Context) (fsm.Storage, error) {
	ttl := a.config.Telegram.StateTTL
	switch a.config.Telegram.StateBackend {
	case "redis":
		rdb, err := database.NewRedis(ctx, a.config.Server.RedisAddr, a.config.Server.RedisPassword, a.config.Server.RedisDB)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect redis")
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		return fsmstore.NewRedisStorage(rdb, ttl), nil
	case "memcached":
		mc, err := database.NewMemcached(a.config.Server.MemcachedAddr)
		if err != nil {
			return nil, errors.Wrap(err, "failed to connect memcached")
		}
		return fsmstore.NewMemcachedStorage(mc, ttl), nil
	default:
		a.logger.Warn("conversation state is kept in memory", slog.String("module", "main"))
		return fsm.NewMemoryStorage(), nil
	}
}

func (a *app) handlers() *telegram.Handlers {
	return telegram.NewHandlers(a.accounts, a.bots, a.content, a.gate, a.logger)
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.ErrorContext(ctx, "shutdown step failed",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
		}
	}
	a.closers = nil
}
