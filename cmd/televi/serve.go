package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/televi1/televi/internal/present/rest"
	restmw "github.com/televi1/televi/internal/present/rest/middleware"
	"github.com/televi1/televi/internal/present/telegram"
	"github.com/televi1/televi/internal/service"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve bot webhooks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.close(context.WithoutCancel(ctx))

			storage, err := a.stateStorage(ctx)
			if err != nil {
				return err
			}
			router := telegram.NewRouter(storage, a.handlers())
			auth := restmw.NewAuthMiddleware(service.NewAuthService(a.bots))
			handler := rest.NewHandler(a.config.Telegram, router, a.gateway, auth, a.logger)

			e := echo.New()
			e.HideBanner = true
			if a.config.Server.EnableTrace {
				e.Use(otelecho.Middleware("televi"))
			}
			e.Use(middleware.Logger())
			e.Use(middleware.Recover())
			handler.RegisterRoutes(e)

			go func() {
				if err := e.Start(a.config.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("server stopped", slog.String("error", err.Error()), slog.String("module", "main"))
					stop()
				}
			}()

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
}
