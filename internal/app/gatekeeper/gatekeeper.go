// Package gatekeeper собирает все зависимости сервиса и управляет его
// жизненным циклом: HTTP-сервер, планировщик истечений, хранилище,
// кэш и publisher событий.
package gatekeeper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/cache"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/config"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/events"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/gateway/telegram"
	jwtlib "github.com/magabrotheeeer/channel-gatekeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/metrics"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/migrations"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/services/lifecycle"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/services/scheduler"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/storage/repository"
)

// App хранит собранные компоненты сервиса.
type App struct {
	server    *http.Server
	scheduler *scheduler.Service
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	publisher *events.Publisher
}

// New создает приложение: подключает хранилище, применяет миграции,
// поднимает кэш, publisher и телеграм-шлюз, собирает движок и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	publisher, err := events.New(cfg.URLRabbit, cfg.ExchangeRabbit)
	if err != nil {
		return nil, err
	}

	gateway, err := telegram.New(cfg.BotToken, cfg.ChannelID, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	engine := lifecycle.New(
		db,
		gateway,
		gateway,
		lifecycle.NewStaticAdminPolicy(cfg.AdminIDs),
		publisher,
		cacheRedis,
		m,
		logger,
		lifecycle.Config{
			InviteTTL:     cfg.InviteTTL,
			InviteMaxUses: cfg.InviteMemberLimit,
		},
	)
	if err = engine.Bootstrap(ctx); err != nil {
		return nil, err
	}

	maker := jwtlib.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, engine, maker, cfg.AdminAccounts, registry)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		scheduler: scheduler.New(engine, logger, cfg.SweepInterval),
		logger:    logger,
		db:        db,
		cache:     cacheRedis,
		publisher: publisher,
	}, nil
}

// Run запускает планировщик и HTTP-сервер и блокируется до отмены
// контекста либо ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.scheduler.Stop()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.scheduler.Stop()
		if cerr := a.publisher.Close(); cerr != nil {
			a.logger.Error("failed to close publisher", slog.Any("err", cerr))
		}
		if cerr := a.cache.Close(); cerr != nil {
			a.logger.Error("failed to close cache", slog.Any("err", cerr))
		}
		if cerr := a.db.DB.Close(); cerr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", cerr))
		}
		return err
	}
}
