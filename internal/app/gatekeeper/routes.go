// Package gatekeeper предоставляет маршруты для основного приложения.
package gatekeeper

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/config"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/decide"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/end"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/extend"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/health"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/login"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/plans"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/receipt"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/register"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/resendinvite"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/handlers/selectplan"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/mware"
	jwtlib "github.com/magabrotheeeer/channel-gatekeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/services/lifecycle"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, engine *lifecycle.Service,
	maker *jwtlib.Maker, accounts []config.AdminAccount, registry *prometheus.Registry) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(50), 100)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mware.RateLimitMiddleware(limiter, logger))

		// Пользовательский контур: действия от имени бота, без токена
		r.Post("/users", register.New(logger, engine).ServeHTTP)
		r.Get("/plans", plans.New(logger, engine).ServeHTTP)
		r.Post("/users/{userID}/plan", selectplan.New(logger, engine).ServeHTTP)
		r.Post("/users/{userID}/receipts", receipt.New(logger, engine).ServeHTTP)
		r.Post("/users/{userID}/invite", resendinvite.New(logger, engine).ServeHTTP)

		r.Post("/login", login.New(logger, accounts, maker).ServeHTTP)

		// Административный контур с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(mware.JWTMiddleware(maker, logger))
			r.Post("/payments/{paymentID}/decision", decide.New(logger, engine).ServeHTTP)
			r.Post("/users/{userID}/extend", extend.New(logger, engine).ServeHTTP)
			r.Post("/users/{userID}/end", end.New(logger, engine).ServeHTTP)
		})
	})

	r.Get("/health", health.New().ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
