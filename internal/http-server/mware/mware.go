// Package mware содержит middleware для HTTP-сервера: проверку
// административного JWT-токена и ограничение частоты запросов.
package mware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	jwtlib "github.com/magabrotheeeer/channel-gatekeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/response"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
)

type contextKey string

// AdminKey — ключ контекста с claims администратора после успешной проверки токена.
const AdminKey contextKey = "admin"

// TokenParser проверяет административный токен и возвращает его claims.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwtlib.AdminClaims, error)
}

// AdminClaims извлекает claims администратора из контекста запроса.
func AdminClaims(ctx context.Context) (*jwtlib.AdminClaims, bool) {
	claims, ok := ctx.Value(AdminKey).(*jwtlib.AdminClaims)
	return claims, ok
}

// JWTMiddleware возвращает middleware, которое проверяет JWT-токен в заголовке
// Authorization и кладёт claims администратора в контекст запроса.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "mware.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))

				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))

				return
			}

			ctx := context.WithValue(r.Context(), AdminKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware ограничивает общий поток входящих запросов.
func RateLimitMiddleware(limiter *rate.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				log.Error("too many requests")
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
