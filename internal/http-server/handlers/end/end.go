// Package end предоставляет HTTP-обработчик досрочного завершения
// подписки администратором.
package end

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/mware"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/response"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/services/lifecycle"
)

// SubscriptionEnder определяет контракт завершения подписки.
type SubscriptionEnder interface {
	EndSubscription(ctx context.Context, userID, adminID int64) error
}

// New возвращает HTTP-обработчик завершения подписки. Сбой удаления
// из канала не откатывает завершение: подписка уже помечена истекшей.
func New(log *slog.Logger, ender SubscriptionEnder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.end.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := mware.AdminClaims(r.Context())
		if !ok {
			log.Error("missing admin claims in context")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthorized"))
			return
		}

		userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			log.Error("failed to decode user id from url", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode user id from url"))
			return
		}

		if err := ender.EndSubscription(r.Context(), userID, claims.AdminID); err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrNotAuthorized):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("not authorized"))
			case errors.Is(err, lifecycle.ErrNoActiveSubscription):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("no active subscription"))
			default:
				log.Error("failed to end subscription", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to end subscription"))
			}
			return
		}
		log.Info("subscription ended",
			slog.Int64("user_id", userID), slog.Int64("admin_id", claims.AdminID))
		render.JSON(w, r, response.OK())
	}
}
