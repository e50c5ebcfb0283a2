// Package resendinvite предоставляет HTTP-обработчик повторной выдачи
// одноразовой ссылки-приглашения действующему подписчику.
package resendinvite

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/response"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/services/lifecycle"
)

// InviteResender определяет контракт повторной выдачи приглашения.
type InviteResender interface {
	ResendInvite(ctx context.Context, userID int64) (string, error)
}

// New возвращает HTTP-обработчик повторной выдачи приглашения.
func New(log *slog.Logger, resender InviteResender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resendinvite.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
		if err != nil {
			log.Error("failed to decode user id from url", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode user id from url"))
			return
		}

		invite, err := resender.ResendInvite(r.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrNoActiveSubscription):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("no active subscription"))
			default:
				log.Error("failed to resend invite", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to resend invite"))
			}
			return
		}
		log.Info("invite resent", slog.Int64("user_id", userID))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"invite_link": invite,
		}))
	}
}
