// Package extend предоставляет HTTP-обработчик ручного продления
// активной подписки администратором.
package extend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/mware"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/response"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/services/lifecycle"
)

// SubscriptionExtender определяет контракт продления подписки.
type SubscriptionExtender interface {
	ExtendSubscription(ctx context.Context, userID, adminID int64, deltaDays int) (*models.Subscription, error)
}

// New возвращает HTTP-обработчик продления подписки.
func New(log *slog.Logger, extender SubscriptionExtender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.extend.New"

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

		var req models.DummyExtendRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)
			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		sub, err := extender.ExtendSubscription(r.Context(), userID, claims.AdminID, req.Days)
		if err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrNotAuthorized):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("not authorized"))
			case errors.Is(err, lifecycle.ErrNoActiveSubscription):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("no active subscription"))
			default:
				log.Error("failed to extend subscription", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to extend subscription"))
			}
			return
		}
		log.Info("subscription extended",
			slog.Int64("user_id", userID),
			slog.Int64("admin_id", claims.AdminID),
			slog.Int("days", req.Days))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"subscription": sub,
		}))
	}
}
