// Package decide предоставляет HTTP-обработчик решения администратора
// по ожидающему платежу.
package decide

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

// PaymentDecider определяет контракт решения по платежу.
type PaymentDecider interface {
	DecidePayment(ctx context.Context, paymentID, adminID int64, approve bool) (*models.Subscription, error)
}

// New возвращает HTTP-обработчик решения по платежу. Решение окончательное:
// повторная попытка по тому же платежу вернет конфликт.
func New(log *slog.Logger, decider PaymentDecider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.decide.New"

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

		paymentID, err := strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
		if err != nil {
			log.Error("failed to decode payment id from url", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode payment id from url"))
			return
		}

		var req models.DummyDecisionRequest
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

		sub, err := decider.DecidePayment(r.Context(), paymentID, claims.AdminID, *req.Approve)
		if err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrNotAuthorized):
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("not authorized"))
			case errors.Is(err, lifecycle.ErrPaymentNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("payment not found"))
			case errors.Is(err, lifecycle.ErrAlreadyDecided):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("payment already decided"))
			default:
				log.Error("failed to decide payment", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to decide payment"))
			}
			return
		}
		log.Info("payment decided",
			slog.Int64("payment_id", paymentID),
			slog.Int64("admin_id", claims.AdminID),
			slog.Bool("approve", *req.Approve))
		if sub == nil {
			render.JSON(w, r, response.OK())
			return
		}
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"subscription": sub,
		}))
	}
}
