// Package receipt предоставляет HTTP-обработчик отправки чека об оплате.
package receipt

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

	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/response"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/services/lifecycle"
)

// ReceiptSubmitter определяет контракт создания платежа по чеку.
type ReceiptSubmitter interface {
	SubmitReceipt(ctx context.Context, userID int64, receiptRef string) (int64, error)
}

// New возвращает HTTP-обработчик отправки чека.
func New(log *slog.Logger, submitter ReceiptSubmitter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.receipt.New"

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

		var req models.DummyReceiptRequest
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

		paymentID, err := submitter.SubmitReceipt(r.Context(), userID, req.ReceiptRef)
		if err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrNoPlanSelected):
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, response.Error("no plan selected"))
			case errors.Is(err, lifecycle.ErrUserNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("user not found"))
			default:
				log.Error("failed to submit receipt", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to submit receipt"))
			}
			return
		}
		log.Info("receipt submitted",
			slog.Int64("user_id", userID), slog.Int64("payment_id", paymentID))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"payment_id": paymentID,
		}))
	}
}
