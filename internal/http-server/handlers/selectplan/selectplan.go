// Package selectplan предоставляет HTTP-обработчик выбора тарифного плана.
// Выбор можно менять до оплаты; прежние платежи не затрагиваются.
package selectplan

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

// PlanSelector определяет контракт выбора плана пользователем.
type PlanSelector interface {
	SelectPlan(ctx context.Context, userID int64, planID string) (*models.Plan, error)
}

// New возвращает HTTP-обработчик выбора плана.
func New(log *slog.Logger, selector PlanSelector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.selectplan.New"

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

		var req models.DummySelectPlanRequest
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

		plan, err := selector.SelectPlan(r.Context(), userID, req.PlanID)
		if err != nil {
			switch {
			case errors.Is(err, lifecycle.ErrUnknownPlan):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("unknown plan"))
			case errors.Is(err, lifecycle.ErrUserNotFound):
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.Error("user not found"))
			default:
				log.Error("failed to select plan", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to select plan"))
			}
			return
		}
		log.Info("plan selected",
			slog.Int64("user_id", userID), slog.String("plan_id", plan.ID))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"plan": plan,
		}))
	}
}
