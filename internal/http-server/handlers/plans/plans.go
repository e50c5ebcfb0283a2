// Package plans предоставляет HTTP-обработчик каталога тарифных планов.
package plans

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/response"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
)

// PlanLister определяет контракт чтения каталога планов.
type PlanLister interface {
	ListPlans(ctx context.Context) ([]*models.Plan, error)
}

// New возвращает HTTP-обработчик списка планов.
func New(log *slog.Logger, lister PlanLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.plans.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		result, err := lister.ListPlans(r.Context())
		if err != nil {
			log.Error("failed to list plans", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to list plans"))
			return
		}
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"plans": result,
		}))
	}
}
