// Package health предоставляет HTTP-обработчик проверки живости сервиса.
package health

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/response"
)

// New возвращает HTTP-обработчик, отвечающий статусом OK.
func New() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, response.OK())
	}
}
