// Package login предоставляет HTTP-обработчик входа администратора.
// По учетным данным из конфига выдается JWT-токен, связанный
// с telegram-идентификатором администратора.
package login

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/channel-gatekeeper/internal/config"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/http-server/response"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/password"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/lib/sl"
	"github.com/magabrotheeeer/channel-gatekeeper/internal/models"
)

// TokenMaker выдает административный токен.
type TokenMaker interface {
	GenerateToken(username string, adminID int64) (string, error)
}

// New возвращает HTTP-обработчик входа администратора.
func New(log *slog.Logger, accounts []config.AdminAccount, maker TokenMaker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req models.DummyLoginRequest
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

		var account *config.AdminAccount
		for i := range accounts {
			if accounts[i].Username == req.Username {
				account = &accounts[i]
				break
			}
		}
		if account == nil || password.CompareHash(account.PasswordHash, req.Password) != nil {
			log.Error("invalid credentials", slog.String("username", req.Username))
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("invalid credentials"))
			return
		}

		token, err := maker.GenerateToken(account.Username, account.TelegramID)
		if err != nil {
			log.Error("failed to generate token", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to generate token"))
			return
		}
		log.Info("admin logged in", slog.String("username", account.Username))
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"token": token,
		}))
	}
}
