// Package account реализует HTTP-обработчик экрана статуса подписки:
// запись доступа пользователя и вычисленное решение о доступе.
package account

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
)

// Result аккаунт и его статус доступа.
type Result struct {
	Account *models.Account     `json:"account"`
	Status  models.AccessStatus `json:"status"`
}

// Handler отдает текущий аккаунт.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Статус аккаунта
// @Description Возвращает запись доступа и решение: trial-active, subscription-active или expired.
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Result}
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Router /account [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account"

	sess, ok := session.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}
	status, ok := sess.Status()
	if !ok {
		h.log.Warn("anonymous session on protected route",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Result{
		Account: sess.Account(),
		Status:  status,
	}))
}
