// Package logout реализует HTTP-обработчик выхода: токен запроса отзывается,
// сессия становится анонимной.
package logout

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
)

// Handler обрабатывает запросы выхода.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Отзывает текущий токен доступа.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 503 {object} response.ErrorResponse "Хранилище токенов недоступно"
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sess, ok := session.FromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}
	principalID, _ := sess.PrincipalID()

	if err := sess.SignOut(r.Context()); err != nil {
		log.Error("sign out failed", slog.String("account_id", principalID), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("user signed out", slog.String("account_id", principalID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "signed out",
	}))
}
