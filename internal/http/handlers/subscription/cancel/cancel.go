// Package cancel реализует HTTP-обработчик отмены подписки.
// Отмена действует немедленно: доступ заканчивается в момент запроса.
package cancel

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
)

// Result аккаунт после отмены.
type Result struct {
	Account *models.Account     `json:"account"`
	Status  models.AccessStatus `json:"status"`
	Message string              `json:"message"`
}

// Handler обрабатывает отмену подписки.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Отменить подписку
// @Description Завершает подписку немедленно. Оплата не списывается.
// @Tags Subscription
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Result}
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 409 {object} response.ErrorResponse "Операция уже выполняется"
// @Failure 503 {object} response.ErrorResponse "Сервис недоступен"
// @Router /subscription [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.cancel"

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

	if err := sess.RefreshAfterSubscriptionChange(r.Context(), 0); err != nil {
		log.Error("subscription cancellation failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	status, _ := sess.Status()
	account := sess.Account()

	log.Info("subscription cancelled", slog.String("account_id", account.ID))
	render.JSON(w, r, response.StatusOKWithData(Result{
		Account: account,
		Status:  status,
		Message: "subscription cancelled, access has ended",
	}))
}
