// Package activate реализует HTTP-обработчик покупки месячной подписки.
package activate

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

// Months длительность покупаемой подписки.
const Months = 1

// Result аккаунт после изменения подписки.
type Result struct {
	Account *models.Account     `json:"account"`
	Status  models.AccessStatus `json:"status"`
}

// Handler обрабатывает покупку подписки.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Оформить подписку
// @Description Списывает оплату за месяц и продлевает доступ на месяц от текущего момента.
// @Tags Subscription
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Result}
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 402 {object} response.ErrorResponse "Платеж отклонен"
// @Failure 409 {object} response.ErrorResponse "Операция уже выполняется"
// @Failure 503 {object} response.ErrorResponse "Сервис недоступен"
// @Router /subscription [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.activate"

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

	if err := sess.RefreshAfterSubscriptionChange(r.Context(), Months); err != nil {
		log.Error("subscription activation failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	status, _ := sess.Status()
	account := sess.Account()

	log.Info("subscription activated", slog.String("account_id", account.ID))
	render.JSON(w, r, response.StatusOKWithData(Result{
		Account: account,
		Status:  status,
	}))
}
