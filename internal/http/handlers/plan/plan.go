// Package plan реализует HTTP-обработчик, возвращающий цену подписки
// и длительность пробного периода.
package plan

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// Provider отдает параметры тарифа.
type Provider interface {
	Plan() models.Plan
}

// Handler отдает тариф.
type Handler struct {
	plans Provider
}

// New создает новый экземпляр Handler.
func New(plans Provider) *Handler {
	return &Handler{plans: plans}
}

// ServeHTTP godoc
// @Summary Тариф
// @Description Цена ежемесячной подписки и длительность пробного периода в днях.
// @Tags Subscription
// @Produce  json
// @Success 200 {object} response.Response{data=models.Plan}
// @Router /plan [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(h.plans.Plan()))
}
