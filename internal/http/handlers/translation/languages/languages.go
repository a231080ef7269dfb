// Package languages реализует HTTP-обработчик списка поддерживаемых языков и голосов.
package languages

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/translation"
)

// Result языки перевода и голоса синтеза.
type Result struct {
	Languages    []models.Language `json:"languages"`
	Voices       []models.Voice    `json:"voices"`
	DefaultVoice string            `json:"default_voice"`
}

// Handler отдает каталог языков.
type Handler struct{}

// New создает новый экземпляр Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Языки и голоса
// @Tags Translation
// @Produce  json
// @Success 200 {object} response.Response{data=Result}
// @Router /languages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(Result{
		Languages:    translation.Languages(),
		Voices:       translation.Voices(),
		DefaultVoice: translation.DefaultVoice,
	}))
}
