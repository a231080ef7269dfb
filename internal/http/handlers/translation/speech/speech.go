// Package speech реализует HTTP-обработчик повторной озвучки текста.
package speech

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// Request текст для озвучки и голос.
type Request struct {
	Text  string `json:"text" validate:"required"`
	Voice string `json:"voice"`
}

// Speaker синтезирует речь.
type Speaker interface {
	Speak(ctx context.Context, text, voice string) (*models.SpeechResult, error)
}

// Handler обрабатывает запросы озвучки.
type Handler struct {
	log      *slog.Logger
	speaker  Speaker
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, speaker Speaker) *Handler {
	return &Handler{
		log:      log,
		speaker:  speaker,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Озвучить текст
// @Tags Translation
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Текст и голос"
// @Success 200 {object} response.Response{data=models.SpeechResult}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Подписка истекла"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 503 {object} response.ErrorResponse "Сервис синтеза недоступен"
// @Router /speech [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.translation.speech"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	result, err := h.speaker.Speak(r.Context(), req.Text, req.Voice)
	if err != nil {
		log.Error("speech synthesis failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(result))
}
