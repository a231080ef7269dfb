// Package translate реализует HTTP-обработчик перевода записанной речи.
//
// Запрос передается как multipart/form-data: файл записи в поле audio
// и параметры source_language, target_language, voice.
package translate

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// MaxUploadSize ограничение размера загружаемой записи.
const MaxUploadSize = 25 << 20

// Translator выполняет конвейер перевода.
type Translator interface {
	Translate(ctx context.Context, req models.TranslationRequest) (*models.TranslationResult, error)
}

// Handler обрабатывает загрузку записи.
type Handler struct {
	log        *slog.Logger
	translator Translator
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, translator Translator) *Handler {
	return &Handler{
		log:        log,
		translator: translator,
	}
}

// ServeHTTP godoc
// @Summary Перевести запись речи
// @Description Распознает речь, переводит текст и возвращает ссылку на озвучку перевода.
// @Description Если речь уже звучит на целевом языке, языки меняются местами.
// @Tags Translation
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param audio formData file true "Запись речи"
// @Param source_language formData string true "Код исходного языка" example(en)
// @Param target_language formData string true "Код целевого языка" example(es)
// @Param voice formData string false "Голос озвучки" example(alloy)
// @Success 200 {object} response.Response{data=models.TranslationResult}
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 403 {object} response.ErrorResponse "Подписка истекла"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 503 {object} response.ErrorResponse "Сервис распознавания недоступен"
// @Router /translations [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.translation.translate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		log.Error("audio file missing", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field audio is a required field"))
		return
	}
	defer func() {
		_ = file.Close()
	}()

	audio, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read audio file", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read audio file"))
		return
	}

	result, err := h.translator.Translate(r.Context(), models.TranslationRequest{
		Audio:          audio,
		FileName:       header.Filename,
		SourceLanguage: r.FormValue("source_language"),
		TargetLanguage: r.FormValue("target_language"),
		Voice:          r.FormValue("voice"),
	})
	if err != nil {
		log.Error("translation failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("translation completed",
		slog.String("source", result.SourceLanguage),
		slog.String("target", result.TargetLanguage),
		slog.Bool("swapped", result.Swapped))
	render.JSON(w, r, response.StatusOKWithData(result))
}
