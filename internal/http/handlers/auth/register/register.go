// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Регистрация создает пользователя вместе с записью доступа, открывает
// пробный период и сразу возвращает токен доступа.
package register

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
)

// Request входные данные для регистрации.
type Request struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// Result ответ на успешную регистрацию.
type Result struct {
	Token   string              `json:"token"`
	Account *models.Account     `json:"account"`
	Status  models.AccessStatus `json:"status"`
}

// TokenIssuer выпускает токены доступа.
type TokenIssuer interface {
	IssueToken(principalID, email string) (string, error)
}

// Handler обрабатывает запросы регистрации.
type Handler struct {
	log      *slog.Logger
	tokens   TokenIssuer
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, tokens TokenIssuer) *Handler {
	return &Handler{
		log:      log,
		tokens:   tokens,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация пользователя
// @Description Создает пользователя с пробным периодом и возвращает токен доступа.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Email и пароль"
// @Success 201 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 503 {object} response.ErrorResponse "Хранилище недоступно"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

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
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	sess, ok := session.FromContext(r.Context())
	if !ok {
		log.Error("session missing in request context")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	if err := sess.SignUp(r.Context(), req.Email, req.Password); err != nil {
		log.Error("sign up failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	principalID, _ := sess.PrincipalID()
	token, err := h.tokens.IssueToken(principalID, req.Email)
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	status, _ := sess.Status()

	log.Info("user registered", slog.String("account_id", principalID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(Result{
		Token:   token,
		Account: sess.Account(),
		Status:  status,
	}))
}
