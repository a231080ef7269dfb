// Package middlewarectx содержит HTTP middleware, которые строят сессию
// запроса по bearer-токену и ограничивают доступ к защищенным маршрутам.
//
// SessionMiddleware создает новую сессию на каждый запрос, загружает ее
// через провайдера идентификации и кладет в контекст. RequireSession
// пропускает только аутентифицированные запросы, RequireAccess дополнительно
// требует действующий пробный период или подписку.
package middlewarectx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/services/auth"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
)

// SessionFactory создает сессии для запросов.
type SessionFactory interface {
	New() *session.Session
}

// SessionMiddleware возвращает middleware, которое загружает сессию запроса.
//
// Запрос без заголовка Authorization получает анонимную сессию. Недоступность
// хранилища токенов или аккаунтов завершает запрос с кодом 503.
func SessionMiddleware(factory SessionFactory, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			ctx := r.Context()
			if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && token != "" {
				ctx = auth.WithToken(ctx, token)
			}

			sess := factory.New()
			if err := sess.Load(ctx); err != nil && !errors.Is(err, errs.ErrNotFound) {
				log.Error("failed to load session", sl.Err(err))
				response.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(ctx, sess)))
		})
	}
}

// RequireSession пропускает только запросы с аутентифицированной сессией.
func RequireSession(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok || sess.State() != session.StateAuthenticated {
				log.Warn("missing or invalid authorization",
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
