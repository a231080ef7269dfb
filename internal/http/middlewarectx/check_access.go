package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/speech-translator/internal/http/response"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
)

// RequireAccess пропускает запрос, только если у пользователя идет пробный
// период или действует подписка. Иначе отвечает 403.
func RequireAccess(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok || sess.State() != session.StateAuthenticated {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}
			if !sess.CheckAccess() {
				principalID, _ := sess.PrincipalID()
				log.Info("subscription expired, access denied",
					slog.String("account_id", principalID),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("subscription expired, access denied"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
