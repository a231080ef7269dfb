package translator

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/account"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/health"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/plan"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/subscription/activate"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/subscription/cancel"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/translation/languages"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/translation/speech"
	"github.com/magabrotheeeer/speech-translator/internal/http/handlers/translation/translate"
	"github.com/magabrotheeeer/speech-translator/internal/http/middlewarectx"
)

// Pipeline конвейер перевода и повторной озвучки.
type Pipeline interface {
	translate.Translator
	speech.Speaker
}

// Deps зависимости HTTP-маршрутов.
type Deps struct {
	Sessions middlewarectx.SessionFactory
	Tokens   register.TokenIssuer
	Plans    plan.Provider
	Pipeline Pipeline
	Health   health.Checker
	Limiter  *middlewarectx.RateLimiter
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.SessionMiddleware(deps.Sessions, logger))

		// Открытые конечные точки
		r.Post("/register", register.New(logger, deps.Tokens).ServeHTTP)
		r.Post("/login", login.New(logger, deps.Tokens).ServeHTTP)
		r.Get("/plan", plan.New(deps.Plans).ServeHTTP)
		r.Get("/languages", languages.New().ServeHTTP)
		r.Get("/health", health.New(logger, deps.Health).ServeHTTP)

		// Группа с аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireSession(logger))
			r.Use(deps.Limiter.Middleware(logger))

			r.Post("/logout", logout.New(logger).ServeHTTP)
			r.Get("/account", account.New(logger).ServeHTTP)
			r.Post("/subscription", activate.New(logger).ServeHTTP)
			r.Delete("/subscription", cancel.New(logger).ServeHTTP)

			// Функции перевода доступны только с пробным периодом или подпиской
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireAccess(logger))
				r.Post("/translations", translate.New(logger, deps.Pipeline).ServeHTTP)
				r.Post("/speech", speech.New(logger, deps.Pipeline).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
