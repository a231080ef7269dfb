// Package translator собирает HTTP-приложение переводчика: хранилище,
// кеш, провайдер идентификации, жизненный цикл подписки и конвейер перевода.
package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/speech-translator/internal/ai"
	"github.com/magabrotheeeer/speech-translator/internal/cache"
	"github.com/magabrotheeeer/speech-translator/internal/config"
	"github.com/magabrotheeeer/speech-translator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/speech-translator/internal/lib/jwt"
	"github.com/magabrotheeeer/speech-translator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/migrations"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	accountservice "github.com/magabrotheeeer/speech-translator/internal/services/account"
	authservice "github.com/magabrotheeeer/speech-translator/internal/services/auth"
	paymentservice "github.com/magabrotheeeer/speech-translator/internal/services/payment"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
	subscriptionservice "github.com/magabrotheeeer/speech-translator/internal/services/subscription"
	translationservice "github.com/magabrotheeeer/speech-translator/internal/services/translation"
	"github.com/magabrotheeeer/speech-translator/internal/storage/objectstore"
	"github.com/magabrotheeeer/speech-translator/internal/storage/repository"

	_ "github.com/magabrotheeeer/speech-translator/docs"
)

// App HTTP-приложение переводчика.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New создает приложение и подключает все зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{logger: logger}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	app.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, err
	}
	app.cache = cacheRedis

	var events subscriptionservice.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, err
		}
		app.ch = ch
		events = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, subscription events are disabled")
	}

	audioStore, err := objectstore.New(ctx, cfg.ObjectStorage)
	if err != nil {
		app.close()
		return nil, err
	}

	plan := models.Plan{
		Price:     models.Price{AmountMinor: cfg.Plan.PriceMinor, Currency: cfg.Plan.Currency},
		TrialDays: cfg.Plan.TrialDays,
	}

	accounts := accountservice.NewService(db, cacheRedis, cfg.AccountTTL, logger)
	identity := authservice.NewService(db, cacheRedis, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), logger)
	payments := paymentservice.New(cacheRedis, logger)
	lifecycle := subscriptionservice.NewManager(accounts, payments, events, plan, cfg.UpstreamTimeout, logger)
	pipeline := translationservice.NewService(ai.New(cfg.OpenAI), audioStore, cfg.UpstreamTimeout, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Sessions: session.NewFactory(identity, accounts, lifecycle, plan.TrialDays, logger),
		Tokens:   identity,
		Plans:    lifecycle,
		Pipeline: pipeline,
		Health:   db,
		Limiter:  middlewarectx.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		if err != nil {
			return fmt.Errorf("translator.Run: %w", err)
		}
		return nil
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}
