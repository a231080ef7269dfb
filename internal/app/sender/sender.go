// Package sender собирает отправитель email-уведомлений из очередей RabbitMQ.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/speech-translator/internal/config"
	"github.com/magabrotheeeer/speech-translator/internal/grpc/client"
	"github.com/magabrotheeeer/speech-translator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/lib/smtp"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	senderservice "github.com/magabrotheeeer/speech-translator/internal/services/sender"
)

// App потребляет уведомления и отправляет письма.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	authClient    *client.AuthClient
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и сервису идентификации.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	authClient, err := client.NewAuthClient(cfg.GRPCAuthAddress)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	price := models.Price{AmountMinor: cfg.Plan.PriceMinor, Currency: cfg.Plan.Currency}
	senderService := senderservice.NewService(smtp.NewTransport(cfg.SMTP, logger), authClient, price, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		authClient:    authClient,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителей обеих очередей и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueTrialEnding, a.logger, func(body []byte) error {
		return a.senderService.SendTrialEnding(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueTrialEnding), sl.Err(err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueSubscription, a.logger, func(body []byte) error {
		return a.senderService.SendSubscriptionChanged(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueSubscription), sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.authClient.Close(); err != nil {
		a.logger.Error("failed to close auth client", sl.Err(err))
	}
	return nil
}
