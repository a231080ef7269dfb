package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// PublishMessage публикует сообщение в RabbitMQ.
func PublishMessage(ch *amqp.Channel, exchange string, routingkey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует доменные уведомления в exchange notifications.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает новый экземпляр Publisher.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishSubscriptionEvent публикует событие активации или отмены подписки.
func (p *Publisher) PublishSubscriptionEvent(ctx context.Context, event models.SubscriptionEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return PublishMessage(p.ch, ExchangeNotifications, RoutingKeySubscription, event)
}

// PublishTrialEnding публикует напоминание об окончании пробного периода.
func (p *Publisher) PublishTrialEnding(ctx context.Context, notice models.TrialEndingNotice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return PublishMessage(p.ch, ExchangeNotifications, RoutingKeyTrialEnding, notice)
}
