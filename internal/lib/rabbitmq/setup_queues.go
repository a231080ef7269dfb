package rabbitmq

// ExchangeNotifications exchange всех уведомлений.
const ExchangeNotifications = "notifications"

// Ключи маршрутизации и очереди уведомлений.
const (
	RoutingKeyTrialEnding  = "trial_ending"
	RoutingKeySubscription = "subscription_changed"

	QueueTrialEnding  = "notification.trial_ending"
	QueueSubscription = "notification.subscription"
)

// QueueConfig описывает очередь и ключ, с которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые слушает отправитель уведомлений.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueTrialEnding, RoutingKey: RoutingKeyTrialEnding},
		{QueueName: QueueSubscription, RoutingKey: RoutingKeySubscription},
	}
}
