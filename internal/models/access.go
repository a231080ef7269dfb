package models

// AccessDecision вычисляемое состояние доступа. Никогда не сохраняется.
type AccessDecision string

const (
	// AccessTrialActive идет пробный период.
	AccessTrialActive AccessDecision = "trial-active"
	// AccessSubscriptionActive действует оплаченная подписка.
	AccessSubscriptionActive AccessDecision = "subscription-active"
	// AccessExpired доступа нет.
	AccessExpired AccessDecision = "expired"
)

// HasAccess сообщает, дает ли решение доступ к функциям приложения.
func (d AccessDecision) HasAccess() bool {
	return d != AccessExpired
}

// AccessStatus решение о доступе вместе с данными для экрана статуса подписки.
// SubscriptionActive отражает оплаченную подписку и во время пробного периода,
// когда Decision остается trial-active.
type AccessStatus struct {
	Decision           AccessDecision `json:"decision"`
	HasAccess          bool           `json:"has_access"`
	SubscriptionActive bool           `json:"subscription_active"`
	DaysRemaining      int            `json:"days_remaining"`
	Message            string         `json:"message"`
}
