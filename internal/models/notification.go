package models

import "time"

// TrialEndingNotice публикуется планировщиком для аккаунтов,
// у которых пробный период заканчивается в ближайшие сутки.
type TrialEndingNotice struct {
	AccountID    string    `json:"account_id"`
	Email        string    `json:"email"`
	TrialEndDate time.Time `json:"trial_end_date"`
}

// SubscriptionEvent публикуется после каждой активации или отмены подписки.
type SubscriptionEvent struct {
	AccountID           string     `json:"account_id"`
	Email               string     `json:"email"`
	Operation           string     `json:"operation"` // "activate" или "cancel"
	Months              int        `json:"months"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"`
	OccurredAt          time.Time  `json:"occurred_at"`
}
