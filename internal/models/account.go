// Package models содержит доменные структуры аккаунта, решения о доступе,
// тарифа, уведомлений и результатов перевода.
package models

import (
	"strconv"
	"time"
)

// Account запись о доступе пользователя. Создается один раз при регистрации,
// изменяется только операциями активации и отмены подписки.
type Account struct {
	ID                  string     `json:"id"`                              // Идентификатор, совпадает с principal
	Email               string     `json:"email"`                           // Email для входа, неизменяем
	TrialEndDate        time.Time  `json:"trial_end_date"`                  // Окончание пробного периода, задается при создании
	SubscriptionEndDate *time.Time `json:"subscription_end_date,omitempty"` // Окончание оплаченной подписки (nil до первой покупки)
	IsSubscribed        bool       `json:"is_subscribed"`                   // Подписка покупалась хотя бы раз
	CreatedAt           time.Time  `json:"created_at"`
}

// AccountUpdate частичное обновление аккаунта. nil-поля не изменяются.
type AccountUpdate struct {
	IsSubscribed        *bool
	SubscriptionEndDate *time.Time
}

// NewAccount формирует начальную запись аккаунта: пробный период trialDays
// от момента создания, подписки нет.
func NewAccount(email string, now time.Time, trialDays int) Account {
	return Account{
		Email:        email,
		TrialEndDate: now.AddDate(0, 0, trialDays),
		IsSubscribed: false,
		CreatedAt:    now,
	}
}

// Apply возвращает копию аккаунта с примененным частичным обновлением.
func (a Account) Apply(upd AccountUpdate) Account {
	if upd.IsSubscribed != nil {
		a.IsSubscribed = *upd.IsSubscribed
	}
	if upd.SubscriptionEndDate != nil {
		end := *upd.SubscriptionEndDate
		a.SubscriptionEndDate = &end
	}
	return a
}

// BillingPeriod идентифицирует период подписки, который заменит следующая
// активация: момент окончания текущей подписки или "none", если ее не было.
// Период меняется после каждой успешной активации или отмены.
func (a Account) BillingPeriod() string {
	if a.SubscriptionEndDate == nil {
		return "none"
	}
	return strconv.FormatInt(a.SubscriptionEndDate.UTC().UnixMicro(), 10)
}
