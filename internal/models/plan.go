package models

import "fmt"

// Price стоимость в минорных единицах валюты (центах).
type Price struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// String форматирует цену как "19.99 EUR".
func (p Price) String() string {
	return fmt.Sprintf("%d.%02d %s", p.AmountMinor/100, p.AmountMinor%100, p.Currency)
}

// Plan единственный тариф приложения.
type Plan struct {
	Price     Price `json:"price"`
	TrialDays int   `json:"trial_days"`
}

// ChargeResult результат списания платежным шлюзом.
type ChargeResult struct {
	PaymentID string `json:"payment_id"`
	Success   bool   `json:"success"`
	Duplicate bool   `json:"duplicate"` // Повторное списание в том же расчетном периоде
	Price     Price  `json:"price"`
}
