// Package entitlement вычисляет состояние доступа аккаунта по сохраненной
// записи и текущему времени. Функции пакета чистые: без побочных эффектов
// и детерминированы при одинаковых входных данных.
package entitlement

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// Evaluate возвращает решение о доступе на момент now.
//
// Пробный период проверяется первым и безусловно, даже если у аккаунта есть
// действующая подписка. Все сравнения строгие: now == TrialEndDate означает,
// что пробный период уже закончился.
func Evaluate(account models.Account, now time.Time) models.AccessDecision {
	if now.Before(account.TrialEndDate) {
		return models.AccessTrialActive
	}
	if SubscriptionActive(account, now) {
		return models.AccessSubscriptionActive
	}
	return models.AccessExpired
}

// SubscriptionActive сообщает, оплачена ли подписка на момент now, без учета
// пробного периода.
func SubscriptionActive(account models.Account, now time.Time) bool {
	return account.IsSubscribed && account.SubscriptionEndDate != nil && now.Before(*account.SubscriptionEndDate)
}

// Status дополняет решение количеством оставшихся полных дней и сообщением
// для экрана статуса подписки.
func Status(account models.Account, now time.Time) models.AccessStatus {
	decision := Evaluate(account, now)
	status := models.AccessStatus{
		Decision:           decision,
		HasAccess:          decision.HasAccess(),
		SubscriptionActive: SubscriptionActive(account, now),
	}

	switch decision {
	case models.AccessTrialActive:
		status.DaysRemaining = daysBetween(now, account.TrialEndDate)
		status.Message = fmt.Sprintf("Trial period: %d days remaining", status.DaysRemaining)
	case models.AccessSubscriptionActive:
		status.DaysRemaining = daysBetween(now, *account.SubscriptionEndDate)
		status.Message = fmt.Sprintf("Subscription active: %d days remaining", status.DaysRemaining)
	default:
		if account.IsSubscribed {
			status.Message = "Subscription expired"
		} else {
			status.Message = "Trial period ended"
		}
	}
	return status
}

// daysBetween считает полные сутки между from и to, дробная часть отбрасывается.
func daysBetween(from, to time.Time) int {
	d := to.Sub(from)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}
