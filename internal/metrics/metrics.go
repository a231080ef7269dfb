// Package metrics содержит счетчики Prometheus сервиса переводчика.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения метки result.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// AccessChecks считает проверки доступа по принятому решению.
	AccessChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "translator",
		Name:      "access_checks_total",
		Help:      "Number of entitlement checks by decision.",
	}, []string{"decision"})

	// SubscriptionOperations считает операции активации и отмены подписки.
	SubscriptionOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "translator",
		Name:      "subscription_operations_total",
		Help:      "Number of subscription lifecycle operations by operation and result.",
	}, []string{"operation", "result"})

	// TranslationRequests считает запуски конвейера перевода.
	TranslationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "translator",
		Name:      "translation_requests_total",
		Help:      "Number of translation pipeline runs by result.",
	}, []string{"result"})
)

// Result возвращает значение метки result для ошибки.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}
