// Package payment реализует симулированный платежный шлюз.
//
// Списание всегда проходит успешно, но выполняется не более одного раза
// для каждого периода подписки аккаунта. Повтор той же активации (например,
// после сбоя записи аккаунта) получает исходный результат, а продление после
// успешной активации открывает новый период и списывается заново.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

const chargeTTL = 62 * 24 * time.Hour

// Store хранит результаты списаний по расчетным периодам.
type Store interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	Get(ctx context.Context, key string, result any) (bool, error)
}

// Service симулированный платежный шлюз.
type Service struct {
	store Store
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(store Store, log *slog.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
	}
}

func chargeKey(principalID, period string) string {
	return fmt.Sprintf("charge:%s:%s", principalID, period)
}

// Charge списывает стоимость тарифа с аккаунта за период period
// (см. models.Account.BillingPeriod). Повторное списание за тот же период
// возвращает исходный результат с признаком Duplicate.
func (s *Service) Charge(ctx context.Context, principalID, period string, price models.Price) (models.ChargeResult, error) {
	const op = "payment.Charge"

	if period == "" {
		return models.ChargeResult{}, fmt.Errorf("%s: %w", op, errs.Validation("billing period is required"))
	}
	key := chargeKey(principalID, period)
	result := models.ChargeResult{
		PaymentID: uuid.NewString(),
		Success:   true,
		Price:     price,
	}

	created, err := s.store.SetNX(ctx, key, result, chargeTTL)
	if err != nil {
		return models.ChargeResult{}, fmt.Errorf("%s: %w", op, errs.Classify(err))
	}
	if created {
		s.log.Info("payment charged",
			slog.String("principal_id", principalID),
			slog.String("period", period),
			slog.String("payment_id", result.PaymentID),
			slog.String("amount", price.String()))
		return result, nil
	}

	var previous models.ChargeResult
	found, err := s.store.Get(ctx, key, &previous)
	if err != nil {
		return models.ChargeResult{}, fmt.Errorf("%s: %w", op, errs.Classify(err))
	}
	if !found {
		return models.ChargeResult{}, fmt.Errorf("%s: %w: charge record vanished", op, errs.ErrUpstreamPaymentFailure)
	}
	previous.Duplicate = true
	s.log.Info("payment already charged for this period",
		slog.String("principal_id", principalID),
		slog.String("period", period),
		slog.String("payment_id", previous.PaymentID))
	return previous, nil
}
