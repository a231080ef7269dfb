// Package subscription реализует жизненный цикл подписки: активацию, отмену
// и статические параметры тарифа.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/metrics"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// Операции жизненного цикла.
const (
	OperationActivate = "activate"
	OperationCancel   = "cancel"
)

// AccountStore определяет методы хранилища записей доступа.
type AccountStore interface {
	Get(ctx context.Context, id string) (*models.Account, error)
	Update(ctx context.Context, id string, upd models.AccountUpdate) error
}

// PaymentGateway списывает стоимость подписки.
type PaymentGateway interface {
	Charge(ctx context.Context, principalID, period string, price models.Price) (models.ChargeResult, error)
}

// EventPublisher публикует события об изменении подписки.
type EventPublisher interface {
	PublishSubscriptionEvent(ctx context.Context, event models.SubscriptionEvent) error
}

// Manager выполняет переходы жизненного цикла подписки и фиксирует их в хранилище.
type Manager struct {
	accounts AccountStore
	payments PaymentGateway
	events   EventPublisher
	plan     models.Plan
	timeout  time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewManager создает новый экземпляр Manager. events может быть nil.
func NewManager(accounts AccountStore, payments PaymentGateway, events EventPublisher,
	plan models.Plan, timeout time.Duration, log *slog.Logger) *Manager {
	return &Manager{
		accounts: accounts,
		payments: payments,
		events:   events,
		plan:     plan,
		timeout:  timeout,
		log:      log,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// Price возвращает стоимость подписки за месяц.
func (m *Manager) Price() models.Price {
	return m.plan.Price
}

// TrialDays возвращает длительность пробного периода в днях.
func (m *Manager) TrialDays() int {
	return m.plan.TrialDays
}

// Plan возвращает параметры тарифа.
func (m *Manager) Plan() models.Plan {
	return m.plan
}

func (m *Manager) tryLock(accountID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inFlight[accountID]; busy {
		return false
	}
	m.inFlight[accountID] = struct{}{}
	return true
}

func (m *Manager) unlock(accountID string) {
	m.mu.Lock()
	delete(m.inFlight, accountID)
	m.mu.Unlock()
}

// Cancel отменяет подписку. Доступ прекращается немедленно.
func (m *Manager) Cancel(ctx context.Context, accountID string) error {
	return m.Activate(ctx, accountID, 0)
}

// Activate оформляет подписку на months месяцев начиная с текущего момента.
// Новая дата окончания заменяет прежнюю, оставшийся оплаченный срок не переносится.
// months == 0 означает отмену: списание не выполняется, подписка истекает сейчас.
func (m *Manager) Activate(ctx context.Context, accountID string, months int) (err error) {
	const op = "subscription.Activate"

	operation := OperationActivate
	if months == 0 {
		operation = OperationCancel
	}
	log := m.log.With(
		slog.String("op", op),
		slog.String("account_id", accountID),
		slog.String("operation", operation),
	)
	defer func() {
		metrics.SubscriptionOperations.WithLabelValues(operation, metrics.Result(err)).Inc()
	}()

	if months < 0 {
		return fmt.Errorf("%s: %w", op, errs.Validation("months must not be negative"))
	}
	if !m.tryLock(accountID) {
		log.Warn("lifecycle operation already in progress")
		return fmt.Errorf("%s: %w", op, errs.ErrOperationInProgress)
	}
	defer m.unlock(accountID)

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	account, err := m.accounts.Get(ctx, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, errs.Classify(err))
	}

	if months > 0 {
		res, err := m.payments.Charge(ctx, accountID, account.BillingPeriod(), m.plan.Price)
		if err != nil {
			log.Error("payment failed", sl.Err(err))
			return fmt.Errorf("%s: %w", op, classifyPayment(err))
		}
		if !res.Success {
			log.Error("payment declined", slog.String("payment_id", res.PaymentID))
			return fmt.Errorf("%s: %w: payment declined", op, errs.ErrUpstreamPaymentFailure)
		}
		log.Info("payment accepted",
			slog.String("payment_id", res.PaymentID),
			slog.Bool("duplicate", res.Duplicate))
	}

	now := m.now()
	end := now.AddDate(0, months, 0)
	subscribed := true
	if err := m.accounts.Update(ctx, accountID, models.AccountUpdate{
		IsSubscribed:        &subscribed,
		SubscriptionEndDate: &end,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, errs.Classify(err))
	}
	log.Info("subscription updated", slog.Time("subscription_end_date", end))

	m.publish(ctx, log, models.SubscriptionEvent{
		AccountID:           accountID,
		Email:               account.Email,
		Operation:           operation,
		Months:              months,
		SubscriptionEndDate: &end,
		OccurredAt:          now,
	})
	return nil
}

func (m *Manager) publish(ctx context.Context, log *slog.Logger, event models.SubscriptionEvent) {
	if m.events == nil {
		return
	}
	if err := m.events.PublishSubscriptionEvent(ctx, event); err != nil {
		log.Warn("failed to publish subscription event", sl.Err(err))
	}
}

func classifyPayment(err error) error {
	classified := errs.Classify(err)
	if errors.Is(classified, errs.ErrUpstreamUnavailable) || errors.Is(classified, errs.ErrUpstreamPaymentFailure) {
		return classified
	}
	return fmt.Errorf("%w: %w", errs.ErrUpstreamPaymentFailure, err)
}
