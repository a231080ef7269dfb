// Package scheduler периодически ищет аккаунты, у которых пробный период
// заканчивается в ближайшие сутки, и публикует по ним уведомления.
// Окна соседних проверок перекрываются, поэтому каждое уведомление
// сначала резервируется в журнале и публикуется не более одного раза.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

const (
	// Interval период между проверками.
	Interval = 12 * time.Hour
	// Window горизонт, в который должен попасть конец пробного периода.
	Window = 24 * time.Hour
)

// AccountRepository ищет аккаунты без подписки по дате окончания пробного периода.
type AccountRepository interface {
	FindTrialEndingBetween(ctx context.Context, from, to time.Time) ([]*models.Account, error)
}

// NoticePublisher публикует уведомление об окончании пробного периода.
type NoticePublisher interface {
	PublishTrialEnding(ctx context.Context, notice models.TrialEndingNotice) error
}

// NoticeLedger хранит отметки об уже отправленных уведомлениях.
type NoticeLedger interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	Invalidate(ctx context.Context, key string) error
}

func noticeKey(accountID string) string {
	return "trial_notice:" + accountID
}

// Service планировщик уведомлений.
type Service struct {
	repo      AccountRepository
	publisher NoticePublisher
	ledger    NoticeLedger
	log       *slog.Logger
	now       func() time.Time
	interval  time.Duration
}

// NewService создает новый экземпляр Service.
func NewService(repo AccountRepository, publisher NoticePublisher, ledger NoticeLedger, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		ledger:    ledger,
		log:       log,
		now:       time.Now,
		interval:  Interval,
	}
}

// Run выполняет проверку сразу и затем каждые Interval до отмены ctx.
func (s *Service) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Service) runOnce(ctx context.Context) {
	if _, err := s.NotifyTrialEnding(ctx); err != nil {
		s.log.Error("trial ending run failed", sl.Err(err))
	}
}

// NotifyTrialEnding публикует уведомления по аккаунтам, пробный период которых
// заканчивается в [now, now+Window). Возвращает число опубликованных сообщений.
// Аккаунт, уже получивший уведомление, пропускается. Ошибка публикации одного
// сообщения не прерывает обработку остальных, а отметка снимается, чтобы
// следующая проверка повторила попытку.
func (s *Service) NotifyTrialEnding(ctx context.Context) (int, error) {
	const op = "scheduler.NotifyTrialEnding"
	log := s.log.With(slog.String("op", op))

	from := s.now().UTC()
	accounts, err := s.repo.FindTrialEndingBetween(ctx, from, from.Add(Window))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(accounts) == 0 {
		log.Info("no trials ending soon")
		return 0, nil
	}
	log.Info("found trials ending soon", slog.Int("count", len(accounts)))

	published := 0
	for _, account := range accounts {
		key := noticeKey(account.ID)
		// отметка живет, пока аккаунт может снова попасть в окно
		ttl := account.TrialEndDate.Sub(from) + Window
		reserved, err := s.ledger.SetNX(ctx, key, account.TrialEndDate.UTC().Format(time.RFC3339), ttl)
		if err != nil {
			log.Error("failed to reserve notice", slog.String("account_id", account.ID), sl.Err(err))
			continue
		}
		if !reserved {
			log.Debug("notice already sent", slog.String("account_id", account.ID))
			continue
		}

		notice := models.TrialEndingNotice{
			AccountID:    account.ID,
			Email:        account.Email,
			TrialEndDate: account.TrialEndDate,
		}
		if err := s.publisher.PublishTrialEnding(ctx, notice); err != nil {
			log.Error("failed to publish notice", slog.String("account_id", account.ID), sl.Err(err))
			if err := s.ledger.Invalidate(ctx, key); err != nil {
				log.Error("failed to release notice", slog.String("account_id", account.ID), sl.Err(err))
			}
			continue
		}
		published++
	}
	return published, nil
}
