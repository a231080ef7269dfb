// Package sender отправляет письма-уведомления об окончании пробного периода
// и об изменениях подписки.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/lib/smtp"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

const dateLayout = "January 2, 2006 15:04 MST"

// EntitlementChecker запрашивает текущий статус доступа у сервиса авторизации.
type EntitlementChecker interface {
	GetStatus(ctx context.Context, principalID string) (models.AccessStatus, error)
}

// Service формирует и отправляет письма.
type Service struct {
	transport    smtp.TransportInterface
	entitlements EntitlementChecker
	price        models.Price
	log          *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(transport smtp.TransportInterface, entitlements EntitlementChecker, price models.Price, log *slog.Logger) *Service {
	return &Service{
		transport:    transport,
		entitlements: entitlements,
		price:        price,
		log:          log,
	}
}

// SendTrialEnding отправляет напоминание об окончании пробного периода.
// Аккаунты с оплаченной подпиской пропускаются, даже если пробный период
// еще идет. Ошибка возвращается (и сообщение возвращается в очередь) только
// при недоступности сервиса авторизации, остальные сообщения отбрасываются.
func (s *Service) SendTrialEnding(ctx context.Context, body []byte) error {
	const op = "sender.SendTrialEnding"
	log := s.log.With(slog.String("op", op))

	var notice models.TrialEndingNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		log.Error("failed to unmarshal message body, dropping", sl.Err(err))
		return nil
	}

	status, err := s.entitlements.GetStatus(ctx, notice.AccountID)
	if err != nil {
		if errors.Is(err, errs.ErrUpstreamUnavailable) {
			log.Warn("auth service unavailable, retry later", slog.String("account_id", notice.AccountID), sl.Err(err))
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Error("failed to check entitlement, dropping", slog.String("account_id", notice.AccountID), sl.Err(err))
		return nil
	}
	if status.SubscriptionActive {
		log.Info("account already subscribed, skipping", slog.String("account_id", notice.AccountID))
		return nil
	}

	subject := "Your Speech Translator trial ends soon"
	text := fmt.Sprintf("Hello!\n\n"+
		"Your free trial of Speech Translator ends on %s.\n"+
		"Subscribe for %s per month to keep translating your conversations.\n",
		notice.TrialEndDate.UTC().Format(dateLayout), s.price.String())

	return s.sendEmail([]string{notice.Email}, subject, text)
}

// SendSubscriptionChanged подтверждает активацию или отмену подписки.
func (s *Service) SendSubscriptionChanged(_ context.Context, body []byte) error {
	const op = "sender.SendSubscriptionChanged"
	log := s.log.With(slog.String("op", op))

	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal message body, dropping", sl.Err(err))
		return nil
	}
	if event.Email == "" {
		log.Warn("subscription event without email, dropping", slog.String("account_id", event.AccountID))
		return nil
	}

	var subject, text string
	switch {
	case event.Months == 0:
		subject = "Your Speech Translator subscription has been cancelled"
		text = "Hello!\n\nYour subscription has been cancelled and access to translation has ended.\n" +
			"You can subscribe again at any time from the app.\n"
	default:
		until := ""
		if event.SubscriptionEndDate != nil {
			until = " until " + event.SubscriptionEndDate.UTC().Format(dateLayout)
		}
		subject = "Your Speech Translator subscription is active"
		text = fmt.Sprintf("Hello!\n\nThank you for subscribing. Your subscription is active%s.\n", until)
	}

	return s.sendEmail([]string{event.Email}, subject, text)
}

func (s *Service) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
