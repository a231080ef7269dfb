package sender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/lib/smtp"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/entitlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEntitlements struct {
	mock.Mock
}

func (m *MockEntitlements) GetStatus(ctx context.Context, principalID string) (models.AccessStatus, error) {
	args := m.Called(ctx, principalID)
	return args.Get(0).(models.AccessStatus), args.Error(1)
}

// accountEntitlements вычисляет статус по записям аккаунтов так же, как сервис авторизации.
type accountEntitlements struct {
	accounts map[string]models.Account
	now      time.Time
}

func (a accountEntitlements) GetStatus(_ context.Context, principalID string) (models.AccessStatus, error) {
	account, ok := a.accounts[principalID]
	if !ok {
		return models.AccessStatus{}, fmt.Errorf("client.GetStatus: %w", errs.ErrNotFound)
	}
	return entitlement.Status(account, a.now), nil
}

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

// recordingWriter запоминает тело письма.
type recordingWriter struct {
	written []byte
	closed  bool
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.written = append(w.written, p...)
	return len(p), nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var testPrice = models.Price{AmountMinor: 1999, Currency: "EUR"}

// expectDelivery настраивает успешную отправку одного письма.
func expectDelivery(tr *MockTransport, recipient string) (*MockSMTPClient, *recordingWriter) {
	client := new(MockSMTPClient)
	writer := &recordingWriter{}

	tr.On("GetSMTPUser").Return("noreply@example.com")
	tr.On("Connect").Return(client, nil).Once()
	client.On("Mail", "noreply@example.com").Return(nil).Once()
	client.On("Rcpt", recipient).Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return client, writer
}

func TestSendTrialEnding(t *testing.T) {
	body := []byte(`{"account_id":"acc-1","email":"user@example.com","trial_end_date":"2026-03-06T12:00:00Z"}`)

	t.Run("trial account receives reminder", func(t *testing.T) {
		tr := new(MockTransport)
		ent := new(MockEntitlements)
		ent.On("GetStatus", mock.Anything, "acc-1").Return(models.AccessStatus{Decision: models.AccessTrialActive, HasAccess: true}, nil).Once()
		client, writer := expectDelivery(tr, "user@example.com")

		svc := NewService(tr, ent, testPrice, newNoopLogger())
		err := svc.SendTrialEnding(context.Background(), body)

		require.NoError(t, err)
		msg := string(writer.written)
		assert.Contains(t, msg, "To: user@example.com")
		assert.Contains(t, msg, "Subject: Your Speech Translator trial ends soon")
		assert.Contains(t, msg, "March 6, 2026 12:00 UTC")
		assert.Contains(t, msg, "19.99 EUR")
		assert.True(t, writer.closed)
		tr.AssertExpectations(t)
		client.AssertExpectations(t)
		ent.AssertExpectations(t)
	})

	t.Run("subscribed account is skipped", func(t *testing.T) {
		tr := new(MockTransport)
		ent := new(MockEntitlements)
		ent.On("GetStatus", mock.Anything, "acc-1").Return(models.AccessStatus{Decision: models.AccessTrialActive, HasAccess: true, SubscriptionActive: true}, nil).Once()

		svc := NewService(tr, ent, testPrice, newNoopLogger())
		err := svc.SendTrialEnding(context.Background(), body)

		require.NoError(t, err)
		tr.AssertNotCalled(t, "Connect")
	})

	t.Run("auth service unavailable is returned for retry", func(t *testing.T) {
		tr := new(MockTransport)
		ent := new(MockEntitlements)
		ent.On("GetStatus", mock.Anything, "acc-1").
			Return(models.AccessStatus{}, fmt.Errorf("client.GetStatus: %w", errs.ErrUpstreamUnavailable)).Once()

		svc := NewService(tr, ent, testPrice, newNoopLogger())
		err := svc.SendTrialEnding(context.Background(), body)

		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrUpstreamUnavailable))
		tr.AssertNotCalled(t, "Connect")
	})

	t.Run("unknown account is dropped", func(t *testing.T) {
		tr := new(MockTransport)
		ent := new(MockEntitlements)
		ent.On("GetStatus", mock.Anything, "acc-1").
			Return(models.AccessStatus{}, fmt.Errorf("client.GetStatus: %w", errs.ErrNotFound)).Once()

		svc := NewService(tr, ent, testPrice, newNoopLogger())
		err := svc.SendTrialEnding(context.Background(), body)

		require.NoError(t, err)
		tr.AssertNotCalled(t, "Connect")
		ent.AssertExpectations(t)
	})

	t.Run("malformed message is dropped", func(t *testing.T) {
		tr := new(MockTransport)
		ent := new(MockEntitlements)

		svc := NewService(tr, ent, testPrice, newNoopLogger())
		err := svc.SendTrialEnding(context.Background(), []byte(`not json`))

		require.NoError(t, err)
		ent.AssertNotCalled(t, "GetStatus", mock.Anything, mock.Anything)
	})

	t.Run("smtp connection error", func(t *testing.T) {
		tr := new(MockTransport)
		ent := new(MockEntitlements)
		ent.On("GetStatus", mock.Anything, "acc-1").Return(models.AccessStatus{Decision: models.AccessExpired}, nil).Once()
		tr.On("GetSMTPUser").Return("noreply@example.com")
		tr.On("Connect").Return(nil, errors.New("connection refused")).Once()

		svc := NewService(tr, ent, testPrice, newNoopLogger())
		err := svc.SendTrialEnding(context.Background(), body)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestSendTrialEnding_SubscribedDuringTrial(t *testing.T) {
	now := time.Date(2026, 3, 5, 16, 0, 0, 0, time.UTC)
	trialEnd := now.Add(20 * time.Hour)
	subEnd := now.AddDate(0, 1, 0)
	checker := accountEntitlements{
		now: now,
		accounts: map[string]models.Account{
			"paid":  {ID: "paid", Email: "paid@example.com", TrialEndDate: trialEnd, IsSubscribed: true, SubscriptionEndDate: &subEnd},
			"trial": {ID: "trial", Email: "trial@example.com", TrialEndDate: trialEnd},
		},
	}
	notice := func(id string) []byte {
		return []byte(fmt.Sprintf(`{"account_id":%q,"email":"%s@example.com","trial_end_date":%q}`,
			id, id, trialEnd.Format(time.RFC3339)))
	}

	tr := new(MockTransport)
	client, writer := expectDelivery(tr, "trial@example.com")
	svc := NewService(tr, checker, testPrice, newNoopLogger())

	require.NoError(t, svc.SendTrialEnding(context.Background(), notice("paid")))
	require.NoError(t, svc.SendTrialEnding(context.Background(), notice("trial")))

	tr.AssertNumberOfCalls(t, "Connect", 1)
	assert.Contains(t, string(writer.written), "To: trial@example.com")
	client.AssertExpectations(t)
}

func TestSendSubscriptionChanged(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		expectedSubject string
		expectedText    string
	}{
		{
			name:            "activation",
			body:            `{"account_id":"acc-1","email":"user@example.com","operation":"activate","months":1,"subscription_end_date":"2026-04-01T09:30:00Z"}`,
			expectedSubject: "Subject: Your Speech Translator subscription is active",
			expectedText:    "active until April 1, 2026 09:30 UTC",
		},
		{
			name:            "cancellation",
			body:            `{"account_id":"acc-1","email":"user@example.com","operation":"cancel","months":0,"subscription_end_date":"2026-03-01T09:30:00Z"}`,
			expectedSubject: "Subject: Your Speech Translator subscription has been cancelled",
			expectedText:    "access to translation has ended",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(MockTransport)
			client, writer := expectDelivery(tr, "user@example.com")

			svc := NewService(tr, new(MockEntitlements), testPrice, newNoopLogger())
			err := svc.SendSubscriptionChanged(context.Background(), []byte(tt.body))

			require.NoError(t, err)
			assert.Contains(t, string(writer.written), tt.expectedSubject)
			assert.Contains(t, string(writer.written), tt.expectedText)
			client.AssertExpectations(t)
		})
	}
}

func TestSendSubscriptionChanged_Dropped(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{`},
		{name: "missing email", body: `{"account_id":"acc-1","operation":"cancel"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := new(MockTransport)
			svc := NewService(tr, new(MockEntitlements), testPrice, newNoopLogger())

			err := svc.SendSubscriptionChanged(context.Background(), []byte(tt.body))

			require.NoError(t, err)
			tr.AssertNotCalled(t, "Connect")
		})
	}
}

func TestSendEmail_RcptError(t *testing.T) {
	tr := new(MockTransport)
	client := new(MockSMTPClient)
	tr.On("GetSMTPUser").Return("noreply@example.com")
	tr.On("Connect").Return(client, nil).Once()
	client.On("Mail", "noreply@example.com").Return(nil).Once()
	client.On("Rcpt", "user@example.com").Return(errors.New("mailbox unavailable")).Once()
	client.On("Close").Return(nil).Once()

	svc := NewService(tr, new(MockEntitlements), testPrice, newNoopLogger())
	err := svc.sendEmail([]string{"user@example.com"}, "subject", "text")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailbox unavailable")
	client.AssertNotCalled(t, "Data")
	client.AssertExpectations(t)
}
