// Package session реализует контекст сессии пользователя: загрузку
// аутентифицированного аккаунта, вход, регистрацию, выход и проверку доступа.
//
// Сессия создается явно через Factory для каждого запроса и передается
// через context.Context. Глобального состояния нет.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/metrics"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/entitlement"
)

// State состояние сессии.
type State int

// Состояния сессии: uninitialized -> loading -> {anonymous, authenticated}.
const (
	StateUninitialized State = iota
	StateLoading
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// ErrAlreadyLoaded возвращается при повторном вызове Load.
var ErrAlreadyLoaded = errors.New("session already loaded")

// IdentityProvider провайдер идентификации.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string, account models.Account) (string, error)
	Verify(ctx context.Context, email, password string) (string, error)
	CurrentPrincipal(ctx context.Context) (string, bool, error)
	SignOut(ctx context.Context) error
}

// AccountStore читает записи доступа.
type AccountStore interface {
	Get(ctx context.Context, id string) (*models.Account, error)
}

// Lifecycle выполняет активацию и отмену подписки.
type Lifecycle interface {
	Activate(ctx context.Context, accountID string, months int) error
}

// Factory создает сессии с общими зависимостями.
type Factory struct {
	identity  IdentityProvider
	accounts  AccountStore
	lifecycle Lifecycle
	trialDays int
	log       *slog.Logger
	now       func() time.Time
}

// NewFactory создает новый экземпляр Factory.
func NewFactory(identity IdentityProvider, accounts AccountStore, lifecycle Lifecycle, trialDays int, log *slog.Logger) *Factory {
	return &Factory{
		identity:  identity,
		accounts:  accounts,
		lifecycle: lifecycle,
		trialDays: trialDays,
		log:       log,
		now:       time.Now,
	}
}

// New создает новую сессию в состоянии uninitialized.
func (f *Factory) New() *Session {
	return &Session{
		factory: f,
		state:   StateUninitialized,
	}
}

// Session хранит текущий аккаунт и производный признак доступа.
type Session struct {
	factory *Factory

	mu      sync.RWMutex
	state   State
	account *models.Account
}

// State возвращает текущее состояние сессии.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading сообщает, выполняется ли начальная загрузка.
func (s *Session) Loading() bool {
	return s.State() == StateLoading
}

// Account возвращает копию загруженного аккаунта или nil.
func (s *Session) Account() *models.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return nil
	}
	a := *s.account
	return &a
}

// PrincipalID возвращает идентификатор аутентифицированного пользователя.
func (s *Session) PrincipalID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return "", false
	}
	return s.account.ID, true
}

func (s *Session) setAccount(account *models.Account) {
	s.mu.Lock()
	s.account = account
	if account != nil {
		s.state = StateAuthenticated
	} else {
		s.state = StateAnonymous
	}
	s.mu.Unlock()
}

// Load запрашивает у провайдера текущего пользователя и загружает его аккаунт.
// Допустим только один раз за время жизни сессии. При ошибке сессия
// остается анонимной.
func (s *Session) Load(ctx context.Context) error {
	const op = "session.Load"

	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", op, ErrAlreadyLoaded)
	}
	s.state = StateLoading
	s.mu.Unlock()

	principalID, ok, err := s.factory.identity.CurrentPrincipal(ctx)
	if err != nil {
		s.setAccount(nil)
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		s.setAccount(nil)
		return nil
	}

	account, err := s.factory.accounts.Get(ctx, principalID)
	if err != nil {
		s.setAccount(nil)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.setAccount(account)
	return nil
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return errs.Validation("email and password are required")
	}
	return nil
}

// SignIn проверяет учетные данные и загружает аккаунт пользователя.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	const op = "session.SignIn"

	if err := validateCredentials(email, password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	principalID, err := s.factory.identity.Verify(ctx, email, password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	account, err := s.factory.accounts.Get(ctx, principalID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.setAccount(account)
	return nil
}

// SignUp регистрирует пользователя с начальным пробным периодом.
func (s *Session) SignUp(ctx context.Context, email, password string) error {
	const op = "session.SignUp"

	if err := validateCredentials(email, password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	account := models.NewAccount(email, s.factory.now().UTC(), s.factory.trialDays)
	principalID, err := s.factory.identity.CreateAccount(ctx, email, password, account)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	account.ID = principalID
	s.setAccount(&account)
	return nil
}

// SignOut завершает сессию у провайдера. Локальное состояние очищается
// в любом случае, ошибка провайдера возвращается вызывающему.
func (s *Session) SignOut(ctx context.Context) error {
	const op = "session.SignOut"

	err := s.factory.identity.SignOut(ctx)
	s.setAccount(nil)
	if err != nil {
		s.factory.log.Warn("sign out did not complete on provider", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CheckAccess сообщает, есть ли у пользователя доступ к платным функциям.
func (s *Session) CheckAccess() bool {
	account := s.Account()
	if account == nil {
		metrics.AccessChecks.WithLabelValues("anonymous").Inc()
		return false
	}
	decision := entitlement.Evaluate(*account, s.factory.now())
	metrics.AccessChecks.WithLabelValues(string(decision)).Inc()
	return decision.HasAccess()
}

// Status возвращает подробный статус доступа. ok == false для анонимной сессии.
func (s *Session) Status() (models.AccessStatus, bool) {
	account := s.Account()
	if account == nil {
		return models.AccessStatus{}, false
	}
	return entitlement.Status(*account, s.factory.now()), true
}

// RefreshAfterSubscriptionChange выполняет активацию (months > 0) или отмену
// (months == 0) подписки и перечитывает аккаунт из хранилища.
func (s *Session) RefreshAfterSubscriptionChange(ctx context.Context, months int) error {
	const op = "session.RefreshAfterSubscriptionChange"

	principalID, ok := s.PrincipalID()
	if !ok {
		return fmt.Errorf("%s: %w: not signed in", op, errs.ErrAuth)
	}
	if err := s.factory.lifecycle.Activate(ctx, principalID, months); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	account, err := s.factory.accounts.Get(ctx, principalID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.setAccount(account)
	return nil
}

type sessionCtxKey struct{}

// WithSession кладет сессию в контекст.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// FromContext возвращает сессию из контекста.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return s, ok && s != nil
}
