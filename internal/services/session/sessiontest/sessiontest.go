// Package sessiontest предоставляет хранимые в памяти реализации зависимостей
// сессии для тестов HTTP-слоя.
package sessiontest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/models"
	"github.com/magabrotheeeer/speech-translator/internal/services/auth"
	"github.com/magabrotheeeer/speech-translator/internal/services/session"
)

// Accounts хранит записи доступа в памяти.
type Accounts struct {
	mu sync.Mutex
	m  map[string]models.Account
}

// Get возвращает копию записи или ErrNotFound.
func (a *Accounts) Get(_ context.Context, id string) (*models.Account, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	acc, ok := a.m[id]
	if !ok {
		return nil, fmt.Errorf("sessiontest.Get: %w", errs.ErrNotFound)
	}
	return &acc, nil
}

// Put сохраняет запись.
func (a *Accounts) Put(account models.Account) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.m[account.ID] = account
}

type user struct {
	id       string
	password string
}

// Identity провайдер идентификации в памяти. Токены выдаются через AddToken.
type Identity struct {
	mu       sync.Mutex
	accounts *Accounts
	users    map[string]user
	tokens   map[string]string
	seq      int

	// SignOutErr возвращается из SignOut, если задана.
	SignOutErr error
}

// CreateAccount регистрирует пользователя и сохраняет его начальную запись.
func (i *Identity) CreateAccount(_ context.Context, email, password string, account models.Account) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.users[email]; ok {
		return "", fmt.Errorf("sessiontest.CreateAccount: %w", errs.ErrAlreadyExists)
	}
	i.seq++
	id := fmt.Sprintf("user-%d", i.seq)
	i.users[email] = user{id: id, password: password}
	account.ID = id
	i.accounts.Put(account)
	return id, nil
}

// Verify проверяет пару email и пароль.
func (i *Identity) Verify(_ context.Context, email, password string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	u, ok := i.users[email]
	if !ok || u.password != password {
		return "", fmt.Errorf("sessiontest.Verify: %w: invalid credentials", errs.ErrAuth)
	}
	return u.id, nil
}

// CurrentPrincipal возвращает пользователя по токену из контекста.
func (i *Identity) CurrentPrincipal(ctx context.Context) (string, bool, error) {
	token, ok := auth.TokenFromContext(ctx)
	if !ok {
		return "", false, nil
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	id, ok := i.tokens[token]
	return id, ok, nil
}

// SignOut отзывает токен из контекста.
func (i *Identity) SignOut(ctx context.Context) error {
	if token, ok := auth.TokenFromContext(ctx); ok {
		i.mu.Lock()
		delete(i.tokens, token)
		i.mu.Unlock()
	}
	return i.SignOutErr
}

// AddToken связывает токен с пользователем.
func (i *Identity) AddToken(token, principalID string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tokens[token] = principalID
}

// AddUser регистрирует пользователя с готовой записью доступа.
func (i *Identity) AddUser(email, password string, account models.Account) {
	i.mu.Lock()
	i.users[email] = user{id: account.ID, password: password}
	i.mu.Unlock()
	i.accounts.Put(account)
}

// Lifecycle применяет активацию и отмену к Accounts без платежей.
type Lifecycle struct {
	accounts *Accounts

	// Err возвращается из Activate, если задана.
	Err error
	// Months содержит аргументы всех вызовов Activate.
	Months []int
}

// Activate устанавливает конец подписки now + months месяцев.
func (l *Lifecycle) Activate(ctx context.Context, accountID string, months int) error {
	l.Months = append(l.Months, months)
	if l.Err != nil {
		return l.Err
	}
	acc, err := l.accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	end := time.Now().UTC().AddDate(0, months, 0)
	acc.IsSubscribed = true
	acc.SubscriptionEndDate = &end
	l.accounts.Put(*acc)
	return nil
}

// Fixture объединяет зависимости и фабрику сессий.
type Fixture struct {
	Accounts  *Accounts
	Identity  *Identity
	Lifecycle *Lifecycle
	Factory   *session.Factory
}

// New создает Fixture с пробным периодом trialDays.
func New(trialDays int) *Fixture {
	accounts := &Accounts{m: make(map[string]models.Account)}
	identity := &Identity{
		accounts: accounts,
		users:    make(map[string]user),
		tokens:   make(map[string]string),
	}
	lifecycle := &Lifecycle{accounts: accounts}
	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	return &Fixture{
		Accounts:  accounts,
		Identity:  identity,
		Lifecycle: lifecycle,
		Factory:   session.NewFactory(identity, accounts, lifecycle, trialDays, log),
	}
}

// SignedIn регистрирует пользователя с указанной записью доступа и возвращает его токен.
func (f *Fixture) SignedIn(account models.Account) string {
	token := "token-" + account.ID
	f.Identity.AddUser(account.Email, "password123", account)
	f.Identity.AddToken(token, account.ID)
	return token
}

// Request создает запрос с уже загруженной сессией. Пустой token дает анонимную сессию.
func (f *Fixture) Request(method, target string, body io.Reader, token string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := req.Context()
	if token != "" {
		ctx = auth.WithToken(ctx, token)
	}
	sess := f.Factory.New()
	_ = sess.Load(ctx)
	return req.WithContext(session.WithSession(ctx, sess))
}
