// Package auth реализует провайдер идентификации: регистрацию, проверку
// учетных данных, выпуск и отзыв JWT токенов.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/lib/jwt"
	"github.com/magabrotheeeer/speech-translator/internal/lib/password"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUserWithAccount атомарно сохраняет пользователя и его запись доступа.
	CreateUserWithAccount(ctx context.Context, email, passwordHash string, account models.Account) (string, error)
	// GetUserByEmail возвращает пользователя по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Denylist хранит идентификаторы отозванных токенов.
type Denylist interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

type tokenCtxKey struct{}

// WithToken кладет bearer-токен текущего запроса в контекст.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// TokenFromContext возвращает bearer-токен из контекста.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenCtxKey{}).(string)
	return token, ok && token != ""
}

// Service отвечает за регистрацию, авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	denylist Denylist
	jwtMaker jwt.Maker
	log      *slog.Logger
	now      func() time.Time
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, denylist Denylist, jwtMaker jwt.Maker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		denylist: denylist,
		jwtMaker: jwtMaker,
		log:      log,
		now:      time.Now,
	}
}

func denylistKey(tokenID string) string {
	return "denylist:" + tokenID
}

// CreateAccount хэширует пароль и создает пользователя вместе с начальной
// записью доступа. Возвращает principal нового пользователя.
func (s *Service) CreateAccount(ctx context.Context, email, rawPassword string, account models.Account) (string, error) {
	const op = "auth.CreateAccount"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, errs.Validation(err.Error()))
	}
	account.Email = email
	principalID, err := s.users.CreateUserWithAccount(ctx, email, hashed, account)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("account created", slog.String("principal_id", principalID))
	return principalID, nil
}

// Verify проверяет пару email/пароль и возвращает principal.
func (s *Service) Verify(ctx context.Context, email, rawPassword string) (string, error) {
	const op = "auth.Verify"

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, errs.ErrNotFound) {
		return "", fmt.Errorf("%s: %w: invalid credentials", op, errs.ErrAuth)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", fmt.Errorf("%s: %w: invalid credentials", op, errs.ErrAuth)
	}
	return user.UUID, nil
}

// IssueToken выпускает токен доступа для principal.
func (s *Service) IssueToken(principalID, email string) (string, error) {
	const op = "auth.IssueToken"
	token, err := s.jwtMaker.GenerateToken(principalID, email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// ValidateToken проверяет подпись, срок действия и отсутствие токена в списке отозванных.
func (s *Service) ValidateToken(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "auth.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, errs.ErrAuth, err)
	}
	revoked, err := s.denylist.Exists(ctx, denylistKey(claims.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, errs.Classify(err))
	}
	if revoked {
		return nil, fmt.Errorf("%s: %w: token revoked", op, errs.ErrAuth)
	}
	return claims, nil
}

// CurrentPrincipal возвращает principal по токену из контекста.
// ok == false, если токена нет или он недействителен.
func (s *Service) CurrentPrincipal(ctx context.Context) (string, bool, error) {
	token, ok := TokenFromContext(ctx)
	if !ok {
		return "", false, nil
	}
	claims, err := s.ValidateToken(ctx, token)
	if errors.Is(err, errs.ErrAuth) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return claims.Subject, true, nil
}

// SignOut отзывает токен текущего запроса до окончания его срока действия.
func (s *Service) SignOut(ctx context.Context) error {
	const op = "auth.SignOut"

	token, ok := TokenFromContext(ctx)
	if !ok {
		return nil
	}
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.denylist.Set(ctx, denylistKey(claims.ID), claims.Subject, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, errs.Classify(err))
	}
	s.log.Info("token revoked", slog.String("principal_id", claims.Subject))
	return nil
}
