// Package account реализует хранилище записей доступа с кешированием в Redis.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/lib/sl"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

// Repository определяет методы работы с записями доступа в базе данных.
type Repository interface {
	// GetAccount возвращает запись по идентификатору пользователя.
	GetAccount(ctx context.Context, userUID string) (*models.Account, error)
	// SetAccount полностью перезаписывает запись.
	SetAccount(ctx context.Context, account models.Account) error
	// UpdateAccount частично обновляет запись.
	UpdateAccount(ctx context.Context, userUID string, upd models.AccountUpdate) error
}

// Cache описывает методы для кеширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Invalidate(ctx context.Context, key string) error
}

// cachedAccount запись в кеше вместе с версией аккаунта на момент чтения из базы.
type cachedAccount struct {
	Version int64          `json:"version"`
	Account models.Account `json:"account"`
}

// Service реализует Get/Set/Update записей доступа. Кеш работает как
// read-through. Каждая запись увеличивает версию аккаунта, и закешированная
// копия с другой версией не используется, даже если ее положил запрос,
// прочитавший базу до изменения.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func cacheKey(id string) string {
	return "account:" + id
}

func versionKey(id string) string {
	return "account_version:" + id
}

// version возвращает текущую версию аккаунта. Аккаунт без изменений имеет версию 0.
func (s *Service) version(ctx context.Context, id string) (int64, error) {
	var v int64
	if _, err := s.cache.Get(ctx, versionKey(id), &v); err != nil {
		return 0, err
	}
	return v, nil
}

// Get возвращает запись доступа, сначала пытаясь прочитать её из кеша.
// Версия читается до обращения к базе, поэтому копия, устаревшая из-за
// параллельной записи, попадает в кеш со старой версией и отбрасывается.
func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	const op = "account.Get"
	key := cacheKey(id)
	log := s.log.With(slog.String("key", key))

	version, err := s.version(ctx, id)
	cacheUsable := err == nil
	if err != nil {
		log.Warn("failed to read account version", sl.Err(err))
	}

	if cacheUsable {
		var cached cachedAccount
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("failed to read account from cache", sl.Err(err))
		}
		if found && cached.Version == version {
			return &cached.Account, nil
		}
		if found {
			log.Debug("cached account is stale", slog.Int64("cached", cached.Version), slog.Int64("current", version))
		}
	}

	account, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cacheUsable {
		entry := cachedAccount{Version: version, Account: *account}
		if err := s.cache.Set(ctx, key, entry, s.ttl); err != nil {
			log.Warn("failed to add account to cache", sl.Err(err))
		}
	}
	return account, nil
}

// Set полностью перезаписывает запись доступа.
func (s *Service) Set(ctx context.Context, account models.Account) error {
	const op = "account.Set"

	if err := s.repo.SetAccount(ctx, account); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, account.ID)
	return nil
}

// Update частично обновляет запись доступа.
func (s *Service) Update(ctx context.Context, id string, upd models.AccountUpdate) error {
	const op = "account.Update"

	if err := s.repo.UpdateAccount(ctx, id, upd); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	key := cacheKey(id)
	if _, err := s.cache.Incr(ctx, versionKey(id)); err != nil {
		s.log.Warn("failed to bump account version", slog.String("key", key), sl.Err(err))
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate account cache", slog.String("key", key), sl.Err(err))
	}
}
