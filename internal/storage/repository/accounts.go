package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

const accountColumns = `user_uid, email, trial_end_date, subscription_end_date, is_subscribed, created_at`

// CreateUserWithAccount в одной транзакции создает пользователя и его начальную
// запись доступа. Возвращает идентификатор пользователя.
func (s *Storage) CreateUserWithAccount(ctx context.Context, email, passwordHash string, account models.Account) (string, error) {
	const op = "storage.CreateUserWithAccount"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", mapError(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var uid string
	if err = tx.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING uid`,
		email, passwordHash).Scan(&uid); err != nil {
		return "", mapError(op, err)
	}

	account.ID = uid
	if err = setAccount(ctx, tx, account); err != nil {
		return "", mapError(op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", mapError(op, err)
	}
	return uid, nil
}

// GetUserByEmail возвращает учетные данные пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	u := &models.User{}
	err := s.DB.QueryRowContext(ctx,
		`SELECT uid, email, password_hash, created_at FROM users WHERE email = $1`, email).
		Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, mapError(op, err)
	}
	return u, nil
}

// GetAccount возвращает запись доступа по идентификатору пользователя.
func (s *Storage) GetAccount(ctx context.Context, userUID string) (*models.Account, error) {
	const op = "storage.GetAccount"

	row := s.DB.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_uid = $1`, userUID)
	account, err := scanAccount(row)
	if err != nil {
		return nil, mapError(op, err)
	}
	return account, nil
}

// SetAccount полностью перезаписывает запись доступа.
func (s *Storage) SetAccount(ctx context.Context, account models.Account) error {
	const op = "storage.SetAccount"
	if err := setAccount(ctx, s.DB, account); err != nil {
		return mapError(op, err)
	}
	return nil
}

// UpdateAccount частично обновляет запись доступа, nil-поля не изменяются.
func (s *Storage) UpdateAccount(ctx context.Context, userUID string, upd models.AccountUpdate) error {
	const op = "storage.UpdateAccount"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE accounts
		 SET is_subscribed = COALESCE($2::boolean, is_subscribed),
		     subscription_end_date = COALESCE($3::timestamptz, subscription_end_date),
		     updated_at = now()
		 WHERE user_uid = $1`,
		userUID, upd.IsSubscribed, upd.SubscriptionEndDate)
	if err != nil {
		return mapError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}

// FindTrialEndingBetween находит аккаунты без подписки, у которых пробный
// период заканчивается в интервале [from, to).
func (s *Storage) FindTrialEndingBetween(ctx context.Context, from, to time.Time) ([]*models.Account, error) {
	const op = "storage.FindTrialEndingBetween"

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+accountColumns+`
		 FROM accounts
		 WHERE trial_end_date >= $1 AND trial_end_date < $2 AND is_subscribed = FALSE
		 ORDER BY trial_end_date`, from, to)
	if err != nil {
		return nil, mapError(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, mapError(op, err)
		}
		result = append(result, account)
	}
	if err = rows.Err(); err != nil {
		return nil, mapError(op, err)
	}
	return result, nil
}

func setAccount(ctx context.Context, q querier, account models.Account) error {
	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_uid) DO UPDATE
		 SET email = EXCLUDED.email,
		     trial_end_date = EXCLUDED.trial_end_date,
		     subscription_end_date = EXCLUDED.subscription_end_date,
		     is_subscribed = EXCLUDED.is_subscribed,
		     updated_at = now()`,
		account.ID, account.Email, account.TrialEndDate, account.SubscriptionEndDate,
		account.IsSubscribed, createdAt)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*models.Account, error) {
	var (
		a       models.Account
		subEnds sql.NullTime
	)
	if err := row.Scan(&a.ID, &a.Email, &a.TrialEndDate, &subEnds, &a.IsSubscribed, &a.CreatedAt); err != nil {
		return nil, err
	}
	if subEnds.Valid {
		end := subEnds.Time
		a.SubscriptionEndDate = &end
	}
	return &a, nil
}
