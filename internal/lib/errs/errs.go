// Package errs описывает таксономию ошибок сервиса. Все слои оборачивают
// свои ошибки через fmt.Errorf("%s: %w", op, err), а граница HTTP/gRPC
// определяет код ответа через errors.Is по сентинелам этого пакета.
package errs

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrValidation не заполнены email или пароль, некорректные параметры запроса.
	ErrValidation = errors.New("validation error")
	// ErrAuth неверные учетные данные или отсутствует аутентифицированный пользователь.
	ErrAuth = errors.New("authentication error")
	// ErrNotFound запись аккаунта отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists аккаунт с таким email уже зарегистрирован.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUpstreamPaymentFailure платежный шлюз отклонил списание.
	ErrUpstreamPaymentFailure = errors.New("upstream payment failure")
	// ErrUpstreamUnavailable внешний сервис недоступен или не ответил вовремя.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrOperationInProgress по аккаунту уже выполняется операция с подпиской.
	ErrOperationInProgress = errors.New("operation already in progress")
)

// Validation возвращает ErrValidation с пояснением.
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Classify помечает сетевые ошибки и таймауты как ErrUpstreamUnavailable,
// остальные ошибки возвращает без изменений.
func Classify(err error) error {
	if err == nil || errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	return err
}
