package models

import "time"

// User учетные данные пользователя (principal на стороне провайдера идентификации).
// Хранится отдельно от Account.
type User struct {
	UUID         string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта, уникальна
	PasswordHash string    // Хэш пароля пользователя
	CreatedAt    time.Time // Дата регистрации
}
