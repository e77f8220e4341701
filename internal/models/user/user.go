package user

import (
	"time"

	"github.com/google/uuid"
)

// User - адресат уведомлений. Регистрация и аутентификация живут
// во внешнем сервисе, здесь храним только то, что нужно для отправки писем.
type User struct {
	UUID      uuid.UUID `json:"uuid" db:"uuid"`
	Email     string    `json:"email" db:"email"`
	FullName  string    `json:"full_name" db:"full_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
