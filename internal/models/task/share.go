package task

import (
	"time"

	"github.com/google/uuid"
)

// Share - задача, расшаренная другому пользователю по email только на чтение.
type Share struct {
	UUID            uuid.UUID `json:"uuid" db:"uuid"`
	TaskID          uuid.UUID `json:"task_id" db:"task_id"`
	SharedWithEmail string    `json:"shared_with_email" db:"shared_with_email"`
	SharedAt        time.Time `json:"shared_at" db:"shared_at"`
}
