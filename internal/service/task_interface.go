package service

import (
	"context"
	"time"

	"taskly/internal/models/task"
	"taskly/internal/models/user"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(ctx context.Context) error
	Create(ctx context.Context, t *task.Task) error
	Update(ctx context.Context, t *task.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID, status *task.Status, page, limit int) ([]*task.Task, error)
	ListDueForReminder(ctx context.Context, now time.Time, limit int) ([]*task.Task, error)
	ListUpcoming(ctx context.Context, userID uuid.UUID, email string, now time.Time, limit int) ([]*task.Task, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, window task.Window, sentAt time.Time) error
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to task.Status) error
	CreateShare(ctx context.Context, share *task.Share) error
	DeleteShare(ctx context.Context, taskID uuid.UUID, email string) error
	ListSharedWith(ctx context.Context, email string) ([]*task.Task, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}
