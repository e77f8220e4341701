package handlers

import (
	"context"
	"time"

	"taskly/internal/models/task"
	"taskly/internal/service"
	"taskly/internal/worker"

	"github.com/google/uuid"
)

type Service interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, params service.CreateTaskParams) (*task.Task, error)
	GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, userID uuid.UUID, status *task.Status, page, limit int) ([]*task.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	Score(t *task.Task) int
	ShareTask(ctx context.Context, ownerID, taskID uuid.UUID, emails []string) ([]*task.Share, error)
	UnshareTask(ctx context.Context, ownerID, taskID uuid.UUID, email string) error
	ListSharedWithMe(ctx context.Context, email string) ([]*task.Task, error)
	UpcomingReminders(ctx context.Context, userID uuid.UUID, limit int) ([]*task.Task, error)
}

// Scanner - один проход сканера напоминаний по требованию.
type Scanner interface {
	Scan(ctx context.Context, now time.Time) worker.Report
}
