package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskly/internal/logger"
	"taskly/internal/models/task"
	repo "taskly/internal/repository"
	"taskly/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка бизнес-правил, репозиторий отвечает только за хранение

type TaskService struct {
	repo  TaskRepository
	users UserRepository
	now   func() time.Time
}

func NewTaskService(taskRepo TaskRepository, userRepo UserRepository, now func() time.Time) TaskService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return TaskService{
		repo:  taskRepo,
		users: userRepo,
		now:   now,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

type CreateTaskParams struct {
	UserID          uuid.UUID
	Title           string
	Description     string
	Priority        task.Priority
	Urgency         int
	Effort          int
	DueDate         *time.Time
	ReminderEnabled bool
	ReminderTime    *time.Time
}

func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (*task.Task, error) {
	if params.Title == "" {
		return nil, NewValidationError("title", "название не может быть пустым")
	}
	if params.ReminderEnabled && params.DueDate == nil && params.ReminderTime == nil {
		return nil, NewValidationError("reminder", "напоминание требует дедлайн или время напоминания")
	}

	if _, err := s.users.GetByID(ctx, params.UserID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("пользователь", params.UserID.String())
		}
		return nil, fmt.Errorf("проверка пользователя: %w", err)
	}

	// значения по умолчанию как в исходной форме создания задачи
	priority := params.Priority
	if !task.ValidPriority(priority) {
		priority = task.PriorityMedium
	}
	urgency := params.Urgency
	if urgency < 1 || urgency > 10 {
		urgency = 1
	}
	effort := params.Effort
	if effort < 1 {
		effort = 1
	}

	newTask := &task.Task{
		UUID:            uuid.New(),
		UserID:          params.UserID,
		Title:           params.Title,
		Description:     params.Description,
		Status:          task.StatusTodo,
		Priority:        priority,
		Urgency:         urgency,
		Effort:          effort,
		DueDate:         params.DueDate,
		ReminderEnabled: params.ReminderEnabled,
		ReminderTime:    params.ReminderTime,
		Version:         1,
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("user_id", params.UserID.String()))

	return newTask, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return t, nil
}

// ListTasks возвращает задачи пользователя, упорядоченные по рангу.
// Завершённые задачи в активную выдачу не попадают, их можно запросить
// явно через status=done.
func (s *TaskService) ListTasks(ctx context.Context, userID uuid.UUID, status *task.Status, page, limit int) ([]*task.Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID, status, page, limit)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	if status == nil {
		active := tasks[:0]
		for _, t := range tasks {
			if t.Status != task.StatusDone {
				active = append(active, t)
			}
		}
		tasks = active
	}

	scoring.Sort(tasks, s.now())
	return tasks, nil
}

// Score отдаёт ранг задачи на текущий момент.
func (s *TaskService) Score(t *task.Task) int {
	return scoring.Score(t, s.now())
}

func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, repo.ErrVersionConflict) {
			return nil, NewVersionConflict(id.String())
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("задача", id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

// ShareTask расшаривает задачу на список email. Владелец подтверждается,
// чтобы чужую задачу нельзя было раздать.
func (s *TaskService) ShareTask(ctx context.Context, ownerID, taskID uuid.UUID, emails []string) ([]*task.Share, error) {
	if len(emails) == 0 {
		return nil, NewValidationError("emails", "нужен хотя бы один email")
	}

	t, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.UserID != ownerID {
		return nil, NewForbidden(taskID.String())
	}

	shares := make([]*task.Share, 0, len(emails))
	for _, email := range emails {
		if email == "" {
			return nil, NewValidationError("emails", "пустой email")
		}

		share := &task.Share{
			UUID:            uuid.New(),
			TaskID:          taskID,
			SharedWithEmail: email,
		}

		if err := s.repo.CreateShare(ctx, share); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				// повторный шаринг на тот же адрес не ошибка для всей пачки
				logger.Info("Service: Задача уже расшарена",
					zap.String("task_id", taskID.String()),
					zap.String("email", email))
				continue
			}
			return nil, fmt.Errorf("шаринг задачи: %w", err)
		}
		shares = append(shares, share)
	}

	return shares, nil
}

func (s *TaskService) UnshareTask(ctx context.Context, ownerID, taskID uuid.UUID, email string) error {
	t, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return err
	}
	if t.UserID != ownerID {
		return NewForbidden(taskID.String())
	}

	if err := s.repo.DeleteShare(ctx, taskID, email); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFound("шаринг", taskID.String())
		}
		return fmt.Errorf("отмена шаринга: %w", err)
	}
	return nil
}

func (s *TaskService) ListSharedWithMe(ctx context.Context, email string) ([]*task.Task, error) {
	tasks, err := s.repo.ListSharedWith(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("получение расшаренных задач: %w", err)
	}

	scoring.Sort(tasks, s.now())
	return tasks, nil
}

// UpcomingReminders - лента уведомлений для фронтенда: свои и расшаренные
// задачи с дедлайном в ближайшую неделю плюс просроченные.
func (s *TaskService) UpcomingReminders(ctx context.Context, userID uuid.UUID, limit int) ([]*task.Task, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, NewNotFound("пользователь", userID.String())
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	tasks, err := s.repo.ListUpcoming(ctx, userID, u.Email, s.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("получение уведомлений: %w", err)
	}
	return tasks, nil
}
