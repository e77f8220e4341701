package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskly/internal/logger"
	"taskly/internal/models/task"
	repo "taskly/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, connString string) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

// Pool отдаёт пул соединений, чтобы репозиторий пользователей
// работал с той же базой.
func (s *Storage) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

const taskColumns = `uuid,
				user_id,
				title,
				description,
				status,
				priority,
				urgency,
				effort,
				due_date,
				created_at,
				updated_at,
				version,
				reminder_enabled,
				reminder_time,
				reminder_24h_sent,
				reminder_24h_sent_at,
				reminder_10min_sent,
				reminder_10min_sent_at,
				last_notification_sent`

// те же колонки с префиксом для запросов с JOIN (uuid есть и в shared_tasks)
const taskColumnsT = `t.uuid,
				t.user_id,
				t.title,
				t.description,
				t.status,
				t.priority,
				t.urgency,
				t.effort,
				t.due_date,
				t.created_at,
				t.updated_at,
				t.version,
				t.reminder_enabled,
				t.reminder_time,
				t.reminder_24h_sent,
				t.reminder_24h_sent_at,
				t.reminder_10min_sent,
				t.reminder_10min_sent_at,
				t.last_notification_sent`

func scanTask(row pgx.Row) (*task.Task, error) {
	t := &task.Task{}
	err := row.Scan(
		&t.UUID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.Urgency,
		&t.Effort,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.Version,
		&t.ReminderEnabled,
		&t.ReminderTime,
		&t.Reminder24hSent,
		&t.Reminder24hSentAt,
		&t.Reminder10minSent,
		&t.Reminder10minSentAt,
		&t.LastNotificationSent,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()

	query := `INSERT INTO tasks
				(uuid, user_id, title, description, status, priority, urgency, effort,
				 due_date, created_at, reminder_enabled, reminder_time)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), $10, $11)
				RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.UserID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.Priority,
		taskToCreate.Urgency,
		taskToCreate.Effort,
		taskToCreate.DueDate,
		taskToCreate.ReminderEnabled,
		taskToCreate.ReminderTime,
	).Scan(&taskToCreate.CreatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*50 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				priority = $4,
				urgency = $5,
				effort = $6,
				due_date = $7,
				reminder_enabled = $8,
				reminder_time = $9,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $10 AND version = $11
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.Priority,
		taskToUpdate.Urgency,
		taskToUpdate.Effort,
		taskToUpdate.DueDate,
		taskToUpdate.ReminderEnabled,
		taskToUpdate.ReminderTime,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Конфликт версий при обновлении задачи",
				zap.String("task_id", taskToUpdate.UUID.String()),
				zap.Int("expected_version", taskToUpdate.Version))
			return repo.ErrVersionConflict
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE uuid = $1`

	t, err := scanTask(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return t, nil
}

// Delete полностью удаляет задачу, строки shared_tasks уходят каскадом.
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()

	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// ListByUser - задачи пользователя, опционально по статусу.
func (s *Storage) ListByUser(ctx context.Context, userID uuid.UUID, status *task.Status, page, limit int) ([]*task.Task, error) {
	start := time.Now()
	offset := (page - 1) * limit

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}

	if status != nil {
		query += ` AND status = $2 ORDER BY created_at LIMIT $3 OFFSET $4`
		args = append(args, *status, limit, offset)
	} else {
		query += ` ORDER BY created_at LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

// ListDueForReminder - кандидаты на напоминание: дедлайн в будущем,
// задача не завершена, хотя бы одно окно ещё не отработало.
func (s *Storage) ListDueForReminder(ctx context.Context, now time.Time, limit int) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumns + ` FROM tasks
              WHERE reminder_enabled = TRUE
                AND due_date IS NOT NULL
                AND due_date > $1
                AND status != 'done'
                AND (reminder_24h_sent = FALSE OR reminder_10min_sent = FALSE)
              ORDER BY due_date
              LIMIT $2`

	rows, err := s.pool.Query(ctx, query, now, limit)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи для напоминаний", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач для напоминаний: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

// ListUpcoming - задачи для пользовательской ленты уведомлений: свои и
// расшаренные, не завершённые, просроченные или с дедлайном в ближайшие 7 дней.
func (s *Storage) ListUpcoming(ctx context.Context, userID uuid.UUID, email string, now time.Time, limit int) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT DISTINCT ` + taskColumnsT + ` FROM tasks t
              LEFT JOIN shared_tasks st ON t.uuid = st.task_id
              WHERE (t.user_id = $1 OR st.shared_with_email = $2)
                AND t.status != 'done'
                AND t.due_date IS NOT NULL
                AND t.due_date <= $3 + INTERVAL '7 days'
              ORDER BY t.due_date
              LIMIT $4`

	rows, err := s.pool.Query(ctx, query, userID, email, now, limit)
	if err != nil {
		logger.Error("Repository: Не удалось получить уведомления", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение уведомлений: %w", err)
	}
	defer rows.Close()

	tasks, err := collectTasks(rows)
	if err != nil {
		return nil, err
	}

	if time.Since(start) > time.Millisecond*50+time.Millisecond*10*time.Duration(limit) {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}

	return tasks, nil
}

// MarkReminderSent - атомарное условное обновление флага окна. Ровно один
// конкурентный скан получает право на отправку; остальным возвращается
// ErrAlreadySent (ноль строк).
func (s *Storage) MarkReminderSent(ctx context.Context, id uuid.UUID, window task.Window, sentAt time.Time) error {
	start := time.Now()

	var query string
	switch window {
	case task.Window24h:
		query = `UPDATE tasks
				SET reminder_24h_sent = TRUE,
					reminder_24h_sent_at = $1,
					last_notification_sent = $1
				WHERE uuid = $2 AND reminder_24h_sent = FALSE`
	case task.Window10min:
		query = `UPDATE tasks
				SET reminder_10min_sent = TRUE,
					reminder_10min_sent_at = $1,
					last_notification_sent = $1
				WHERE uuid = $2 AND reminder_10min_sent = FALSE`
	default:
		return fmt.Errorf("неизвестное окно напоминания: %q", window)
	}

	tag, err := s.pool.Exec(ctx, query, sentAt, id)
	if err != nil {
		logger.Error("Repository: Не удалось выставить флаг напоминания", err,
			zap.String("task_id", id.String()),
			zap.String("window", string(window)))
		return fmt.Errorf("флаг напоминания: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repo.ErrAlreadySent
	}

	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция", zap.Duration("ms", time.Since(start)))
	}
	return nil
}

// AdvanceStatus условно переводит задачу из одного статуса в другой.
// Ноль строк - не ошибка: статус уже изменился.
func (s *Storage) AdvanceStatus(ctx context.Context, id uuid.UUID, from, to task.Status) error {
	query := `UPDATE tasks
			SET status = $1,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $2 AND status = $3`

	_, err := s.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		logger.Error("Repository: Не удалось сменить статус", err, zap.String("task_id", id.String()))
		return fmt.Errorf("смена статуса: %w", err)
	}
	return nil
}

func (s *Storage) CreateShare(ctx context.Context, share *task.Share) error {
	query := `INSERT INTO shared_tasks (uuid, task_id, shared_with_email, shared_at)
				VALUES ($1, $2, $3, NOW())
				RETURNING shared_at`

	err := s.pool.QueryRow(ctx, query, share.UUID, share.TaskID, share.SharedWithEmail).Scan(&share.SharedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrDuplicate
		}
		logger.Error("Repository: Не удалось расшарить задачу", err)
		return fmt.Errorf("шаринг задачи: %w", err)
	}
	return nil
}

func (s *Storage) DeleteShare(ctx context.Context, taskID uuid.UUID, email string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM shared_tasks WHERE task_id = $1 AND shared_with_email = $2`, taskID, email)
	if err != nil {
		logger.Error("Repository: Не удалось отменить шаринг", err)
		return fmt.Errorf("отмена шаринга: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// ListSharedWith - задачи, расшаренные на указанный email.
func (s *Storage) ListSharedWith(ctx context.Context, email string) ([]*task.Task, error) {
	start := time.Now()

	query := `SELECT ` + taskColumnsT + ` FROM tasks t
              JOIN shared_tasks st ON t.uuid = st.task_id
              WHERE st.shared_with_email = $1
              ORDER BY st.shared_at DESC`

	rows, err := s.pool.Query(ctx, query, email)
	if err != nil {
		logger.Error("Repository: Не удалось получить расшаренные задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение расшаренных задач: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]*task.Task, error) {
	tasks := []*task.Task{}

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			// одна битая строка не валит всю выборку
			logger.Warn("Repository: Ошибка сканирования задачи", zap.Error(err))
			continue
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	return tasks, nil
}
