package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"taskly/internal/logger"
	"taskly/internal/mailer"
	"taskly/internal/models/task"
	"taskly/internal/models/user"
	repo "taskly/internal/repository"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// границы окон в минутах до дедлайна
const window24hMin = 1410 // 24ч - 30м
const window24hMax = 1470 // 24ч + 30м
const window10minMin = 5
const window10minMax = 15

type TaskStore interface {
	ListDueForReminder(ctx context.Context, now time.Time, limit int) ([]*task.Task, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID, window task.Window, sentAt time.Time) error
	AdvanceStatus(ctx context.Context, id uuid.UUID, from, to task.Status) error
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type Config struct {
	Interval      time.Duration // период сканирования
	BatchSize     int           // максимум задач за проход
	MailTimeout   time.Duration // таймаут одной отправки
	AdvanceStatus bool          // переводить todo -> inprogress после напоминания
	TasksURL      string
}

// Report - итог одного прохода сканера.
type Report struct {
	Found     int `json:"found"`
	Sent24h   int `json:"sent_24h"`
	Sent10min int `json:"sent_10min"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// ReminderWorker периодически сканирует задачи и рассылает напоминания
// по двум окнам: за сутки и за десять минут до дедлайна. Каждое окно
// срабатывает не больше одного раза на задачу.
type ReminderWorker struct {
	tasks  TaskStore
	users  UserStore
	sender mailer.Sender
	cfg    Config
	now    func() time.Time

	cron *cron.Cron
	// защита от наложения проходов: тик пропускается, пока идёт предыдущий
	scanMtx sync.Mutex
}

func New(tasks TaskStore, users UserStore, sender mailer.Sender, cfg Config, now func() time.Time) *ReminderWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = 10 * time.Second
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &ReminderWorker{
		tasks:  tasks,
		users:  users,
		sender: sender,
		cfg:    cfg,
		now:    now,
	}
}

// Start запускает периодическое сканирование и блокируется до отмены ctx.
func (w *ReminderWorker) Start(ctx context.Context) {
	w.cron = cron.New()

	_, err := w.cron.AddFunc("@every "+w.cfg.Interval.String(), func() {
		if !w.scanMtx.TryLock() {
			logger.Warn("Worker: Предыдущий проход ещё идёт, тик пропущен")
			return
		}
		defer w.scanMtx.Unlock()

		w.Scan(ctx, w.now())
	})
	if err != nil {
		logger.Error("Worker: Не удалось запланировать сканирование", err)
		return
	}

	logger.Info("Worker: Сканер напоминаний запущен",
		zap.Duration("interval", w.cfg.Interval),
		zap.Int("batch_size", w.cfg.BatchSize))

	w.cron.Start()

	<-ctx.Done()

	stopCtx := w.cron.Stop()
	<-stopCtx.Done()
	logger.Info("Worker: Сканер напоминаний остановлен")
}

// Scan - один проход по кандидатам. Ошибка отправки одной задачи не
// прерывает проход: флаг не выставляется, окно останется доступным
// для повторной попытки на следующем тике.
func (w *ReminderWorker) Scan(ctx context.Context, now time.Time) Report {
	start := time.Now()
	report := Report{}

	candidates, err := w.tasks.ListDueForReminder(ctx, now, w.cfg.BatchSize)
	if err != nil {
		logger.Error("Worker: Не удалось получить кандидатов", err)
		return report
	}

	report.Found = len(candidates)
	logger.Info("Worker: Начало прохода",
		zap.Time("now", now),
		zap.Int("found", report.Found))

	for _, t := range candidates {
		if t.DueDate == nil {
			// хранилище не должно такое отдавать, но одна битая запись
			// не стоит всего прохода
			logger.Warn("Worker: Кандидат без дедлайна пропущен",
				zap.String("task_id", t.UUID.String()))
			report.Skipped++
			continue
		}

		minutesUntilDue := t.DueDate.Sub(now).Minutes()

		for _, window := range dueWindows(t, minutesUntilDue) {
			if w.fire(ctx, t, window, now) {
				switch window {
				case task.Window24h:
					report.Sent24h++
				case task.Window10min:
					report.Sent10min++
				}
			} else {
				report.Failed++
			}
		}
	}

	logger.Info("Worker: Проход завершён",
		zap.Duration("ms", time.Since(start)),
		zap.Int("found", report.Found),
		zap.Int("sent_24h", report.Sent24h),
		zap.Int("sent_10min", report.Sent10min),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))

	return report
}

// dueWindows - окна, в которые задача попадает прямо сейчас и по которым
// ещё не было отправки. Задача может пройти оба окна, но на разных тиках.
func dueWindows(t *task.Task, minutesUntilDue float64) []task.Window {
	windows := []task.Window{}

	if minutesUntilDue >= window24hMin && minutesUntilDue <= window24hMax && !t.Reminder24hSent {
		windows = append(windows, task.Window24h)
	}
	if minutesUntilDue >= window10minMin && minutesUntilDue <= window10minMax && !t.Reminder10minSent {
		windows = append(windows, task.Window10min)
	}

	return windows
}

// fire отправляет напоминание и выставляет флаг окна. Флаг пишется только
// после успешной отправки: доставка at-least-once, неудача оставляет окно
// открытым для следующего прохода.
func (w *ReminderWorker) fire(ctx context.Context, t *task.Task, window task.Window, now time.Time) bool {
	recipient, err := w.users.GetByID(ctx, t.UserID)
	if err != nil {
		logger.Warn("Worker: Не удалось найти адресата",
			zap.String("task_id", t.UUID.String()),
			zap.String("user_id", t.UserID.String()),
			zap.Error(err))
		return false
	}

	msg := mailer.BuildReminder(t, mailer.TimeframeFor(window), w.cfg.TasksURL)

	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.MailTimeout)
	defer cancel()

	if err := w.sender.Send(sendCtx, recipient.Email, recipient.FullName, msg.Subject, msg.HTMLBody, msg.TextBody); err != nil {
		logger.Warn("Worker: Ошибка отправки напоминания",
			zap.String("task_id", t.UUID.String()),
			zap.String("window", string(window)),
			zap.Error(err))
		return false
	}

	if err := w.tasks.MarkReminderSent(ctx, t.UUID, window, now); err != nil {
		if errors.Is(err, repo.ErrAlreadySent) {
			// параллельный скан успел раньше - не ошибка
			logger.Warn("Worker: Окно уже занято параллельным сканом",
				zap.String("task_id", t.UUID.String()),
				zap.String("window", string(window)))
			return true
		}
		logger.Error("Worker: Не удалось выставить флаг после отправки", err,
			zap.String("task_id", t.UUID.String()),
			zap.String("window", string(window)))
		return false
	}

	t.MarkReminderSent(window, now)

	logger.Info("Worker: Напоминание отправлено",
		zap.String("task_id", t.UUID.String()),
		zap.String("window", string(window)),
		zap.String("to", recipient.Email))

	if w.cfg.AdvanceStatus && t.Status == task.StatusTodo {
		if err := w.tasks.AdvanceStatus(ctx, t.UUID, task.StatusTodo, task.StatusInProgress); err != nil {
			logger.Warn("Worker: Не удалось перевести статус",
				zap.String("task_id", t.UUID.String()),
				zap.Error(err))
		} else {
			t.Status = task.StatusInProgress
		}
	}

	return true
}
