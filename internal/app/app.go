package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskly/internal/config"
	"taskly/internal/handlers"
	"taskly/internal/logger"
	"taskly/internal/mailer"
	"taskly/internal/middleware"
	"taskly/internal/migrations"
	taskinmemory "taskly/internal/repository/task/inmemory"
	taskpostgres "taskly/internal/repository/task/postgres"
	userinmemory "taskly/internal/repository/user/inmemory"
	userpostgres "taskly/internal/repository/user/postgres"
	"taskly/internal/service"
	"taskly/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	worker    *worker.ReminderWorker
	shutdowns []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// Init собирает все слои: логгер, хранилище, сервис, воркер и роутер.
func (a *App) Init(ctx context.Context) error {

	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("App: Завершение работы логгирования...")
		logger.Sync()
	})

	taskRepo, userRepo, err := a.initRepositories(ctx)
	if err != nil {
		return err
	}

	sender, err := a.initSender(ctx)
	if err != nil {
		return err
	}

	taskService := service.NewTaskService(taskRepo, userRepo, time.Now)

	a.worker = worker.New(taskRepo, userRepo, sender, worker.Config{
		Interval:      a.config.Reminder.Interval,
		BatchSize:     a.config.Reminder.BatchSize,
		MailTimeout:   a.config.Mail.Timeout,
		AdvanceStatus: a.config.Reminder.AdvanceStatus,
		TasksURL:      a.config.Mail.TasksURL,
	}, time.Now)

	taskHandler := handlers.NewTaskHandler(&taskService, a.worker, time.Now)

	a.router = newRouter(&taskHandler)
	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router,
	}

	return nil
}

func (a *App) initRepositories(ctx context.Context) (service.TaskRepository, service.UserRepository, error) {
	switch a.config.Repository.Type {
	case "postgres":
		logger.Info("App: Применение миграций")
		if err := migrations.Up(a.config.Database.URL); err != nil {
			return nil, nil, fmt.Errorf("применение миграций: %w", err)
		}

		storage, err := taskpostgres.New(ctx, a.config.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("подключение к postgres: %w", err)
		}

		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("App: Закрытие пула соединений...")
			storage.Close()
		})

		return storage, userpostgres.New(storage.Pool()), nil

	case "inmemory":
		return taskinmemory.NewTaskStorage(), userinmemory.NewUserStorage(), nil

	default:
		return nil, nil, fmt.Errorf("неизвестный тип хранилища: %s", a.config.Repository.Type)
	}
}

func (a *App) initSender(ctx context.Context) (mailer.Sender, error) {
	switch a.config.Mail.Sender {
	case "ses":
		sender, err := mailer.NewSESSender(ctx, a.config.Mail.Region,
			a.config.Mail.FromEmail, a.config.Mail.FromName)
		if err != nil {
			return nil, fmt.Errorf("инициализация SES: %w", err)
		}
		return sender, nil

	case "noop":
		return mailer.NewNoopSender(), nil

	default:
		return nil, fmt.Errorf("неизвестный тип отправителя: %s", a.config.Mail.Sender)
	}
}

func newRouter(h *handlers.TaskHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.RateLimit(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Route("/tasks", func(r chi.Router) {

		r.Get("/", h.GetTasks) // GET /tasks?user_id=&status=
		r.Post("/", h.PostTask)

		r.Get("/shared", h.GetSharedTasks) // GET /tasks/shared?email=

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)
			r.Put("/", h.UpdateTaskByID)
			r.Delete("/", h.DeleteTaskByID)

			r.Post("/share", h.ShareTask)             // POST /tasks/{id}/share
			r.Delete("/share/{email}", h.UnshareTask) // DELETE /tasks/{id}/share/{email}
		})
	})

	r.Route("/reminders", func(r chi.Router) {
		r.Get("/", h.GetReminders)       // GET /reminders?user_id=
		r.Post("/scan", h.ScanReminders) // POST /reminders/scan
	})

	r.Get("/health", h.HealthCheck)

	return r
}

// Run запускает http сервер и воркер напоминаний, блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go a.worker.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http сервер: %w", err)
	case <-ctx.Done():
	}

	logger.Info("App: Остановка сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: Ошибка остановки сервера", err)
	}

	a.Shutdown()
	return nil
}

// Shutdown вызывает накопленные функции очистки в обратном порядке.
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
