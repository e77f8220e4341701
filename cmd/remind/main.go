package main

import (
	"context"
	"flag"
	"log"
	"time"

	"taskly/internal/config"
	"taskly/internal/logger"
	"taskly/internal/mailer"
	"taskly/internal/migrations"
	taskpostgres "taskly/internal/repository/task/postgres"
	userpostgres "taskly/internal/repository/user/postgres"
	"taskly/internal/worker"

	"go.uber.org/zap"
)

// Одноразовый проход сканера напоминаний, для cron вне процесса api.
func main() {
	configPath := flag.String("config", "config.yml", "путь к файлу конфигурации")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("загрузка конфигурации: %v", err)
	}

	if err := logger.Init(cfg.Logging.Development); err != nil {
		log.Fatalf("инициализация логгера: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	if err := migrations.Up(cfg.Database.URL); err != nil {
		logger.Error("Remind: Ошибка применения миграций", err)
		return
	}

	storage, err := taskpostgres.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("Remind: Ошибка подключения к postgres", err)
		return
	}
	defer storage.Close()

	users := userpostgres.New(storage.Pool())

	var sender mailer.Sender
	switch cfg.Mail.Sender {
	case "ses":
		sender, err = mailer.NewSESSender(ctx, cfg.Mail.Region, cfg.Mail.FromEmail, cfg.Mail.FromName)
		if err != nil {
			logger.Error("Remind: Ошибка инициализации SES", err)
			return
		}
	default:
		sender = mailer.NewNoopSender()
	}

	w := worker.New(storage, users, sender, worker.Config{
		Interval:      cfg.Reminder.Interval,
		BatchSize:     cfg.Reminder.BatchSize,
		MailTimeout:   cfg.Mail.Timeout,
		AdvanceStatus: cfg.Reminder.AdvanceStatus,
		TasksURL:      cfg.Mail.TasksURL,
	}, time.Now)

	report := w.Scan(ctx, time.Now())

	logger.Info("Remind: Проход завершён",
		zap.Int("found", report.Found),
		zap.Int("sent_24h", report.Sent24h),
		zap.Int("sent_10min", report.Sent10min),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
}
