package handlers

import (
	"net/http"
	"time"

	"taskly/internal/handlers/dto"
	"taskly/internal/logger"
	"taskly/internal/mailer"
	"taskly/internal/scoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetReminders - лента напоминаний для поллинга фронтендом: просроченные,
// сегодняшние и ближайшие задачи пользователя вместе с расшаренными ему.
func (s *TaskHandler) GetReminders(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {

		logger.Warn("HTTP: Ошибка получения параметра",
			zap.String("querry", "user_id"),
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "не удалось получить user_id: "+err.Error())
		return
	}

	limit := queryInt(r, "limit", 50)

	logger.Info("HTTP: Вызов сервиса для получения напоминаний")

	tasks, err := s.TaskService.UpcomingReminders(r.Context(), userID, limit)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}

		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_reminders"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := s.now()
	reminders := make([]dto.ReminderResponse, 0, len(tasks))
	for _, t := range tasks {
		label := scoring.Classify(t.DueDate, now)
		if label == scoring.LabelNone {
			continue
		}

		days := 0
		if t.DueDate != nil {
			days = scoring.DaysUntil(*t.DueDate, now)
		}

		reminders = append(reminders, dto.ReminderResponse{
			TaskResponse: s.toResponse(t),
			Type:         string(label),
			Message: mailer.DueMessage(t.Title, days,
				label == scoring.LabelOverdue, label == scoring.LabelDueToday),
		})
	}

	logger.Info("HTTP_OUT: Напоминания получены",
		zap.Int("count", len(reminders)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("success", true),
		toPayload("reminders", reminders),
		toPayload("count", len(reminders)))
}

// ScanReminders запускает один проход сканера вне расписания.
func (s *TaskHandler) ScanReminders(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if s.Scanner == nil {

		logger.Warn("HTTP: Сканер напоминаний не настроен",
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusServiceUnavailable, "сканер напоминаний не настроен")
		return
	}

	logger.Info("HTTP: Запуск прохода сканера напоминаний")

	report := s.Scanner.Scan(r.Context(), s.now())

	logger.Info("HTTP_OUT: Проход сканера завершён",
		zap.Int("found", report.Found),
		zap.Int("sent_24h", report.Sent24h),
		zap.Int("sent_10min", report.Sent10min),
		zap.Int("failed", report.Failed),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK,
		toPayload("success", true),
		toPayload("report", report))
}
