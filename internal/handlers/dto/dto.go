package dto

import (
	"time"

	"taskly/internal/models/task"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	UserID          uuid.UUID     `json:"user_id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Priority        task.Priority `json:"priority"`
	Urgency         int           `json:"urgency"`
	Effort          int           `json:"effort"`
	DueDate         *time.Time    `json:"due_date,omitempty"`
	ReminderEnabled bool          `json:"reminder_enabled"`
	ReminderTime    *time.Time    `json:"reminder_time,omitempty"`
}

type UpdateTaskRequest struct {
	Title           *string        `json:"title,omitempty"`
	Description     *string        `json:"description,omitempty"`
	Status          *task.Status   `json:"status,omitempty"`
	Priority        *task.Priority `json:"priority,omitempty"`
	Urgency         *int           `json:"urgency,omitempty"`
	Effort          *int           `json:"effort,omitempty"`
	DueDate         *time.Time     `json:"due_date,omitempty"`
	ReminderEnabled *bool          `json:"reminder_enabled,omitempty"`
	ReminderTime    *time.Time     `json:"reminder_time,omitempty"`
}

type ShareTaskRequest struct {
	Emails []string `json:"emails"`
}

type TaskResponse struct {
	UUID            uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	Urgency         int        `json:"urgency"`
	Effort          int        `json:"effort"`
	Score           int        `json:"score"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
	ReminderEnabled bool       `json:"reminder_enabled"`
	IsOverdue       bool       `json:"is_overdue"`
}

type ReminderResponse struct {
	TaskResponse
	Type    string `json:"type"`
	Message string `json:"message"`
}

func FromTask(t *task.Task, score int, isOverdue bool) TaskResponse {
	return TaskResponse{
		UUID:            t.UUID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		Urgency:         t.Urgency,
		Effort:          t.Effort,
		Score:           score,
		DueDate:         t.DueDate,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		ReminderEnabled: t.ReminderEnabled,
		IsOverdue:       isOverdue,
	}
}
