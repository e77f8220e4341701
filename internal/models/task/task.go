package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	Priority    Priority   `json:"priority" db:"priority"`
	Urgency     int        `json:"urgency" db:"urgency"` // субъективный вес 1-10
	Effort      int        `json:"effort" db:"effort"`   // оценка в часах, >= 1
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at,omitempty"`
	Version     int        `db:"version" json:"version"`

	ReminderEnabled      bool       `json:"reminder_enabled" db:"reminder_enabled"`
	ReminderTime         *time.Time `json:"reminder_time,omitempty" db:"reminder_time"`
	Reminder24hSent      bool       `json:"reminder_24h_sent" db:"reminder_24h_sent"`
	Reminder24hSentAt    *time.Time `json:"reminder_24h_sent_at,omitempty" db:"reminder_24h_sent_at"`
	Reminder10minSent    bool       `json:"reminder_10min_sent" db:"reminder_10min_sent"`
	Reminder10minSentAt  *time.Time `json:"reminder_10min_sent_at,omitempty" db:"reminder_10min_sent_at"`
	LastNotificationSent *time.Time `json:"last_notification_sent,omitempty" db:"last_notification_sent"`
}

type Status string
type Priority string

const StatusTodo Status = "todo"
const StatusInProgress Status = "inprogress"
const StatusDone Status = "done"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"

// Window - именованный интервал перед дедлайном, в котором напоминание
// отправляется не более одного раза.
type Window string

const Window24h Window = "24h"
const Window10min Window = "10min"

func ValidStatus(s Status) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// ReminderSent сообщает, отправлялось ли уже напоминание для окна.
func (t *Task) ReminderSent(w Window) bool {
	switch w {
	case Window24h:
		return t.Reminder24hSent
	case Window10min:
		return t.Reminder10minSent
	}
	return false
}

func (t *Task) MarkReminderSent(w Window, sentAt time.Time) {
	switch w {
	case Window24h:
		t.Reminder24hSent = true
		t.Reminder24hSentAt = &sentAt
	case Window10min:
		t.Reminder10minSent = true
		t.Reminder10minSentAt = &sentAt
	}
	t.LastNotificationSent = &sentAt
}
