package task

import (
	"time"
)

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	if !ValidStatus(status) {
		return nil
	}
	return func(task *Task) {
		task.Status = status
	}
}

func WithPriority(priority Priority) TaskOption {
	if !ValidPriority(priority) {
		return nil
	}
	return func(task *Task) {
		task.Priority = priority
	}
}

func WithUrgency(urgency int) TaskOption {
	if urgency < 1 || urgency > 10 {
		return nil
	}
	return func(task *Task) {
		task.Urgency = urgency
	}
}

func WithEffort(effort int) TaskOption {
	if effort < 1 {
		return nil
	}
	return func(task *Task) {
		task.Effort = effort
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	return func(task *Task) {
		task.DueDate = dueDate
	}
}

func WithReminder(enabled bool, reminderTime *time.Time) TaskOption {
	return func(task *Task) {
		task.ReminderEnabled = enabled
		task.ReminderTime = reminderTime
	}
}
