package service

import (
	"time"

	"taskly/internal/models/task"
)

// опции обновления пробрасываются из DTO хендлера, nil-поля пропускаются

func UpdateOptions(title, description *string, status *task.Status, priority *task.Priority,
	urgency, effort *int, dueDate *time.Time, reminderEnabled *bool, reminderTime *time.Time) []task.TaskOption {

	options := []task.TaskOption{}

	if title != nil {
		options = append(options, task.WithTitle(*title))
	}
	if description != nil {
		options = append(options, task.WithDescription(*description))
	}
	if status != nil {
		options = append(options, task.WithStatus(*status))
	}
	if priority != nil {
		options = append(options, task.WithPriority(*priority))
	}
	if urgency != nil {
		options = append(options, task.WithUrgency(*urgency))
	}
	if effort != nil {
		options = append(options, task.WithEffort(*effort))
	}
	if dueDate != nil {
		options = append(options, task.WithDueDate(dueDate))
	}
	if reminderEnabled != nil {
		options = append(options, task.WithReminder(*reminderEnabled, reminderTime))
	}

	return options
}
