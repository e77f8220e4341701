package mailer

import (
	"fmt"
	"html"
	"strings"

	"taskly/internal/models/task"
)

// Message - собранное письмо-напоминание.
type Message struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// BuildReminder собирает текст напоминания: название, срок, приоритет,
// описание. timeframe - человекочитаемое окно ("24 hours", "10 minutes").
func BuildReminder(t *task.Task, timeframe, tasksURL string) Message {
	due := "No due date"
	if t.DueDate != nil {
		due = t.DueDate.UTC().Format("Monday, January 2, 2006 at 15:04 MST")
	}

	subject := fmt.Sprintf("Reminder: Task Due in %s - %s", timeframe, t.Title)

	var htmlSB strings.Builder
	htmlSB.WriteString("<div style='font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;'>")
	htmlSB.WriteString("<h1>Task Reminder</h1>")
	htmlSB.WriteString(fmt.Sprintf("<p>Your task is due in %s!</p>", html.EscapeString(timeframe)))
	htmlSB.WriteString(fmt.Sprintf("<h2>%s</h2>", html.EscapeString(t.Title)))
	htmlSB.WriteString(fmt.Sprintf("<p><strong>Due Date:</strong> %s</p>", html.EscapeString(due)))
	htmlSB.WriteString(fmt.Sprintf("<p><strong>Priority:</strong> %s</p>", html.EscapeString(string(t.Priority))))
	if t.Description != "" {
		escaped := html.EscapeString(t.Description)
		htmlSB.WriteString(fmt.Sprintf("<p><strong>Description:</strong> %s</p>", strings.ReplaceAll(escaped, "\n", "<br>")))
	}
	if tasksURL != "" {
		htmlSB.WriteString(fmt.Sprintf("<p><a href='%s'>View Task in Taskly</a></p>", tasksURL))
	}
	htmlSB.WriteString("<p style='color: #6c757d; font-size: 12px;'>This is an automated reminder from Taskly</p>")
	htmlSB.WriteString("</div>")

	var textSB strings.Builder
	textSB.WriteString(fmt.Sprintf("Reminder: Your task '%s' is due in %s.\n\n", t.Title, timeframe))
	textSB.WriteString(fmt.Sprintf("Due Date: %s\n", due))
	textSB.WriteString(fmt.Sprintf("Priority: %s\n", t.Priority))
	if t.Description != "" {
		textSB.WriteString(fmt.Sprintf("Description: %s\n", t.Description))
	}
	if tasksURL != "" {
		textSB.WriteString(fmt.Sprintf("\nView your tasks at: %s", tasksURL))
	}

	return Message{
		Subject:  subject,
		HTMLBody: htmlSB.String(),
		TextBody: textSB.String(),
	}
}

// TimeframeFor переводит окно напоминания в текст для письма.
func TimeframeFor(w task.Window) string {
	switch w {
	case task.Window24h:
		return "24 hours"
	case task.Window10min:
		return "10 minutes"
	}
	return "soon"
}

// DueMessage - строка для пользовательского уведомления в интерфейсе.
func DueMessage(title string, daysUntil int, overdue, dueToday bool) string {
	switch {
	case overdue:
		return "Overdue: " + title
	case dueToday:
		return "Due Today: " + title
	default:
		return fmt.Sprintf("Due in %d day(s): %s", daysUntil, title)
	}
}
