// Package scoring считает ранг задачи и классифицирует её близость к дедлайну.
// Все функции чистые: время передаётся явно, задача не мутируется.
package scoring

import (
	"sort"
	"time"

	"taskly/internal/models/task"
)

// Label - человекочитаемая классификация близости дедлайна,
// используется в тексте уведомлений.
type Label string

const LabelNone Label = "none"
const LabelOverdue Label = "overdue"
const LabelDueToday Label = "due_today"
const LabelUpcoming Label = "upcoming"

const defaultUrgency = 1
const defaultEffort = 1

// Score возвращает суммарный ранг задачи на момент now.
// Чем выше ранг, тем раньше задача должна оказаться в списке.
func Score(t *task.Task, now time.Time) int {
	return priorityScore(t.Priority) +
		DeadlineUrgency(t.DueDate, now) +
		effortTerm(t.Effort) +
		urgencyTerm(t.Urgency)
}

func priorityScore(p task.Priority) int {
	switch p {
	case task.PriorityHigh:
		return 3
	case task.PriorityLow:
		return 1
	default:
		// неизвестный приоритет считаем средним
		return 2
	}
}

func effortTerm(effort int) int {
	if effort < 1 {
		return defaultEffort
	}
	return effort
}

func urgencyTerm(urgency int) int {
	if urgency < 1 {
		return defaultUrgency
	}
	return urgency
}

// DeadlineUrgency - вклад дедлайна в ранг. Сравнение идёт по календарным
// дням в UTC, а не по точным моментам времени.
func DeadlineUrgency(due *time.Time, now time.Time) int {
	if due == nil {
		return 0
	}

	days := daysUntil(*due, now)
	switch {
	case days < 0:
		return 5 // просрочена
	case days == 0:
		return 4 // дедлайн сегодня
	case days <= 1:
		return 3
	case days <= 3:
		return 2
	case days <= 7:
		return 1
	default:
		return 0
	}
}

// Classify выдаёт метку для текста уведомления. Та же дневная арифметика,
// что и в DeadlineUrgency.
func Classify(due *time.Time, now time.Time) Label {
	if due == nil {
		return LabelNone
	}

	days := daysUntil(*due, now)
	switch {
	case days < 0:
		return LabelOverdue
	case days == 0:
		return LabelDueToday
	default:
		return LabelUpcoming
	}
}

// DaysUntil - целое число календарных дней (UTC) от now до due.
// Отрицательное значение означает просроченный дедлайн.
func DaysUntil(due time.Time, now time.Time) int {
	return daysUntil(due, now)
}

func daysUntil(due time.Time, now time.Time) int {
	dueDay := truncateToDay(due)
	today := truncateToDay(now)
	return int(dueDay.Sub(today).Hours() / 24)
}

func truncateToDay(t time.Time) time.Time {
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

// Sort упорядочивает задачи: ранг по убыванию, при равенстве - ближайший
// дедлайн раньше, задачи без дедлайна в конце. Сортировка стабильная,
// задачи с полностью равными ключами сохраняют исходный порядок.
func Sort(tasks []*task.Task, now time.Time) {
	scores := make(map[*task.Task]int, len(tasks))
	for _, t := range tasks {
		scores[t] = Score(t, now)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		si, sj := scores[tasks[i]], scores[tasks[j]]
		if si != sj {
			return si > sj
		}

		di, dj := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
}
