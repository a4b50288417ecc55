package calendar

import (
	"time"

	"taskPlanner/internal/models/task"
	"taskPlanner/internal/query"
)

const dateLayout = "2006-01-02"

// DaySummary - сводка по одной дате календаря. Отдаём счётчики, а не
// готовый цвет: раскраска ячейки - дело отображения.
type DaySummary struct {
	Count          int  `json:"count"`
	CompletedCount int  `json:"completed_count"`
	HasOverdue     bool `json:"has_overdue"`
}

// Aggregate группирует задачи по дате дедлайна. Задачи без дедлайна
// в календаре не отображаются. Весь проход считается от одного now,
// чтобы задача не сменила категорию посреди отрисовки.
func Aggregate(snapshot []task.Task, now time.Time) map[string]DaySummary {
	days := make(map[string]DaySummary)

	for i := range snapshot {
		t := &snapshot[i]
		if t.Deadline == nil {
			continue
		}

		day := t.Deadline.Format(dateLayout)
		summary := days[day]
		summary.Count++

		switch task.EffectiveStatus(t, now) {
		case task.StatusCompleted:
			summary.CompletedCount++
		case task.StatusOverdue:
			summary.HasOverdue = true
		}
		days[day] = summary
	}

	return days
}

// TasksOn - задачи выбранной даты (формат YYYY-MM-DD) для списка
// под календарём, в порядке ленты
func TasksOn(snapshot []task.Task, day string) []task.Task {
	result := make([]task.Task, 0)
	for _, t := range snapshot {
		if t.Deadline != nil && t.Deadline.Format(dateLayout) == day {
			result = append(result, t)
		}
	}
	query.SortByDeadline(result)
	return result
}

// RangeStats - счётчики для круговой диаграммы за период
type RangeStats struct {
	Done       int `json:"done"`
	Overdue    int `json:"overdue"`
	InProgress int `json:"in_progress"`
}

// StatsBetween считает задачи с дедлайном в датах [from, to]
// включительно, статус каждой вычисляется от одного now
func StatsBetween(snapshot []task.Task, from, to time.Time, now time.Time) RangeStats {
	fromDay := from.Format(dateLayout)
	toDay := to.Format(dateLayout)

	var stats RangeStats
	for i := range snapshot {
		t := &snapshot[i]
		if t.Deadline == nil {
			continue
		}
		day := t.Deadline.Format(dateLayout)
		if day < fromDay || day > toDay {
			continue
		}

		switch task.EffectiveStatus(t, now) {
		case task.StatusCompleted:
			stats.Done++
		case task.StatusOverdue:
			stats.Overdue++
		default:
			stats.InProgress++
		}
	}
	return stats
}
