package query

import (
	"sort"
	"strings"
	"time"

	"taskPlanner/internal/models/task"
)

type Window string

const WindowAll Window = "all"
const WindowToday Window = "today"
const WindowWeek Window = "week"
const WindowMonth Window = "month"

// Filter - составной фильтр над снимком, условия складываются по И.
// Пустое поле означает "не фильтровать".
type Filter struct {
	Text   string      // подстрока в названии или описании, без регистра
	Tag    task.Tag    // точное совпадение тега, "all" - любой
	Status task.Status // сравнивается с вычисленным статусом, не с хранимым
	Window Window
}

// Apply фильтрует и сортирует снимок для ленты: по возрастанию
// дедлайна, задачи без дедлайна в конце, при равенстве - по id.
// Исходный срез не меняется.
func Apply(snapshot []task.Task, f Filter, now time.Time) []task.Task {
	result := make([]task.Task, 0, len(snapshot))
	for _, t := range snapshot {
		if f.matches(&t, now) {
			result = append(result, t)
		}
	}

	SortByDeadline(result)
	return result
}

func (f Filter) matches(t *task.Task, now time.Time) bool {
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}

	if f.Tag != "" && f.Tag != "all" && t.Tag != f.Tag {
		return false
	}

	// фильтр overdue нельзя свести к флагу completed -
	// статус всегда вычисляется от now
	if f.Status != "" && task.EffectiveStatus(t, now) != f.Status {
		return false
	}

	return f.inWindow(t, now)
}

// задачи без дедлайна попадают только в окно "all"
func (f Filter) inWindow(t *task.Task, now time.Time) bool {
	if f.Window == "" || f.Window == WindowAll {
		return true
	}
	if t.Deadline == nil {
		return false
	}
	deadline := *t.Deadline

	switch f.Window {
	case WindowToday:
		return sameDate(deadline, now)
	case WindowWeek:
		// календарная неделя с воскресенья, включительно
		start := dateOf(now).AddDate(0, 0, -int(now.Weekday()))
		end := start.AddDate(0, 0, 7)
		return !deadline.Before(start) && deadline.Before(end)
	case WindowMonth:
		return deadline.Year() == now.Year() && deadline.Month() == now.Month()
	default:
		return true
	}
}

// SortByDeadline - общий для ленты и подсказок порядок:
// дедлайны по возрастанию, без дедлайна - в конец, равные - по id
func SortByDeadline(tasks []task.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := &tasks[i], &tasks[j]
		switch {
		case a.Deadline == nil && b.Deadline == nil:
			return a.ID < b.ID
		case a.Deadline == nil:
			return false
		case b.Deadline == nil:
			return true
		case a.Deadline.Equal(*b.Deadline):
			return a.ID < b.ID
		default:
			return a.Deadline.Before(*b.Deadline)
		}
	})
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
