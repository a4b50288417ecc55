package task

import (
	"time"
)

// Option - функция частичного обновления, хранилище применяет их
// к текущей версии записи и сохраняет результат целиком
type Option func(*Task)

func WithTitle(title string) Option {
	return func(t *Task) {
		t.Title = title
	}
}

func WithDescription(description string) Option {
	return func(t *Task) {
		t.Description = description
	}
}

func WithDeadline(deadline *time.Time) Option {
	return func(t *Task) {
		t.Deadline = deadline
	}
}

func WithTag(tag Tag) Option {
	return func(t *Task) {
		t.Tag = tag
	}
}

func WithPriority(priority Priority) Option {
	return func(t *Task) {
		t.Priority = priority
	}
}

// WithCompleted выставляет флаг и зеркальный статус одной операцией,
// чтобы инвариант completed <-> status не разъезжался
func WithCompleted(completed bool) Option {
	return func(t *Task) {
		t.Completed = completed
		if completed {
			t.Status = StatusCompleted
		} else {
			t.Status = StatusInProgress
		}
	}
}

// WithReminderID привязывает (или очищает, если id пустой) хэндл
// запланированного напоминания
func WithReminderID(id string) Option {
	return func(t *Task) {
		t.ReminderID = id
	}
}
