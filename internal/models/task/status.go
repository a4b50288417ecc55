package task

import "time"

// EffectiveStatus вычисляет действующий статус задачи на момент now.
// Флаг Completed первичен, дальше смотрим на дедлайн. Результат нигде
// не сохраняется - иначе он устареет сам по себе, без единой записи.
func EffectiveStatus(t *Task, now time.Time) Status {
	if t.Completed {
		return StatusCompleted
	}
	if t.Deadline != nil && t.Deadline.Before(now) {
		return StatusOverdue
	}
	return StatusInProgress
}

// IsOverdue - короткая форма для фильтров и ответов API
func IsOverdue(t *Task, now time.Time) bool {
	return EffectiveStatus(t, now) == StatusOverdue
}
