package suggest

import (
	"time"

	"taskPlanner/internal/models/task"
	"taskPlanner/internal/query"
)

// Upcoming отбирает следующие limit самых срочных задач: завершённые
// и уже просроченные не попадают (просроченным место в отдельной
// ленте, а не в подсказке "что делать дальше"), задачи без дедлайна
// идут после всех с дедлайном. limit < 0 - без ограничения.
func Upcoming(snapshot []task.Task, now time.Time, limit int) []task.Task {
	result := make([]task.Task, 0, len(snapshot))
	for _, t := range snapshot {
		if t.Completed {
			continue
		}
		if t.Deadline != nil && !t.Deadline.After(now) {
			continue
		}
		result = append(result, t)
	}

	query.SortByDeadline(result)

	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
