package dto

import (
	"time"

	"taskPlanner/internal/models/task"
)

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Tag         string     `json:"tag"`
	Priority    string     `json:"priority"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Tag         *string    `json:"tag,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
}

// ToggleTaskRequest несёт текущее значение флага со стороны клиента,
// хранилище запишет его отрицание
type ToggleTaskRequest struct {
	Completed bool `json:"completed"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Tag         string     `json:"tag,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	Completed   bool       `json:"completed"`
	Status      string     `json:"status"` // вычисленный, не хранимый
	ReminderID  string     `json:"reminder_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func FromTask(t *task.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Deadline:    t.Deadline,
		Tag:         string(t.Tag),
		Priority:    string(t.Priority),
		Completed:   t.Completed,
		Status:      string(task.EffectiveStatus(t, now)),
		ReminderID:  t.ReminderID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// FromTaskList отдаёт весь список от одного now
func FromTaskList(tasks []task.Task, now time.Time) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i := range tasks {
		result[i] = FromTask(&tasks[i], now)
	}
	return result
}

// UpdateOptions собирает опции частичного обновления из непустых полей
func (r *UpdateTaskRequest) UpdateOptions() []task.Option {
	var opts []task.Option
	if r.Title != nil {
		opts = append(opts, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		opts = append(opts, task.WithDescription(*r.Description))
	}
	if r.Deadline != nil {
		opts = append(opts, task.WithDeadline(r.Deadline))
	}
	if r.Tag != nil {
		opts = append(opts, task.WithTag(task.Tag(*r.Tag)))
	}
	if r.Priority != nil {
		opts = append(opts, task.WithPriority(task.Priority(*r.Priority)))
	}
	return opts
}
