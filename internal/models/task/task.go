package task

import (
	"time"
)

type Task struct {
	ID          string     `json:"id" db:"id"`
	OwnerID     string     `json:"owner_id" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description,omitempty" db:"description"`
	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	Tag         Tag        `json:"tag,omitempty" db:"tag"`
	Priority    Priority   `json:"priority,omitempty" db:"priority"`
	Completed   bool       `json:"completed" db:"completed"`
	Status      Status     `json:"status" db:"status"`
	ReminderID  string     `json:"reminder_id,omitempty" db:"reminder_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type Status string
type Tag string
type Priority string

// в хранилище пишутся только in_progress и completed,
// overdue всегда вычисляется от текущего времени
const StatusInProgress Status = "in_progress"
const StatusCompleted Status = "completed"
const StatusOverdue Status = "overdue"

const TagPersonal Tag = "personal"
const TagWork Tag = "work"
const TagStudy Tag = "study"
const TagOther Tag = "other"

const PriorityHigh Priority = "high"
const PriorityMedium Priority = "medium"
const PriorityLow Priority = "low"
