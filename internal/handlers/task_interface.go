package handlers

import (
	"context"

	"taskPlanner/internal/models/task"
)

type TaskCollection interface {
	Snapshot() []task.Task
	Create(ctx context.Context, t *task.Task) (string, error)
	Update(ctx context.Context, id string, opts ...task.Option) error
	Delete(ctx context.Context, id string) error
	Toggle(ctx context.Context, id string, currentCompleted bool) error
	SyncError() error
}
