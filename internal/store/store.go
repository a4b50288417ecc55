package store

import (
	"context"

	"taskPlanner/internal/models/task"
)

// TaskStore - граница удалённого хранилища задач. Задачи лежат по пути
// tasks/{ownerId}/{taskId}, подписка отдаёт полный снимок поддерева
// владельца при каждом изменении.
type TaskStore interface {
	// Subscribe открывает живую подписку на задачи владельца.
	// Сразу после открытия доставляется текущий снимок.
	Subscribe(ctx context.Context, ownerID string) (*Subscription, error)

	// Create сохраняет новую задачу и возвращает присвоенный id
	Create(ctx context.Context, t *task.Task) (string, error)

	// Update применяет частичное обновление и возвращает итоговую запись
	Update(ctx context.Context, ownerID, id string, opts ...task.Option) (*task.Task, error)

	Delete(ctx context.Context, ownerID, id string) error
}
