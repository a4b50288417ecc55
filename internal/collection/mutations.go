package collection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"

	"go.uber.org/zap"
)

// Create записывает новую задачу и best-effort ставит напоминание.
// Отказ напоминания не откатывает запись - задача важнее уведомления.
func (c *Collection) Create(ctx context.Context, t *task.Task) (string, error) {
	if strings.TrimSpace(t.Title) == "" {
		return "", ErrEmptyTitle
	}

	t.OwnerID = c.ownerID
	id, err := c.store.Create(ctx, t)
	if err != nil {
		return "", fmt.Errorf("создание задачи: %w", err)
	}

	created := *t
	created.ID = id
	c.armReminder(ctx, &created)

	return id, nil
}

// Update применяет частичное обновление. Старое напоминание снимается
// до записи: напоминание с прежним дедлайном или заголовком не должно
// сработать. Новое ставится после записи по итоговым полям.
func (c *Collection) Update(ctx context.Context, id string, opts ...task.Option) error {
	if prev, ok := c.find(id); ok && prev.ReminderID != "" {
		if err := c.reminders.Cancel(ctx, prev.ReminderID); err != nil {
			logger.Warn("Collection: Не удалось снять старое напоминание",
				zap.String("task_id", id),
				zap.Error(err))
		}
		opts = append(opts, task.WithReminderID(""))
	}

	updated, err := c.store.Update(ctx, c.ownerID, id, opts...)
	if err != nil {
		return fmt.Errorf("обновление задачи: %w", err)
	}

	if !updated.Completed {
		c.armReminder(ctx, updated)
	}
	return nil
}

// Toggle пишет отрицание переданного клиентом значения, а не
// прочитанного из хранилища: при конкурентной правке с другого
// устройства флаг может перевернуться "не туда". Осознанное
// ограничение - поддерево владельца пишет одна сессия.
func (c *Collection) Toggle(ctx context.Context, id string, currentCompleted bool) error {
	completed := !currentCompleted

	opts := []task.Option{task.WithCompleted(completed)}
	if completed {
		if prev, ok := c.find(id); ok && prev.ReminderID != "" {
			if err := c.reminders.Cancel(ctx, prev.ReminderID); err != nil {
				logger.Warn("Collection: Не удалось снять напоминание завершённой задачи",
					zap.String("task_id", id),
					zap.Error(err))
			}
		}
		opts = append(opts, task.WithReminderID(""))
	}

	updated, err := c.store.Update(ctx, c.ownerID, id, opts...)
	if err != nil {
		return fmt.Errorf("переключение статуса: %w", err)
	}

	if !completed {
		c.armReminder(ctx, updated)
	}
	return nil
}

// Delete удаляет задачу и снимает её напоминание
func (c *Collection) Delete(ctx context.Context, id string) error {
	if prev, ok := c.find(id); ok && prev.ReminderID != "" {
		if err := c.reminders.Cancel(ctx, prev.ReminderID); err != nil {
			logger.Warn("Collection: Не удалось снять напоминание удаляемой задачи",
				zap.String("task_id", id),
				zap.Error(err))
		}
	}

	if err := c.store.Delete(ctx, c.ownerID, id); err != nil {
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}

// armReminder ставит напоминание и сохраняет хэндл в записи задачи,
// чтобы его можно было снять после перезапуска или из другой сессии.
// Все отказы здесь не фатальны.
func (c *Collection) armReminder(ctx context.Context, t *task.Task) {
	if t.Deadline == nil {
		return
	}

	handle, err := c.reminders.Schedule(ctx, t, time.Now())
	if err != nil {
		logger.Warn("Collection: Напоминание не поставлено",
			zap.String("task_id", t.ID),
			zap.Error(err))
		return
	}
	if handle == "" {
		return
	}

	if _, err := c.store.Update(ctx, c.ownerID, t.ID, task.WithReminderID(handle)); err != nil {
		logger.Warn("Collection: Хэндл напоминания не сохранён",
			zap.String("task_id", t.ID),
			zap.String("handle", handle),
			zap.Error(err))
	}
}

// find ищет задачу в текущем снимке. Снимок может отставать от
// хранилища - для снятия напоминаний этого достаточно.
func (c *Collection) find(id string) (*task.Task, bool) {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	for i := range c.snapshot {
		if c.snapshot[i].ID == id {
			t := c.snapshot[i]
			return &t, true
		}
	}
	return nil, false
}
