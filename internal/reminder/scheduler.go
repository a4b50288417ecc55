package reminder

import (
	"context"
	"fmt"
	"time"

	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"

	"go.uber.org/zap"
)

// DefaultLead - за сколько до дедлайна срабатывает напоминание
const DefaultLead = time.Minute

// Scheduler гарантирует не больше одного живого напоминания на задачу:
// вызывающая сторона отменяет старый хэндл перед постановкой нового и
// хранит выданный хэндл прямо в записи задачи.
type Scheduler struct {
	service Service
	lead    time.Duration
}

func NewScheduler(service Service, lead time.Duration) *Scheduler {
	if lead <= 0 {
		lead = DefaultLead
	}
	return &Scheduler{
		service: service,
		lead:    lead,
	}
}

// Schedule ставит напоминание на deadline - lead. Пустой хэндл без
// ошибки означает "напоминание не нужно": нет дедлайна либо время
// срабатывания уже прошло - для почти наступивших дедлайнов
// напоминание сознательно не ставится.
func (s *Scheduler) Schedule(ctx context.Context, t *task.Task, now time.Time) (string, error) {
	if t.Deadline == nil {
		return "", nil
	}

	trigger := t.Deadline.Add(-s.lead)
	if !trigger.After(now) {
		logger.Info("Reminder: Время срабатывания в прошлом, пропускаем",
			zap.String("task_id", t.ID),
			zap.Time("trigger_at", trigger))
		return "", nil
	}

	handle, err := s.service.Schedule(ctx, Notification{
		Title:     "Напоминание о задаче",
		Body:      fmt.Sprintf("Скоро дедлайн: %s", t.Title),
		TriggerAt: trigger,
	})
	if err != nil {
		return "", fmt.Errorf("постановка напоминания: %w", err)
	}

	logger.Info("Reminder: Напоминание запланировано",
		zap.String("task_id", t.ID),
		zap.String("handle", handle),
		zap.Time("trigger_at", trigger))
	return handle, nil
}

// Cancel снимает напоминание. Пустой или уже отменённый хэндл - no-op.
func (s *Scheduler) Cancel(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	if err := s.service.Cancel(ctx, handle); err != nil {
		return fmt.Errorf("отмена напоминания: %w", err)
	}
	return nil
}
