package worker

import (
	"context"
	"time"

	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"

	"go.uber.org/zap"
)

// TaskCollection - то, что воркеру нужно от коллекции. Update сам
// разбирается с напоминаниями: снимает хэндл у завершённой задачи и
// ставит недостающий у незавершённой.
type TaskCollection interface {
	Snapshot() []task.Task
	Update(ctx context.Context, id string, opts ...task.Option) error
}

// ReminderWorker - фоновая сверка напоминаний со снимком: после
// перезапуска восстанавливает напоминания по сохранённым дедлайнам и
// подчищает хэндлы у завершённых задач.
type ReminderWorker struct {
	collection TaskCollection
	interval   time.Duration
	batchSize  int
}

func NewReminderWorker(collection TaskCollection, interval *time.Duration, batchSize *int) *ReminderWorker {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 5 * time.Minute
	} else {
		intervalToSet = *interval
	}

	var batchToSet int
	if batchSize == nil || *batchSize <= 0 {
		batchToSet = 100
	} else {
		batchToSet = *batchSize
	}

	return &ReminderWorker{
		collection: collection,
		interval:   intervalToSet,
		batchSize:  batchToSet,
	}
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая сверка напоминаний", zap.Time("started_at", time.Now()))
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая сверка останавливается")
			return
		}
	}
}

func (w *ReminderWorker) Check(ctx context.Context) {
	start := time.Now()

	snapshot := w.collection.Snapshot()
	now := time.Now()
	fixed := 0

	for i := range snapshot {
		if fixed >= w.batchSize {
			break
		}

		t := &snapshot[i]
		if !w.needsFix(t, now) {
			continue
		}

		// Update без опций трогает только напоминание и updated_at
		if err := w.collection.Update(ctx, t.ID); err != nil {
			logger.Warn("Worker: Ошибка сверки задачи",
				zap.String("task_id", t.ID),
				zap.Error(err))
			continue
		}
		fixed++
	}

	logger.Info("Worker: Завершение сверки напоминаний",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(snapshot)),
		zap.Int("fixed", fixed))
}

// завершённая задача не должна держать живой хэндл, незавершённая с
// будущим дедлайном не должна остаться без напоминания
func (w *ReminderWorker) needsFix(t *task.Task, now time.Time) bool {
	if t.Completed {
		return t.ReminderID != ""
	}
	return t.ReminderID == "" && t.Deadline != nil && t.Deadline.After(now)
}
