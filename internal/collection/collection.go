package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/store"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var ErrEmptyTitle = errors.New("название задачи не может быть пустым")

// ReminderScheduler - то, что коллекции нужно от планировщика
// напоминаний. Пустой хэндл без ошибки означает "напоминание не нужно".
type ReminderScheduler interface {
	Schedule(ctx context.Context, t *task.Task, now time.Time) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// Collection - живое зеркало задач одного владельца. Каждый push из
// хранилища целиком заменяет локальный снимок, локального слияния нет:
// запись видна только после того, как хранилище её вернёт (семантика
// write-then-observe). Коллекцией владеет одна сессия, конкурентные
// мутации одного поддерева из разных сессий не поддерживаются.
type Collection struct {
	ownerID   string
	store     store.TaskStore
	reminders ReminderScheduler

	mtx      sync.RWMutex
	snapshot []task.Task
	sub      *store.Subscription
	cancel   context.CancelFunc
	syncErr  error

	degraded chan error
}

func New(ownerID string, st store.TaskStore, reminders ReminderScheduler) *Collection {
	return &Collection{
		ownerID:   ownerID,
		store:     st,
		reminders: reminders,
		degraded:  make(chan error, 1),
	}
}

// Subscribe открывает ровно одного живого слушателя. Повторный вызов
// сначала снимает предыдущую подписку и только потом открывает новую:
// двух слушателей на одно поддерево не бывает даже на мгновение.
func (c *Collection) Subscribe(ctx context.Context) error {
	c.mtx.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
	c.mtx.Unlock()

	sub, err := c.store.Subscribe(ctx, c.ownerID)
	if err != nil {
		return fmt.Errorf("открытие подписки: %w", err)
	}

	listenCtx, cancel := context.WithCancel(ctx)

	c.mtx.Lock()
	c.sub, c.cancel = sub, cancel
	c.mtx.Unlock()

	go c.listen(listenCtx, sub)

	logger.Info("Collection: Подписка открыта", zap.String("owner_id", c.ownerID))
	return nil
}

// Close идемпотентен: слушатель снимается ровно один раз
func (c *Collection) Close() {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.sub != nil {
		c.sub.Close()
		c.sub = nil
	}
}

// Snapshot отдаёт копию текущего снимка
func (c *Collection) Snapshot() []task.Task {
	c.mtx.RLock()
	defer c.mtx.RUnlock()

	snapshot := make([]task.Task, len(c.snapshot))
	copy(snapshot, c.snapshot)
	return snapshot
}

// Degraded сигнализирует об обрывах подписки. Канал буферизован:
// важен сам факт деградации, а не каждое событие.
func (c *Collection) Degraded() <-chan error {
	return c.degraded
}

// SyncError отдаёт состояние, а не событие: не nil, пока подписка
// деградировала и ещё не восстановлена
func (c *Collection) SyncError() error {
	c.mtx.RLock()
	defer c.mtx.RUnlock()
	return c.syncErr
}

func (c *Collection) listen(ctx context.Context, sub *store.Subscription) {
	defer func() { sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return

		case snapshot, ok := <-sub.Snapshots():
			if !ok {
				return
			}
			c.mtx.Lock()
			c.snapshot = snapshot
			c.mtx.Unlock()

		case err, ok := <-sub.Errors():
			if !ok {
				return
			}
			logger.Warn("Collection: Подписка деградировала",
				zap.String("owner_id", c.ownerID),
				zap.Error(err))
			c.signalDegraded(err)

			next, rerr := c.resubscribe(ctx)
			if rerr != nil {
				return
			}
			sub.Close()
			sub = next

			c.mtx.Lock()
			c.sub = next
			c.syncErr = nil
			c.mtx.Unlock()
		}
	}
}

// переподписка с экспоненциальной паузой, пока жив контекст слушателя
func (c *Collection) resubscribe(ctx context.Context) (*store.Subscription, error) {
	var sub *store.Subscription

	operation := func() error {
		var err error
		sub, err = c.store.Subscribe(ctx, c.ownerID)
		return err
	}

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	if err := backoff.Retry(operation, bo); err != nil {
		logger.Error("Collection: Переподписка не удалась", err,
			zap.String("owner_id", c.ownerID))
		return nil, err
	}

	logger.Info("Collection: Подписка восстановлена", zap.String("owner_id", c.ownerID))
	return sub, nil
}

func (c *Collection) signalDegraded(err error) {
	c.mtx.Lock()
	c.syncErr = err
	c.mtx.Unlock()

	select {
	case c.degraded <- err:
	default:
	}
}
