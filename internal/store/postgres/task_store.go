package postgres

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
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// TaskStorage - бэкенд на PostgreSQL. Push-подписка собрана на
// LISTEN/NOTIFY: каждая запись шлёт NOTIFY с id владельца, слушатель
// перечитывает поддерево и публикует полный снимок.
type TaskStorage struct {
	pool   *pgxpool.Pool
	hub    *store.Hub
	cancel context.CancelFunc

	// чтение снимка и его публикация - одно атомарное действие,
	// иначе устаревший снимок может уйти подписчикам последним
	pubMtx sync.Mutex
}

const notifyChannel = "task_events"

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          text PRIMARY KEY,
	owner_id    text NOT NULL,
	title       text NOT NULL,
	description text NOT NULL DEFAULT '',
	deadline    timestamptz,
	tag         text NOT NULL DEFAULT '',
	priority    text NOT NULL DEFAULT '',
	completed   boolean NOT NULL DEFAULT false,
	status      text NOT NULL DEFAULT 'in_progress',
	reminder_id text NOT NULL DEFAULT '',
	created_at  timestamptz NOT NULL,
	updated_at  timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS tasks_owner_idx ON tasks (owner_id);
`

func New(ctx context.Context, connString string) (*TaskStorage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Store: Ошибка разбора строки подключения", err)
		return nil, fmt.Errorf("разбор строки подключения: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Store: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Store: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		logger.Error("Store: Ошибка применения схемы", err)
		return nil, fmt.Errorf("применение схемы: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s := &TaskStorage{
		pool:   pool,
		hub:    store.NewHub(),
		cancel: cancel,
	}
	go s.listen(listenCtx)

	logger.Info("Store: Успешное подключение к PostgreSQL")
	return s, nil
}

func (s *TaskStorage) Close() {
	s.cancel()
	s.pool.Close()
	logger.Info("Store: Закрытие всех соединений PostgreSQL")
}

func (s *TaskStorage) Subscribe(ctx context.Context, ownerID string) (*store.Subscription, error) {
	s.pubMtx.Lock()
	defer s.pubMtx.Unlock()

	sub := s.hub.Subscribe(ownerID)

	snapshot, err := s.snapshot(ctx, ownerID)
	if err != nil {
		sub.Close()
		return nil, err
	}
	s.hub.Publish(ownerID, snapshot)

	return sub, nil
}

func (s *TaskStorage) Create(ctx context.Context, t *task.Task) (string, error) {
	now := time.Now()
	id := uuid.NewString()

	query := `INSERT INTO tasks
			(id, owner_id, title, description, deadline, tag, priority,
			 completed, status, reminder_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, '', $9, $9)`

	_, err := s.pool.Exec(ctx, query,
		id, t.OwnerID, t.Title, t.Description, t.Deadline,
		t.Tag, t.Priority, task.StatusInProgress, now)
	if err != nil {
		logger.Error("Store: Создание задачи", err)
		return "", store.NewWriteError("create", err)
	}

	s.notify(ctx, t.OwnerID)
	return id, nil
}

func (s *TaskStorage) Update(ctx context.Context, ownerID, id string, opts ...task.Option) (*task.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, store.NewWriteError("update", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT id, owner_id, title, description, deadline,
			tag, priority, completed, status, reminder_id, created_at, updated_at
		FROM tasks WHERE owner_id = $1 AND id = $2 FOR UPDATE`, ownerID, id)

	var updated task.Task
	err = scanTask(row, &updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, store.NewWriteError("update", err)
	}

	for _, opt := range opts {
		opt(&updated)
	}
	updated.UpdatedAt = time.Now()

	_, err = tx.Exec(ctx, `UPDATE tasks
		SET title = $1, description = $2, deadline = $3, tag = $4,
			priority = $5, completed = $6, status = $7, reminder_id = $8,
			updated_at = $9
		WHERE owner_id = $10 AND id = $11`,
		updated.Title, updated.Description, updated.Deadline, updated.Tag,
		updated.Priority, updated.Completed, updated.Status, updated.ReminderID,
		updated.UpdatedAt, ownerID, id)
	if err != nil {
		return nil, store.NewWriteError("update", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, store.NewWriteError("update", err)
	}

	s.notify(ctx, ownerID)
	return &updated, nil
}

func (s *TaskStorage) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tasks WHERE owner_id = $1 AND id = $2`, ownerID, id)
	if err != nil {
		logger.Error("Store: Удаление задачи", err)
		return store.NewWriteError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}

	s.notify(ctx, ownerID)
	return nil
}

func (s *TaskStorage) snapshot(ctx context.Context, ownerID string) ([]task.Task, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, owner_id, title, description,
			deadline, tag, priority, completed, status, reminder_id,
			created_at, updated_at
		FROM tasks WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("чтение снимка: %w", err)
	}
	defer rows.Close()

	snapshot := []task.Task{}
	for rows.Next() {
		var t task.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("чтение снимка: %w", err)
		}
		snapshot = append(snapshot, t)
	}
	return snapshot, rows.Err()
}

func (s *TaskStorage) notify(ctx context.Context, ownerID string) {
	_, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, ownerID)
	if err != nil {
		logger.Warn("Store: Не удалось отправить NOTIFY", zap.Error(err))
	}
}

// listen держит выделенное соединение под LISTEN и переустанавливает
// его с экспоненциальной паузой после обрыва
func (s *TaskStorage) listen(ctx context.Context) {
	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	for {
		err := backoff.Retry(func() error {
			return s.listenOnce(ctx)
		}, bo)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("Store: Слушатель NOTIFY остановлен", zap.Error(err))
			s.hub.FailAll(err)
		}
		bo.Reset()
	}
}

func (s *TaskStorage) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	logger.Info("Store: Слушатель NOTIFY запущен")

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// подписчики узнают о деградации, затем пробуем переподключиться
			s.hub.FailAll(err)
			return err
		}

		ownerID := notification.Payload
		s.pubMtx.Lock()
		snapshot, err := s.snapshot(ctx, ownerID)
		if err != nil {
			s.pubMtx.Unlock()
			logger.Warn("Store: Не удалось собрать снимок для подписчиков", zap.Error(err))
			s.hub.Fail(ownerID, err)
			continue
		}
		s.hub.Publish(ownerID, snapshot)
		s.pubMtx.Unlock()
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner, t *task.Task) error {
	return row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.Deadline,
		&t.Tag, &t.Priority, &t.Completed, &t.Status, &t.ReminderID,
		&t.CreatedAt, &t.UpdatedAt)
}
