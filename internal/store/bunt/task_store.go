package bunt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/store"

	"github.com/google/uuid"
	"github.com/tidwall/buntdb"
	"go.uber.org/zap"
)

// TaskStorage - встраиваемое хранилище на buntdb. Ключи повторяют
// иерархию удалённой базы: tasks/{ownerId}/{taskId}, значения - JSON.
type TaskStorage struct {
	db  *buntdb.DB
	hub *store.Hub

	// чтение снимка и его публикация - одно атомарное действие,
	// иначе устаревший снимок может уйти подписчикам последним
	pubMtx sync.Mutex
}

const indexDeadline = "deadline"

// Open открывает файл базы (":memory:" для тестов)
func Open(path string) (*TaskStorage, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("открытие buntdb: %w", err)
	}

	err = db.CreateIndex(indexDeadline, "tasks/*", buntdb.IndexJSON("deadline"))
	if err != nil && err != buntdb.ErrIndexExists {
		db.Close()
		return nil, fmt.Errorf("создание индекса: %w", err)
	}

	logger.Info("Store: Открыто локальное хранилище buntdb")
	return &TaskStorage{db: db, hub: store.NewHub()}, nil
}

func (s *TaskStorage) Close() {
	s.db.Close()
	logger.Info("Store: Локальное хранилище закрыто")
}

func key(ownerID, id string) string {
	return fmt.Sprintf("tasks/%s/%s", ownerID, id)
}

func (s *TaskStorage) Subscribe(ctx context.Context, ownerID string) (*store.Subscription, error) {
	s.pubMtx.Lock()
	defer s.pubMtx.Unlock()

	sub := s.hub.Subscribe(ownerID)

	snapshot, err := s.snapshot(ownerID)
	if err != nil {
		sub.Close()
		return nil, err
	}
	s.hub.Publish(ownerID, snapshot)

	return sub, nil
}

func (s *TaskStorage) Create(ctx context.Context, t *task.Task) (string, error) {
	now := time.Now()
	stored := *t
	stored.ID = uuid.NewString()
	stored.Completed = false
	stored.Status = task.StatusInProgress
	stored.CreatedAt = now
	stored.UpdatedAt = now

	raw, err := json.Marshal(&stored)
	if err != nil {
		return "", store.NewWriteError("create", err)
	}

	err = s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(stored.OwnerID, stored.ID), string(raw), nil)
		return err
	})
	if err != nil {
		return "", store.NewWriteError("create", err)
	}

	s.publish(stored.OwnerID)
	return stored.ID, nil
}

func (s *TaskStorage) Update(ctx context.Context, ownerID, id string, opts ...task.Option) (*task.Task, error) {
	var updated task.Task

	err := s.db.Update(func(tx *buntdb.Tx) error {
		raw, err := tx.Get(key(ownerID, id))
		if err == buntdb.ErrNotFound {
			return store.ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := json.Unmarshal([]byte(raw), &updated); err != nil {
			return err
		}
		for _, opt := range opts {
			opt(&updated)
		}
		updated.UpdatedAt = time.Now()

		next, err := json.Marshal(&updated)
		if err != nil {
			return err
		}
		_, _, err = tx.Set(key(ownerID, id), string(next), nil)
		return err
	})
	if err == store.ErrNotFound {
		return nil, err
	}
	if err != nil {
		return nil, store.NewWriteError("update", err)
	}

	s.publish(ownerID)
	return &updated, nil
}

func (s *TaskStorage) Delete(ctx context.Context, ownerID, id string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(ownerID, id))
		if err == buntdb.ErrNotFound {
			return store.ErrNotFound
		}
		return err
	})
	if err == store.ErrNotFound {
		return err
	}
	if err != nil {
		return store.NewWriteError("delete", err)
	}

	s.publish(ownerID)
	return nil
}

func (s *TaskStorage) snapshot(ownerID string) ([]task.Task, error) {
	var snapshot []task.Task
	prefix := fmt.Sprintf("tasks/%s/", ownerID)

	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(prefix+"*", func(k, v string) bool {
			if !strings.HasPrefix(k, prefix) {
				return true
			}
			var t task.Task
			if json.Unmarshal([]byte(v), &t) == nil {
				snapshot = append(snapshot, t)
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("чтение снимка: %w", err)
	}

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID < snapshot[j].ID
	})
	return snapshot, nil
}

func (s *TaskStorage) publish(ownerID string) {
	s.pubMtx.Lock()
	defer s.pubMtx.Unlock()

	snapshot, err := s.snapshot(ownerID)
	if err != nil {
		logger.Warn("Store: Не удалось собрать снимок для подписчиков", zap.Error(err))
		s.hub.Fail(ownerID, err)
		return
	}
	s.hub.Publish(ownerID, snapshot)
}
