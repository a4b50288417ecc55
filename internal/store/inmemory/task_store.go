package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"taskPlanner/internal/models/task"
	"taskPlanner/internal/store"

	"github.com/google/uuid"
)

// TaskStorage - хранилище в памяти для тестов и локального запуска.
// Семантика та же, что у постоянных бэкендов: после каждой записи
// подписчикам владельца уходит полный снимок его поддерева.
type TaskStorage struct {
	mtx   sync.RWMutex
	tasks map[string]map[string]*task.Task // ownerID -> taskID -> задача
	hub   *store.Hub
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		tasks: make(map[string]map[string]*task.Task),
		hub:   store.NewHub(),
	}
}

// Subscribe публикует первый снимок под тем же замком, что и записи:
// гонка записи с подпиской не может сделать устаревший снимок последним
func (s *TaskStorage) Subscribe(ctx context.Context, ownerID string) (*store.Subscription, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	sub := s.hub.Subscribe(ownerID)

	// как и у удалённой базы, первый снимок приходит сразу
	s.hub.Publish(ownerID, s.snapshotLocked(ownerID))
	return sub, nil
}

func (s *TaskStorage) Create(ctx context.Context, t *task.Task) (string, error) {
	s.mtx.Lock()

	now := time.Now()
	stored := *t
	stored.ID = uuid.NewString()
	stored.Completed = false
	stored.Status = task.StatusInProgress
	stored.CreatedAt = now
	stored.UpdatedAt = now

	if s.tasks[stored.OwnerID] == nil {
		s.tasks[stored.OwnerID] = make(map[string]*task.Task)
	}
	s.tasks[stored.OwnerID][stored.ID] = &stored
	s.hub.Publish(stored.OwnerID, s.snapshotLocked(stored.OwnerID))
	s.mtx.Unlock()

	return stored.ID, nil
}

func (s *TaskStorage) Update(ctx context.Context, ownerID, id string, opts ...task.Option) (*task.Task, error) {
	s.mtx.Lock()

	existing, ok := s.tasks[ownerID][id]
	if !ok {
		s.mtx.Unlock()
		return nil, store.ErrNotFound
	}

	for _, opt := range opts {
		opt(existing)
	}
	existing.UpdatedAt = time.Now()

	updated := *existing
	s.hub.Publish(ownerID, s.snapshotLocked(ownerID))
	s.mtx.Unlock()

	return &updated, nil
}

func (s *TaskStorage) Delete(ctx context.Context, ownerID, id string) error {
	s.mtx.Lock()

	if _, ok := s.tasks[ownerID][id]; !ok {
		s.mtx.Unlock()
		return store.ErrNotFound
	}
	delete(s.tasks[ownerID], id)
	s.hub.Publish(ownerID, s.snapshotLocked(ownerID))
	s.mtx.Unlock()

	return nil
}

// SubscriberCount отдаёт число живых подписок владельца
func (s *TaskStorage) SubscriberCount(ownerID string) int {
	return s.hub.Count(ownerID)
}

// снимок отдаётся копиями и в детерминированном порядке по id
func (s *TaskStorage) snapshotLocked(ownerID string) []task.Task {
	snapshot := make([]task.Task, 0, len(s.tasks[ownerID]))
	for _, t := range s.tasks[ownerID] {
		snapshot = append(snapshot, *t)
	}
	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ID < snapshot[j].ID
	})
	return snapshot
}
