package store

import (
	"sync"

	"taskPlanner/internal/models/task"
)

// Subscription - один живой слушатель поддерева владельца.
// Закрытие идемпотентно, после него каналы закрываются.
type Subscription struct {
	snapshots chan []task.Task
	errs      chan error
	once      sync.Once
	detach    func()
}

// Snapshots отдаёт полные снимки. Медленный потребитель видит только
// последний снимок, промежуточные заменяются.
func (s *Subscription) Snapshots() <-chan []task.Task {
	return s.snapshots
}

// Errors сигнализирует о деградации подписки, отдельно от пустого снимка
func (s *Subscription) Errors() <-chan error {
	return s.errs
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.detach()
		close(s.snapshots)
		close(s.errs)
	})
}

// Hub раздаёт снимки подписчикам, сгруппированным по владельцу.
// Бэкенды хранилища публикуют сюда после каждой успешной записи.
type Hub struct {
	mtx  sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

func (h *Hub) Subscribe(ownerID string) *Subscription {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	sub := &Subscription{
		snapshots: make(chan []task.Task, 1),
		errs:      make(chan error, 1),
	}
	sub.detach = func() {
		h.mtx.Lock()
		defer h.mtx.Unlock()
		delete(h.subs[ownerID], sub)
	}

	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[*Subscription]struct{})
	}
	h.subs[ownerID][sub] = struct{}{}
	return sub
}

// Publish доставляет снимок всем подписчикам владельца.
// Если подписчик не успел забрать предыдущий снимок, тот заменяется
// новым - гарантируется только консистентность с последней публикацией.
func (h *Hub) Publish(ownerID string, snapshot []task.Task) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	for sub := range h.subs[ownerID] {
		select {
		case sub.snapshots <- snapshot:
		default:
			select {
			case <-sub.snapshots:
			default:
			}
			select {
			case sub.snapshots <- snapshot:
			default:
			}
		}
	}
}

// Fail сообщает подписчикам владельца о деградации подписки
func (h *Hub) Fail(ownerID string, err error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	for sub := range h.subs[ownerID] {
		select {
		case sub.errs <- err:
		default:
		}
	}
}

// FailAll используется бэкендом, когда канал доставки упал целиком
// и отделить владельцев друг от друга уже нельзя
func (h *Hub) FailAll(err error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	for _, subs := range h.subs {
		for sub := range subs {
			select {
			case sub.errs <- err:
			default:
			}
		}
	}
}

// Count нужен для проверки инварианта "не больше одного слушателя"
func (h *Hub) Count(ownerID string) int {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return len(h.subs[ownerID])
}
