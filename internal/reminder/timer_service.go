package reminder

import (
	"context"
	"sync"
	"time"

	"taskPlanner/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TimerService - доставка напоминаний внутри процесса на time.AfterFunc.
// Заменяет платформенный сервис уведомлений при локальном запуске.
type TimerService struct {
	mtx       sync.Mutex
	timers    map[string]*time.Timer
	notify    func(Notification)
	permitted func() bool
}

// NewTimerService принимает функцию доставки (nil - просто записать
// срабатывание в лог) и проверку разрешения на уведомления
// (nil - разрешено всегда)
func NewTimerService(notify func(Notification), permitted func() bool) *TimerService {
	return &TimerService{
		timers:    make(map[string]*time.Timer),
		notify:    notify,
		permitted: permitted,
	}
}

func (s *TimerService) Schedule(ctx context.Context, n Notification) (string, error) {
	if s.permitted != nil && !s.permitted() {
		return "", ErrPermissionDenied
	}

	handle := uuid.NewString()

	s.mtx.Lock()
	s.timers[handle] = time.AfterFunc(time.Until(n.TriggerAt), func() {
		s.fire(handle, n)
	})
	s.mtx.Unlock()

	return handle, nil
}

// Cancel для неизвестного хэндла молчит: напоминание могло уже
// сработать или быть отменённым из другой сессии
func (s *TimerService) Cancel(ctx context.Context, handle string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if timer, ok := s.timers[handle]; ok {
		timer.Stop()
		delete(s.timers, handle)
	}
	return nil
}

// Close снимает все невыстрелившие таймеры
func (s *TimerService) Close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for handle, timer := range s.timers {
		timer.Stop()
		delete(s.timers, handle)
	}
}

func (s *TimerService) fire(handle string, n Notification) {
	s.mtx.Lock()
	delete(s.timers, handle)
	s.mtx.Unlock()

	logger.Info("Reminder: Срабатывание напоминания",
		zap.String("handle", handle),
		zap.String("title", n.Title),
		zap.String("body", n.Body))

	if s.notify != nil {
		s.notify(n)
	}
}
