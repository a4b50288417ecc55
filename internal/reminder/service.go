package reminder

import (
	"context"
	"errors"
	"time"
)

// Notification - одноразовое уведомление с абсолютным временем срабатывания
type Notification struct {
	Title     string
	Body      string
	TriggerAt time.Time
}

// Service - граница платформенных уведомлений. Реализация обязана
// проверять разрешение на отправку до первой постановки в очередь и
// возвращать ErrPermissionDenied, если его нет.
type Service interface {
	Schedule(ctx context.Context, n Notification) (string, error)
	Cancel(ctx context.Context, handle string) error
}

var ErrPermissionDenied = errors.New("нет разрешения на отправку уведомлений")
