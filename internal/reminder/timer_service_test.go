package reminder_test

import (
	"context"
	"testing"
	"time"

	"taskPlanner/internal/reminder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTimerService_Fires тестирует доставку по наступлению времени
func TestTimerService_Fires(t *testing.T) {
	fired := make(chan reminder.Notification, 1)
	svc := reminder.NewTimerService(func(n reminder.Notification) {
		fired <- n
	}, nil)
	defer svc.Close()

	handle, err := svc.Schedule(context.Background(), reminder.Notification{
		Title:     "Напоминание о задаче",
		Body:      "Скоро дедлайн: тест",
		TriggerAt: time.Now().Add(20 * time.Millisecond),
	})
	require.NoError(t, err)
	require.NotEmpty(t, handle)

	select {
	case n := <-fired:
		assert.Equal(t, "Скоро дедлайн: тест", n.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("напоминание не сработало")
	}
}

// TestTimerService_Cancel тестирует отмену до срабатывания
func TestTimerService_Cancel(t *testing.T) {
	fired := make(chan reminder.Notification, 1)
	svc := reminder.NewTimerService(func(n reminder.Notification) {
		fired <- n
	}, nil)
	defer svc.Close()

	handle, err := svc.Schedule(context.Background(), reminder.Notification{
		TriggerAt: time.Now().Add(100 * time.Millisecond),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), handle))

	select {
	case <-fired:
		t.Fatal("отменённое напоминание сработало")
	case <-time.After(300 * time.Millisecond):
	}
}

// TestTimerService_CancelIdempotent тестирует повторную отмену и
// отмену неизвестного хэндла
func TestTimerService_CancelIdempotent(t *testing.T) {
	svc := reminder.NewTimerService(nil, nil)
	defer svc.Close()

	handle, err := svc.Schedule(context.Background(), reminder.Notification{
		TriggerAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	assert.NoError(t, svc.Cancel(context.Background(), handle))
	assert.NoError(t, svc.Cancel(context.Background(), handle))
	assert.NoError(t, svc.Cancel(context.Background(), "несуществующий"))
}

// TestTimerService_PermissionDenied тестирует отказ без разрешения
// на уведомления
func TestTimerService_PermissionDenied(t *testing.T) {
	svc := reminder.NewTimerService(nil, func() bool { return false })
	defer svc.Close()

	handle, err := svc.Schedule(context.Background(), reminder.Notification{
		TriggerAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, reminder.ErrPermissionDenied)
	assert.Empty(t, handle)
}

// TestTimerService_PermissionGranted тестирует, что разрешение
// опрашивается при каждой постановке
func TestTimerService_PermissionGranted(t *testing.T) {
	allowed := false
	svc := reminder.NewTimerService(nil, func() bool { return allowed })
	defer svc.Close()

	_, err := svc.Schedule(context.Background(), reminder.Notification{
		TriggerAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, reminder.ErrPermissionDenied)

	allowed = true
	handle, err := svc.Schedule(context.Background(), reminder.Notification{
		TriggerAt: time.Now().Add(time.Hour),
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, handle)
}
