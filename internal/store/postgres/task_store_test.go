package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"taskPlanner/internal/models/task"
	"taskPlanner/internal/store"
	"taskPlanner/internal/store/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite - интеграционные тесты хранилища на PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container testcontainers.Container
	storage   *postgres.TaskStorage
	ctx       context.Context
}

// SetupSuite поднимает контейнер один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	connString := fmt.Sprintf("postgres://test:test@%s:%s/testdb", host, port.Port())
	s.storage, err = postgres.New(s.ctx, connString)
	require.NoError(s.T(), err)
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционный тест, пропускаем с -short")
	}
	suite.Run(t, new(PostgresTestSuite))
}

// TestCreateAndSnapshot тестирует создание и чтение снимка
func (s *PostgresTestSuite) TestCreateAndSnapshot() {
	deadline := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	id, err := s.storage.Create(s.ctx, &task.Task{
		OwnerID:  "pg-alice",
		Title:    "Сдать отчёт",
		Tag:      task.TagWork,
		Priority: task.PriorityHigh,
		Deadline: &deadline,
	})
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), id)

	sub, err := s.storage.Subscribe(s.ctx, "pg-alice")
	require.NoError(s.T(), err)
	defer sub.Close()

	snapshot := <-sub.Snapshots()
	require.Len(s.T(), snapshot, 1)
	created := snapshot[0]
	assert.Equal(s.T(), id, created.ID)
	assert.Equal(s.T(), "Сдать отчёт", created.Title)
	assert.False(s.T(), created.Completed)
	assert.Equal(s.T(), task.StatusInProgress, created.Status)
	require.NotNil(s.T(), created.Deadline)
	assert.True(s.T(), created.Deadline.Equal(deadline))
}

// TestNotifyPush тестирует доставку снимка через LISTEN/NOTIFY
func (s *PostgresTestSuite) TestNotifyPush() {
	sub, err := s.storage.Subscribe(s.ctx, "pg-push")
	require.NoError(s.T(), err)
	defer sub.Close()
	<-sub.Snapshots() // начальный снимок

	_, err = s.storage.Create(s.ctx, &task.Task{OwnerID: "pg-push", Title: "Новая"})
	require.NoError(s.T(), err)

	select {
	case snapshot := <-sub.Snapshots():
		require.Len(s.T(), snapshot, 1)
		assert.Equal(s.T(), "Новая", snapshot[0].Title)
	case <-time.After(5 * time.Second):
		s.T().Fatal("снимок после NOTIFY не пришёл")
	}
}

// TestUpdate тестирует частичное обновление под FOR UPDATE
func (s *PostgresTestSuite) TestUpdate() {
	id, err := s.storage.Create(s.ctx, &task.Task{OwnerID: "pg-upd", Title: "Старое"})
	require.NoError(s.T(), err)

	updated, err := s.storage.Update(s.ctx, "pg-upd", id,
		task.WithTitle("Новое"),
		task.WithCompleted(true),
		task.WithReminderID("handle-1"),
	)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Новое", updated.Title)
	assert.True(s.T(), updated.Completed)
	assert.Equal(s.T(), task.StatusCompleted, updated.Status)
	assert.Equal(s.T(), "handle-1", updated.ReminderID)

	_, err = s.storage.Update(s.ctx, "pg-upd", "нет-такого", task.WithTitle("x"))
	assert.ErrorIs(s.T(), err, store.ErrNotFound)
}

// TestDelete тестирует удаление
func (s *PostgresTestSuite) TestDelete() {
	id, err := s.storage.Create(s.ctx, &task.Task{OwnerID: "pg-del", Title: "Удалить"})
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.storage.Delete(s.ctx, "pg-del", id))
	assert.ErrorIs(s.T(), s.storage.Delete(s.ctx, "pg-del", id), store.ErrNotFound)
}
