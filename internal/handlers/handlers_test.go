package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskPlanner/internal/handlers"
	"taskPlanner/internal/handlers/dto"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCollection - мок коллекции задач для HTTP-слоя
type MockCollection struct {
	mock.Mock
	syncErr error
}

func NewMockCollection() *MockCollection {
	return &MockCollection{}
}

func (m *MockCollection) Snapshot() []task.Task {
	return m.Called().Get(0).([]task.Task)
}

func (m *MockCollection) Create(ctx context.Context, t *task.Task) (string, error) {
	args := m.Called(ctx, t)
	return args.String(0), args.Error(1)
}

func (m *MockCollection) Update(ctx context.Context, id string, opts ...task.Option) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCollection) Toggle(ctx context.Context, id string, currentCompleted bool) error {
	return m.Called(ctx, id, currentCompleted).Error(0)
}

func (m *MockCollection) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCollection) SyncError() error {
	return m.syncErr
}

func newTestRouter(collection handlers.TaskCollection) *chi.Mux {
	handler := handlers.NewTaskHandler(collection)

	r := chi.NewRouter()
	r.Get("/tasks", handler.GetTasks)
	r.Post("/tasks", handler.PostTask)
	r.Get("/tasks/suggest", handler.GetSuggestedTasks)
	r.Get("/tasks/calendar", handler.GetCalendar)
	r.Get("/tasks/stats", handler.GetStats)
	r.Get("/tasks/{id}", handler.GetTaskByID)
	r.Put("/tasks/{id}", handler.UpdateTaskByID)
	r.Post("/tasks/{id}/toggle", handler.ToggleTask)
	r.Delete("/tasks/{id}", handler.DeleteTaskByID)
	r.Get("/health", handler.HealthCheck)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func deadlineAt(offset time.Duration) *time.Time {
	d := time.Now().Add(offset)
	return &d
}

// TestGetTasks_Filter тестирует фильтрацию ленты параметрами запроса
func TestGetTasks_Filter(t *testing.T) {
	collection := NewMockCollection()
	collection.On("Snapshot").Return([]task.Task{
		{ID: "1", Title: "Купить молоко", Tag: task.TagPersonal},
		{ID: "2", Title: "Сдать отчёт", Tag: task.TagWork},
	})

	router := newTestRouter(collection)
	rec := doRequest(t, router, http.MethodGet, "/tasks?q=отчёт", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, string(task.StatusInProgress), got[0].Status)
}

// TestPostTask тестирует создание задачи
func TestPostTask(t *testing.T) {
	collection := NewMockCollection()
	collection.On("Create", mock.Anything, mock.MatchedBy(func(tk *task.Task) bool {
		return tk.Title == "Новая задача" && tk.Tag == task.TagStudy
	})).Return("new-id", nil)

	router := newTestRouter(collection)
	rec := doRequest(t, router, http.MethodPost, "/tasks", dto.CreateTaskRequest{
		Title: "Новая задача",
		Tag:   string(task.TagStudy),
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "new-id", got["id"])
	collection.AssertExpectations(t)
}

// TestPostTask_Validation тестирует отказы на плохом теле запроса
func TestPostTask_Validation(t *testing.T) {
	collection := NewMockCollection()
	router := newTestRouter(collection)

	rec := doRequest(t, router, http.MethodPost, "/tasks", dto.CreateTaskRequest{Title: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewBufferString("{сломанный json"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	collection.AssertNotCalled(t, "Create")
}

// TestGetTaskByID тестирует выдачу одной задачи и 404
func TestGetTaskByID(t *testing.T) {
	collection := NewMockCollection()
	collection.On("Snapshot").Return([]task.Task{
		{ID: "1", Title: "Есть такая"},
	})

	router := newTestRouter(collection)

	rec := doRequest(t, router, http.MethodGet, "/tasks/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Есть такая", got.Title)

	rec = doRequest(t, router, http.MethodGet, "/tasks/нет-такой", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestUpdateTaskByID_NotFound тестирует маппинг ошибки хранилища на 404
func TestUpdateTaskByID_NotFound(t *testing.T) {
	collection := NewMockCollection()
	collection.On("Update", mock.Anything, "ghost").
		Return(fmt.Errorf("обновление задачи: %w", store.ErrNotFound))

	router := newTestRouter(collection)
	title := "x"
	rec := doRequest(t, router, http.MethodPut, "/tasks/ghost", dto.UpdateTaskRequest{Title: &title})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestToggleTask тестирует передачу клиентского значения флага
func TestToggleTask(t *testing.T) {
	collection := NewMockCollection()
	collection.On("Toggle", mock.Anything, "1", true).Return(nil)

	router := newTestRouter(collection)
	rec := doRequest(t, router, http.MethodPost, "/tasks/1/toggle",
		dto.ToggleTaskRequest{Completed: true})

	require.Equal(t, http.StatusOK, rec.Code)
	collection.AssertExpectations(t)
}

// TestDeleteTaskByID тестирует удаление
func TestDeleteTaskByID(t *testing.T) {
	collection := NewMockCollection()
	collection.On("Delete", mock.Anything, "1").Return(nil)

	router := newTestRouter(collection)
	rec := doRequest(t, router, http.MethodDelete, "/tasks/1", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	collection.AssertExpectations(t)
}

// TestGetSuggestedTasks тестирует лимит подсказок по умолчанию
func TestGetSuggestedTasks(t *testing.T) {
	collection := NewMockCollection()
	collection.On("Snapshot").Return([]task.Task{
		{ID: "1", Deadline: deadlineAt(1 * time.Hour)},
		{ID: "2", Deadline: deadlineAt(2 * time.Hour)},
		{ID: "3", Deadline: deadlineAt(3 * time.Hour)},
		{ID: "4", Deadline: deadlineAt(4 * time.Hour)},
		{ID: "5", Deadline: deadlineAt(5 * time.Hour)},
	})

	router := newTestRouter(collection)

	rec := doRequest(t, router, http.MethodGet, "/tasks/suggest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].ID)

	rec = doRequest(t, router, http.MethodGet, "/tasks/suggest?limit=5", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 5)

	rec = doRequest(t, router, http.MethodGet, "/tasks/suggest?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestGetCalendar тестирует сводку и выборку по дню
func TestGetCalendar(t *testing.T) {
	day := time.Date(2025, 5, 18, 12, 0, 0, 0, time.UTC)
	collection := NewMockCollection()
	collection.On("Snapshot").Return([]task.Task{
		{ID: "1", Title: "В этот день", Deadline: &day},
		{ID: "2", Title: "Без дедлайна"},
	})

	router := newTestRouter(collection)

	rec := doRequest(t, router, http.MethodGet, "/tasks/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary map[string]map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Contains(t, summary, "2025-05-18")

	rec = doRequest(t, router, http.MethodGet, "/tasks/calendar?date=2025-05-18", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []dto.TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 1)
	assert.Equal(t, "1", tasks[0].ID)

	rec = doRequest(t, router, http.MethodGet, "/tasks/calendar?date=18.05.2025", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestGetStats тестирует валидацию периода
func TestGetStats(t *testing.T) {
	collection := NewMockCollection()
	collection.On("Snapshot").Return([]task.Task{})

	router := newTestRouter(collection)

	rec := doRequest(t, router, http.MethodGet, "/tasks/stats?from=2025-05-01&to=2025-05-31", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/tasks/stats?from=плохо&to=2025-05-31", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestHealthCheck тестирует оба состояния синхронизации: пока подписка
// не восстановлена, каждый опрос видит sync_degraded, не только первый
func TestHealthCheck(t *testing.T) {
	collection := NewMockCollection()
	router := newTestRouter(collection)

	rec := doRequest(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])

	collection.syncErr = errors.New("обрыв слушателя")
	for i := 0; i < 2; i++ {
		rec = doRequest(t, router, http.MethodGet, "/health", nil)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "sync_degraded", got["status"])
	}

	// восстановление возвращает ok
	collection.syncErr = nil
	rec = doRequest(t, router, http.MethodGet, "/health", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
}
