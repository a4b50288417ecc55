package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"taskPlanner/internal/calendar"
	"taskPlanner/internal/handlers/dto"
	"taskPlanner/internal/logger"
	"taskPlanner/internal/models/task"
	"taskPlanner/internal/query"
	"taskPlanner/internal/suggest"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// сколько подсказок отдаём по умолчанию, как в мобильной ленте
const defaultSuggestLimit = 3

type TaskHandler struct {
	collection TaskCollection
}

func NewTaskHandler(collection TaskCollection) TaskHandler {
	return TaskHandler{
		collection: collection,
	}
}

// GetTasks отдаёт отфильтрованную ленту: ?q=, ?tag=, ?status=, ?window=
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	filter := query.Filter{
		Text:   r.URL.Query().Get("q"),
		Tag:    task.Tag(r.URL.Query().Get("tag")),
		Status: task.Status(r.URL.Query().Get("status")),
		Window: query.Window(r.URL.Query().Get("window")),
	}

	tasks := query.Apply(h.collection.Snapshot(), filter, now)
	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks, now))
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if request.Title == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "title"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "название не может быть пустым")
		return
	}

	newTask := &task.Task{
		Title:       request.Title,
		Description: request.Description,
		Deadline:    request.Deadline,
		Tag:         task.Tag(request.Tag),
		Priority:    task.Priority(request.Priority),
	}

	id, err := h.collection.Create(r.Context(), newTask)
	if err != nil {
		logger.Error("HTTP: Ошибка создания задачи", err,
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, statusFromError(err), err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача создана", zap.String("task_id", id))
	responseWithJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	now := time.Now()

	for _, t := range h.collection.Snapshot() {
		if t.ID == id {
			responseWithJSON(w, http.StatusOK, dto.FromTask(&t, now))
			return
		}
	}

	responseWithError(w, http.StatusNotFound, "задача не найдена")
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var request dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверные параметры обновления: "+err.Error())
		return
	}

	if err := h.collection.Update(r.Context(), id, request.UpdateOptions()...); err != nil {
		logger.Error("HTTP: Ошибка обновления задачи", err,
			zap.String("task_id", id))
		responseWithError(w, statusFromError(err), err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена", zap.String("task_id", id))
	responseWithJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var request dto.ToggleTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if err := h.collection.Toggle(r.Context(), id, request.Completed); err != nil {
		logger.Error("HTTP: Ошибка переключения статуса", err,
			zap.String("task_id", id))
		responseWithError(w, statusFromError(err), err.Error())
		return
	}

	logger.Info("HTTP_OUT: Статус переключён", zap.String("task_id", id))
	responseWithJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.collection.Delete(r.Context(), id); err != nil {
		logger.Error("HTTP: Ошибка удаления задачи", err,
			zap.String("task_id", id))
		responseWithError(w, statusFromError(err), err.Error())
		return
	}

	logger.Info("HTTP_OUT: Задача удалена", zap.String("task_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// GetSuggestedTasks - ближайшие незавершённые задачи, ?limit= (по умолчанию 3)
func (h *TaskHandler) GetSuggestedTasks(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	limit := defaultSuggestLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			responseWithError(w, http.StatusBadRequest, "неверное значение limit")
			return
		}
		limit = parsed
	}

	tasks := suggest.Upcoming(h.collection.Snapshot(), now, limit)
	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks, now))
}

// GetCalendar - сводка по датам; с ?date=YYYY-MM-DD вместо сводки
// отдаются задачи выбранного дня
func (h *TaskHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	snapshot := h.collection.Snapshot()

	if day := r.URL.Query().Get("date"); day != "" {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			responseWithError(w, http.StatusBadRequest, "неверный формат даты, нужен YYYY-MM-DD")
			return
		}
		tasks := calendar.TasksOn(snapshot, day)
		responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks, now))
		return
	}

	responseWithJSON(w, http.StatusOK, calendar.Aggregate(snapshot, now))
}

// GetStats - счётчики за период, ?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	now := time.Now()

	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное значение from")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		responseWithError(w, http.StatusBadRequest, "неверное значение to")
		return
	}

	stats := calendar.StatsBetween(h.collection.Snapshot(), from, to, now)
	responseWithJSON(w, http.StatusOK, stats)
}

// HealthCheck также сообщает, не деградировала ли подписка.
// Это состояние, не событие: пока синхронизация не восстановлена,
// каждый опрос отвечает sync_degraded.
func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.collection.SyncError(); err != nil {
		logger.Warn("HTTP: Синхронизация деградировала", zap.Error(err))
		responseWithJSON(w, http.StatusOK, map[string]string{
			"status": "sync_degraded",
			"error":  err.Error(),
		})
		return
	}
	responseWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
