package handlers

import (
	"errors"
	"net/http"

	"taskPlanner/internal/collection"
	"taskPlanner/internal/store"
)

// маппинг доменных ошибок на HTTP-статусы: NotFound - 404, отказ
// удалённой записи - 502 (проблема за нашей спиной), остальное - 500
func statusFromError(err error) int {
	var writeErr *store.WriteError

	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, collection.ErrEmptyTitle):
		return http.StatusBadRequest
	case errors.As(err, &writeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
