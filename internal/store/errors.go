package store

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("задача не найдена")

// WriteError - отказ удалённой записи (сеть, права доступа).
// Причина сохраняется для errors.Is/As.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("отказ записи (%s): %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func NewWriteError(op string, err error) *WriteError {
	return &WriteError{Op: op, Err: err}
}
