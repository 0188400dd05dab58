package service

import (
	"database/sql"
	"errors"
	"log/slog"
)

var (
	// ErrInvalidRequest: отсутствуют или пусты обязательные входные данные.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound: нужная строка (товар, строка корзины) не найдена.
	ErrNotFound = errors.New("not found")
)

// ValidationError несёт текст, который можно отдать клиенту как есть.
// errors.Is(err, ErrInvalidRequest) для неё истинно.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRequest }

func invalidRequest(msg string) error {
	return &ValidationError{Msg: msg}
}

// rollback откатывает транзакцию; ошибку отката только логируем
func rollback(logger *slog.Logger, tx *sql.Tx) {
	if rbErr := tx.Rollback(); rbErr != nil {
		logger.Error("transaction rollback failed", slog.Any("error", rbErr))
	}
}
