// Package apperr определяет классификацию ошибок сервиса.
//
// Каждая операция ядра возвращает ошибку с машинно-проверяемым видом
// (валидация, конфликт, не найдено, хранилище), чтобы транспортный слой
// мог отобразить её в HTTP-статус, не разбирая текст.
package apperr

import (
	"errors"
	"fmt"
)

// Kind вид ошибки.
type Kind string

const (
	// KindValidation некорректные или отсутствующие входные данные,
	// хранилище не затрагивалось.
	KindValidation Kind = "VALIDATION_ERROR"

	// KindConflict нарушение уникальности (subject уже существует).
	KindConflict Kind = "CONFLICT"

	// KindNotFound запрошенный subject отсутствует.
	KindNotFound Kind = "NOT_FOUND"

	// KindStore сбой транзакции или соединения с базой.
	KindStore Kind = "STORE_ERROR"
)

// Error ошибка с видом, сообщением и исходной причиной.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation возвращает ошибку валидации.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Conflict возвращает ошибку конфликта уникальности.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// NotFound возвращает ошибку отсутствия записи.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Store оборачивает ошибку хранилища с сохранением причины.
func Store(message string, cause error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: cause}
}

// KindOf возвращает вид ошибки или KindStore, если ошибка не классифицирована.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

// Is сообщает, относится ли ошибка к данному виду.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
