package domain

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrNotificationFailure = errors.New("notification failure")
)

// Error несёт вид ошибки (один из sentinel выше) и сообщение для клиента.
// errors.Is(err, ErrValidation) и т.п. работает через Unwrap.
type Error struct {
	Kind    error
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// NewError создаёт типизированную ошибку с сообщением для клиента
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation создаёт ошибку валидации конкретного поля
func Validation(field, message string) *Error {
	return &Error{Kind: ErrValidation, Field: field, Message: message}
}

// Message возвращает сообщение, пригодное для ответа клиенту
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
