package apperr

import (
	"errors"
	"net/http"
)

// Error is a status-carrying error raised by the application layer. The HTTP
// handler is the only place it is translated to a response; nothing below the
// handler imports gin.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

func Invalid(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// StatusOf returns the HTTP status for err, or 500 for untyped errors.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}
