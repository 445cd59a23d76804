package apperr

import (
	"errors"
	"net/http"
)

// Error is an operational error: an anticipated failure that is safe to show
// to the client together with its HTTP status.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(code, message string) *Error {
	return New(http.StatusUnauthorized, code, message)
}

func Forbidden(code, message string) *Error {
	return New(http.StatusForbidden, code, message)
}

func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

// From unwraps err into an operational error, if it is one. Anything else is a
// programming error and must not leak past a generic 500.
func From(err error) (*Error, bool) {
	var appErr *Error

	if errors.As(err, &appErr) {
		return appErr, true
	}

	return nil, false
}

// StatusWord maps a status code onto the response envelope's status field:
// "fail" for client errors, "error" for everything else.
func StatusWord(status int) string {
	if status >= 400 && status < 500 {
		return "fail"
	}

	return "error"
}
