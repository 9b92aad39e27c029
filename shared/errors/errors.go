package errors

import (
	"errors"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
	Err        error // underlying cause, never shown to the client
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

func (e *ErrorWithStatusCode) Unwrap() error {
	return e.Err
}

func Validation(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusBadRequest}
}

func Unauthorized(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusUnauthorized}
}

func NotFound(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusNotFound}
}

func Conflict(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusConflict}
}

func PayloadTooLarge(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusRequestEntityTooLarge}
}

// Storage wraps a record store or blob store failure.
func Storage(msg string, err error) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusInternalServerError, Err: err}
}

func StatusCode(err error) int {
	var e *ErrorWithStatusCode
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	return err != nil && StatusCode(err) == http.StatusNotFound
}

func IsConflict(err error) bool {
	return err != nil && StatusCode(err) == http.StatusConflict
}

func IsValidation(err error) bool {
	return err != nil && StatusCode(err) == http.StatusBadRequest
}

func Forbidden(msg string) error {
	return &ErrorWithStatusCode{Message: msg, StatusCode: http.StatusForbidden}
}
