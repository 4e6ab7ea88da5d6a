// Package errors carries the error vocabulary shared by the HTTP surface,
// the application layer and the Temporal activities.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "RESOURCE_NOT_FOUND"
	CodeInvalidTransition = "INVALID_STATE_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeInternalError     = "INTERNAL_ERROR"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnprocessable     = "UNPROCESSABLE_ENTITY"
	CodeUnavailable       = "SERVICE_UNAVAILABLE"
)

var statusByCode = map[string]int{
	CodeValidationError:   http.StatusBadRequest,
	CodeBadRequest:        http.StatusBadRequest,
	CodeNotFound:          http.StatusNotFound,
	CodeInvalidTransition: http.StatusConflict,
	CodeConflict:          http.StatusConflict,
	CodeInternalError:     http.StatusInternalServerError,
	CodeUnprocessable:     http.StatusUnprocessableEntity,
	CodeUnavailable:       http.StatusServiceUnavailable,
}

// AppError is an error with a stable code and the HTTP status it maps to.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Err        error             `json:"-"`
}

func (e *AppError) Error() string {
	msg := e.Code + ": " + e.Message
	if e.Err == nil {
		return msg
	}
	return msg + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetails replaces the details map.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// Wrap records cause as the underlying error.
func (e *AppError) Wrap(cause error) *AppError {
	e.Err = cause
	return e
}

func newError(code, message string) *AppError {
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func ErrValidation(message string) *AppError {
	return newError(CodeValidationError, message)
}

func ErrValidationWithFields(message string, fields map[string]string) *AppError {
	return newError(CodeValidationError, message).WithDetails(fields)
}

// ErrNotFoundWithID reports a missing resource and keeps its id in the details.
func ErrNotFoundWithID(resource, id string) *AppError {
	return newError(CodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetails(map[string]string{"id": id})
}

func ErrInvalidTransition(message string) *AppError {
	return newError(CodeInvalidTransition, message)
}

func ErrConflict(message string) *AppError {
	return newError(CodeConflict, message)
}

// ErrInternal creates a 500 error. An empty message gets a generic one so
// internals never leak to clients.
func ErrInternal(message string) *AppError {
	if message == "" {
		message = "an internal error occurred"
	}
	return newError(CodeInternalError, message)
}

func ErrBadRequest(message string) *AppError {
	return newError(CodeBadRequest, message)
}

// ErrUnprocessable is for requests that are well formed but cannot be
// honoured, such as a replayed Idempotency-Key with a different body.
func ErrUnprocessable(message string) *AppError {
	return newError(CodeUnprocessable, message)
}

func ErrUnavailable(message string) *AppError {
	return newError(CodeUnavailable, message)
}

func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// FromError returns err as an AppError, wrapping unknown errors as internal.
func FromError(err error) *AppError {
	return MapDomainError(err)
}

// Classifier maps a domain error to an AppError, returning nil when it does
// not recognise err.
type Classifier func(err error) *AppError

// MapDomainError runs err through the classifiers in order and falls back to
// an internal error. A nil err maps to nil.
func MapDomainError(err error, classifiers ...Classifier) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	for _, classify := range classifiers {
		if appErr := classify(err); appErr != nil {
			return appErr.Wrap(err)
		}
	}
	return ErrInternal("").Wrap(err)
}
