package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnknownAlgorithm   = errors.New("unknown algorithm name")
	ErrEmptyMultiQuery    = errors.New("multi-query has no variants")
	ErrMissingQueryID     = errors.New("query is missing an id")
	ErrCursorExhausted    = errors.New("cursor advanced past sentinel")
	ErrTermNotFound       = errors.New("term not found in lexicon")
	ErrInvalidInput       = errors.New("invalid input")
	ErrWorkerFailure      = errors.New("fusion worker failed")
	ErrBackendUnavailable = errors.New("optional backend unavailable")
	ErrInternal           = errors.New("internal error")
	ErrTimeout            = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to an HTTP-agnostic status analogue, used
// both by the optional metrics/health HTTP surface and as a structured log
// field when the CLI reports a fatal failure.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrUnknownAlgorithm), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrMissingQueryID):
		return http.StatusBadRequest
	case errors.Is(err, ErrTermNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBackendUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
