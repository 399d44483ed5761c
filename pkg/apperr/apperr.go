// Package apperr defines the error taxonomy shared by the core engine and
// the HTTP layer: validation failures carry a user-visible message,
// storage failures are logged and tolerated, missing references are
// skipped inside batch operations.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrStorageUnavailable reports that the backing store could not be
// opened at all. Fatal at startup.
var ErrStorageUnavailable = errors.New("storage unavailable")

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func Validation(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// StorageError wraps a failed persistence call. The in-memory state that
// the call was trying to persist is kept (at-least-attempt policy).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// HTTPStatus maps the taxonomy onto response codes: validation 400, not
// found 404, anything else 500.
func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
