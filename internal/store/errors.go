package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would duplicate a unique value,
// such as a director's national ID number.
var ErrConflict = errors.New("conflict")

// StorageError reports a failure of the backend itself. The driver error
// is kept for logs but callers should only branch on the type.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Wrap returns err unchanged when it already belongs to the store
// taxonomy, and a *StorageError otherwise.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is a backend failure.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
