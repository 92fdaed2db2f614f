package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport means the external source was unreachable or answered with a non-success status
	ErrTransport = errors.New("external source unavailable")

	// ErrMalformedResponse means the source answered but the payload lacked expected fields
	ErrMalformedResponse = errors.New("malformed source response")

	// ErrStorage marks failures of the persisted store
	ErrStorage = errors.New("storage failure")

	// ErrValidation marks requests rejected before any work starts
	ErrValidation = errors.New("invalid request")

	// ErrInsufficientData means a series is shorter than the requested horizon
	ErrInsufficientData = errors.New("insufficient data")

	// ErrNotFound is returned for unknown scheme codes
	ErrNotFound = errors.New("not found")
)

// StorageError wraps a failure of the underlying store
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err as a StorageError for operation op
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match any StorageError
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
