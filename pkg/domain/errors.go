package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned before any store round trip when a
	// caller-supplied argument is malformed
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStoreFailure matches every error surfaced by a store collaborator
	ErrStoreFailure = errors.New("store operation failed")

	// ErrStoreUnavailable matches store errors caused by connectivity,
	// timeouts or a closed store
	ErrStoreUnavailable = errors.New("store unavailable")
)

// InvalidArgumentf formats an ErrInvalidArgument with context
func InvalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// StoreError wraps a failure reported by the underlying document store
type StoreError struct {
	Op          string
	Collection  string
	Unavailable bool
	Err         error
}

// NewStoreError wraps err as a store operation failure
func NewStoreError(op, collection string, err error) *StoreError {
	return &StoreError{Op: op, Collection: collection, Err: err}
}

// NewUnavailableError wraps err as a connectivity failure
func NewUnavailableError(op, collection string, err error) *StoreError {
	return &StoreError{Op: op, Collection: collection, Unavailable: true, Err: err}
}

func (e *StoreError) Error() string {
	kind := "store operation failed"
	if e.Unavailable {
		kind = "store unavailable"
	}
	if e.Collection == "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.Collection, kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the store sentinels
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrStoreFailure:
		return true
	case ErrStoreUnavailable:
		return e.Unavailable
	}
	return false
}
