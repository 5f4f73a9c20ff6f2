package storage

import "errors"

// ErrNotFound is returned by mutations that target a missing row.
// Reads never return it; they return empty results instead.
var ErrNotFound = errors.New("not found")

// StoreError wraps a failure of the underlying store. The transaction that
// produced it has been rolled back.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "failed to " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err is, or wraps, a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
