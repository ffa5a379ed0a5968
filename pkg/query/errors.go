package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig classifies caller mistakes detected before any I/O.
	ErrInvalidConfig = errors.New("query invalid config")
	// ErrDataAccess classifies failures of the bulk read against the backing store.
	ErrDataAccess = errors.New("query data access error")
)

// DataAccessError reports a failed bulk read of a collection.
type DataAccessError struct {
	Collection string
	Err        error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("%s: collection %q: %v", ErrDataAccess, e.Collection, e.Err)
}

// Unwrap returns the store error.
func (e *DataAccessError) Unwrap() error { return e.Err }

// Is reports ErrDataAccess as a match so callers can use errors.Is.
func (e *DataAccessError) Is(target error) bool { return target == ErrDataAccess }

func invalidConfig(message string) error {
	if message == "" {
		return ErrInvalidConfig
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, message)
}
