package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates a required field is missing or out of range.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPersistence indicates the record collection could not be written
	// to durable storage. In-memory state already reflects the mutation.
	ErrPersistence = errors.New("persisting records failed")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PersistenceError wraps a storage failure.
func PersistenceError(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
