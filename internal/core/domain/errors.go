package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrAlreadyCompleted = errors.New("Cannot complete a task that is already completed")
)

// PersistenceError wraps a failure raised while writing to the store.
type PersistenceError struct {
	Op     string
	Entity string
	Err    error
}

func NewPersistenceError(op, entity string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Entity: entity, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
