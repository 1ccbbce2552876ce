package contracts

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by read paths when no row matches.
var ErrNotFound = errors.New("not found")

// PersistenceError marks a store failure that is recoverable at record
// granularity: the coordinator logs it, skips the record and continues.
type PersistenceError struct {
	Op  string // "upsert product", "append price history"
	Key string // (marketplace, external_id) or product id
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps a store failure.
func NewPersistenceError(op, key string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Key: key, Err: err}
}

// IsPersistenceError reports whether err is a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
