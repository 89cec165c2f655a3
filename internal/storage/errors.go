package storage

import "errors"

// Storage errors shared by all implementations.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when attempting to insert a record
	// with a key that already exists. Token and Trade inserts rely on it
	// for idempotent reprocessing of chain notifications.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict is returned when a guarded update matched fewer rows
	// than requested, e.g. a reward row was claimed concurrently.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
