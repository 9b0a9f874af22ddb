package store

import "errors"

// Sentinel errors returned by entity operations.
var (
	// ErrNotFound is returned when an entity or index entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a create collides with an existing
	// entity or a unique index entry.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict is returned when a transaction lost a race against a
	// concurrent write and may be retried.
	ErrConflict = errors.New("transaction conflict")
)
