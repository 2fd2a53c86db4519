package storage

import "errors"

// Storage errors for the append-only bar cache.
var (
	// ErrNotFound is returned when a requested symbol has no cached bars.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a bar whose
	// (symbol, date) already exists. Cached history is append-only.
	ErrDuplicateKey = errors.New("duplicate key: bar cache is append-only")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
