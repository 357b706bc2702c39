// Package storage archives fetched view rows. Stores are append-only.
package storage

import "errors"

var (
	// ErrNotFound is returned when a requested snapshot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a snapshot ID already exists.
	ErrDuplicateKey = errors.New("duplicate key: append-only store does not allow updates")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
