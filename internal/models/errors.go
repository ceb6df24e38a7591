package models

import "errors"

var (
	// ErrInvalidInput is returned when a required field is empty.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidStatus is returned when a status is outside the fixed set.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrNotFound is returned when a position or identity lookup misses
	// in an operation that cannot express absence as (nil, false).
	ErrNotFound = errors.New("not found")
)
