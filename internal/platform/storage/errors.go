package storage

import "errors"

// Storage errors shared by every backend.
// Backends wrap driver errors around these sentinels so callers can use errors.Is.
var (
	// ErrDuplicateKey is returned by Insert when the key already exists in the collection.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned by Update and Delete when the key does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownField is returned by GetTopByField when the field cannot be ranked.
	ErrUnknownField = errors.New("unknown ranking field")

	// ErrInvalidLimit is returned by GetTopByField when limit is not positive.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrScoreOutOfRange is returned when an integer score cannot be ranked exactly as float64.
	ErrScoreOutOfRange = errors.New("score out of range")
)
