package errors

import "errors"

var (
	ErrNotFound = errors.New("review not found")

	ErrInvalidID = errors.New("invalid review ID format")

	// ErrDuplicate is returned when the (user, tour) unique index rejects an insert.
	ErrDuplicate = errors.New("review already exists for this user and tour")
)
