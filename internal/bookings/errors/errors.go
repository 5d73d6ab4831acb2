package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a conditional update lost to a concurrent
	// writer: the booking no longer has the status or version it was read with.
	ErrStatusChanged = errors.New("booking changed concurrently")
)
