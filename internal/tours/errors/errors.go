package errors

import "errors"

var (
	ErrNotFound = errors.New("tour not found")

	ErrInvalidID = errors.New("invalid tour ID format")

	// ErrWindowsChanged means availability moved between read and write.
	ErrWindowsChanged = errors.New("tour availability changed concurrently")
)
