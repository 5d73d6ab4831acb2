// Package ledger owns the remaining capacity of every tour departure. All
// mutations are single conditional updates against the tour document.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tourbook/pkg/model"
)

var (
	ErrTourNotFound         = errors.New("tour not found or inactive")
	ErrWindowNotFound       = errors.New("no availability window for date")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrConflict             = errors.New("capacity update conflict")
	ErrInvalidCount         = errors.New("count must be positive")
	ErrInvalidID            = errors.New("invalid tour id")
)

// CapacityError is returned when a window exists but has too few spots.
type CapacityError struct {
	Requested int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: requested %d, available %d", e.Requested, e.Available)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

type Ledger interface {
	FindWindow(ctx context.Context, tourID string, date time.Time) (*model.AvailabilityWindow, error)
	Reserve(ctx context.Context, tourID string, date time.Time, count int) (*model.AvailabilityWindow, error)
	Release(ctx context.Context, tourID string, date time.Time, count int) (*model.AvailabilityWindow, error)
}
