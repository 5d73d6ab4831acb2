package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "tourbook/internal/bookings/errors"
	"tourbook/internal/ledger"
	"tourbook/pkg/cache"
	mongotx "tourbook/pkg/db/mongo"
	apperrors "tourbook/pkg/errors"
	"tourbook/pkg/stats"
	"tourbook/pkg/validation"
)

func validationError(message string, err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) {
		return apperrors.Validation(message, errs.Details())
	}
	return apperrors.InvalidInput(err.Error())
}

func mapRepoError(err error, id string, message string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	case errors.Is(err, bookingserrors.ErrStatusChanged):
		return apperrors.Conflict("Booking was modified concurrently, please retry")
	default:
		return apperrors.Internal(message, err)
	}
}

func (s *bookingService) mapLedgerError(err error, tourID string, count int) error {
	var capacityErr *ledger.CapacityError
	switch {
	case errors.As(err, &capacityErr):
		return apperrors.InsufficientCapacity(capacityErr.Requested, capacityErr.Available)
	case errors.Is(err, ledger.ErrInsufficientCapacity):
		return apperrors.InsufficientCapacity(count, 0)
	case errors.Is(err, ledger.ErrTourNotFound), errors.Is(err, ledger.ErrInvalidID):
		return apperrors.NotFoundWithID("Tour", tourID)
	case errors.Is(err, ledger.ErrWindowNotFound):
		return apperrors.NotAvailable("Tour has no departure on the selected date")
	case ledger.IsConflict(err):
		return apperrors.Conflict("Availability changed concurrently, please retry")
	default:
		return apperrors.Internal("Failed to update availability", err)
	}
}

func isTransaction(ctx context.Context) bool {
	return mongotx.InSession(ctx)
}

// release hands spots back to the ledger. A failure here leaves spots
// reserved that no booking holds and must be reconciled by an operator.
func (s *bookingService) release(ctx context.Context, tourID string, date time.Time, count int, reason string) bool {
	if count <= 0 {
		return true
	}
	if !isTransaction(ctx) {
		ctx = context.WithoutCancel(ctx)
	}
	if _, err := s.ledger.Release(ctx, tourID, date, count); err != nil {
		s.cfg.Log.Error("Data consistency incident",
			"reason", reason,
			"tour_id", tourID,
			"start_date", date,
			"count", count,
			"error", err,
		)
		return false
	}
	return true
}

func (s *bookingService) cacheCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CacheTimeout)
}

func (s *bookingService) cacheGet(ctx context.Context, dst *stats.BookingStats) bool {
	if s.cache == nil {
		return false
	}
	ctx, cancel := s.cacheCtx(ctx)
	defer cancel()

	hit, err := cache.GetJSON(ctx, s.cache, statsCacheKey, dst)
	if err != nil {
		s.cfg.Log.Warn("Stats cache read failed", "error", err)
		return false
	}
	return hit
}

func (s *bookingService) cacheSet(ctx context.Context, value stats.BookingStats) {
	if s.cache == nil {
		return
	}
	ctx, cancel := s.cacheCtx(ctx)
	defer cancel()

	if err := cache.SetJSON(ctx, s.cache, statsCacheKey, value, s.cfg.StatsCacheTTL); err != nil {
		s.cfg.Log.Warn("Stats cache write failed", "error", err)
	}
}

func (s *bookingService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	ctx, cancel := s.cacheCtx(ctx)
	defer cancel()

	if err := s.cache.Delete(ctx, statsCacheKey); err != nil {
		s.cfg.Log.Warn("Stats cache invalidation failed", "error", err)
	}
}
