package service

import (
	"context"
	"errors"
	"time"

	bookingserrors "tourbook/internal/bookings/errors"
	"tourbook/internal/reviews/repository"
	"tourbook/pkg/auth"
	"tourbook/pkg/clock"
	apperrors "tourbook/pkg/errors"
	"tourbook/pkg/model"
)

// BookingReader loads the booking a review is attached to.
type BookingReader interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
}

// Eligibility decides who may write and edit reviews.
type Eligibility struct {
	bookings   BookingReader
	reviews    repository.ReviewRepository
	clock      clock.Clock
	editWindow time.Duration
}

func NewEligibility(bookings BookingReader, reviews repository.ReviewRepository, clk clock.Clock, editWindow time.Duration) *Eligibility {
	return &Eligibility{
		bookings:   bookings,
		reviews:    reviews,
		clock:      clk,
		editWindow: editWindow,
	}
}

// CanCreateReview returns nil when userID may review tourID through bookingID.
// A denial is an AppError whose code names the reason.
func (e *Eligibility) CanCreateReview(ctx context.Context, userID, tourID, bookingID string) error {
	booking, err := e.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return apperrors.NotFoundWithID("Booking", bookingID)
		}
		return apperrors.Internal("Failed to load booking", err)
	}

	if booking.UserID != userID || booking.TourID != tourID {
		return apperrors.Forbidden("Booking does not belong to this user and tour")
	}
	if booking.Status != model.BookingCompleted {
		return apperrors.ReviewNotAllowed("Only completed bookings can be reviewed")
	}

	exists, err := e.reviews.ExistsForUserTour(ctx, userID, tourID)
	if err != nil {
		return apperrors.Internal("Failed to check existing reviews", err)
	}
	if exists {
		return apperrors.DuplicateReview()
	}
	return nil
}

// CanEditReview reports whether actor may change review: admins always,
// authors only inside the edit window.
func (e *Eligibility) CanEditReview(review *model.Review, actor auth.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	if actor.ID == "" || review.UserID != actor.ID {
		return false
	}
	return e.clock.Now().Sub(review.CreatedAt) <= e.editWindow
}
