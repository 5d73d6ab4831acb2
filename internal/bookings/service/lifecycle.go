package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "tourbook/internal/bookings/errors"
	"tourbook/internal/bookings/policy"
	"tourbook/pkg/auth"
	apperrors "tourbook/pkg/errors"
	"tourbook/pkg/model"
	"tourbook/pkg/sanitizer"
	"tourbook/pkg/validation"

	"github.com/google/uuid"
)

// capacityMove describes the ledger work an update needs: spots to take
// before persisting and spots to hand back after.
type capacityMove struct {
	reserveDate  time.Time
	reserveCount int
	releaseDate  time.Time
	releaseCount int
}

func (s *bookingService) Update(ctx context.Context, actor auth.Actor, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.IsOwnerOrAdmin(actor, existing.UserID) {
		return nil, apperrors.Forbidden("You can only modify your own bookings")
	}
	if updates.IsEmpty() {
		return nil, apperrors.InvalidInput("No fields to update")
	}
	ownerCancel := updates.Status != nil && *updates.Status == model.BookingCancelled && updates.DiscountAmount == nil
	if updates.AdminOnly() && !ownerCancel && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can change status or discount")
	}
	if updates.Travelers != nil {
		*updates.Travelers = sanitizer.SanitizeTravelers(*updates.Travelers)
	}
	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	if updates.Status != nil && *updates.Status == model.BookingCancelled {
		only := *updates
		only.Status = nil
		if !only.IsEmpty() {
			return nil, apperrors.InvalidInput("Cancelling cannot be combined with other changes")
		}
		result, err := s.Cancel(ctx, actor, id, &model.CancelRequest{})
		if err != nil {
			return nil, err
		}
		return result.Booking, nil
	}

	if policy.IsTerminal(existing.Status) {
		return nil, apperrors.InvalidChange(fmt.Sprintf("A %s booking cannot be modified", existing.Status))
	}

	merged, move, err := s.applyUpdate(ctx, existing, updates)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(merged); err != nil {
		return nil, validationError("Invalid booking", err)
	}

	if s.cfg.MongoTransactions {
		err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			return s.persistUpdate(txCtx, merged, existing.UpdatedAt, move)
		})
	} else {
		err = s.persistUpdate(ctx, merged, existing.UpdatedAt, move)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.invalidateStats(ctx)
	if existing.Status != model.BookingConfirmed && merged.Status == model.BookingConfirmed {
		s.notifier.BookingConfirmed(ctx, merged)
	}
	s.cfg.Log.Info("Booking updated successfully", "id", id, "status", merged.Status)
	return merged, nil
}

// applyUpdate builds the updated booking and works out the capacity it moves.
// It does not touch storage.
func (s *bookingService) applyUpdate(ctx context.Context, existing *model.Booking, updates *model.BookingUpdate) (*model.Booking, capacityMove, error) {
	merged := *existing
	merged.Travelers = append([]model.Traveler(nil), existing.Travelers...)
	var move capacityMove

	if updates.Status != nil && *updates.Status != existing.Status {
		to := *updates.Status
		if !policy.CanTransition(existing.Status, to) {
			return nil, move, apperrors.InvalidTransition(string(existing.Status), string(to))
		}
		if to == model.BookingConfirmed && existing.Payment.Status != model.PaymentPaid {
			return nil, move, apperrors.PaymentRequired("Booking must be paid before it can be confirmed")
		}
		merged.Status = to
	}

	if updates.SpecialRequests != nil {
		merged.SpecialRequests = sanitizer.NormalizeText(*updates.SpecialRequests)
	}

	dateChanged := false
	if updates.StartDate != nil {
		newDate := model.NormalizeDate(*updates.StartDate)
		if !newDate.Equal(existing.StartDate) {
			if existing.Status != model.BookingPending {
				return nil, move, apperrors.InvalidChange(fmt.Sprintf("The start date of a %s booking cannot change", existing.Status))
			}
			merged.StartDate = newDate
			dateChanged = true
		}
	}

	travelersChanged := false
	if updates.Travelers != nil {
		if existing.Status != model.BookingPending {
			return nil, move, apperrors.InvalidChange("Travelers can only change while the booking is pending")
		}
		merged.Travelers = *updates.Travelers
		merged.NumberOfTravelers = len(merged.Travelers)
		travelersChanged = true
	}

	discount := existing.Price.DiscountAmount
	if updates.DiscountAmount != nil {
		discount = *updates.DiscountAmount
	}

	switch {
	case dateChanged || travelersChanged:
		tour, err := s.loadTour(ctx, existing.TourID)
		if err != nil {
			return nil, move, err
		}
		window, ok := tour.FindWindow(merged.StartDate)
		if !ok {
			return nil, move, apperrors.NotAvailable(fmt.Sprintf("Tour has no departure on %s", merged.StartDate.Format(time.DateOnly)))
		}
		if err := checkGroupSize(tour, merged.NumberOfTravelers); err != nil {
			return nil, move, err
		}
		price, err := policy.Quote(tour.UnitPrice(window), merged.NumberOfTravelers, discount, s.cfg.TaxRate, existing.Price.Currency)
		if err != nil {
			return nil, move, discountError(err)
		}
		merged.Price = price
		move = planMove(existing, &merged)
		if move.reserveCount > 0 && !window.CanReserve(move.reserveCount) {
			return nil, move, apperrors.InsufficientCapacity(move.reserveCount, window.AvailableSpots)
		}
	case updates.DiscountAmount != nil:
		price, err := policy.WithDiscount(existing.Price, merged.NumberOfTravelers, discount)
		if err != nil {
			return nil, move, discountError(err)
		}
		merged.Price = price
	}

	merged.UpdatedAt = s.now()
	return &merged, move, nil
}

func planMove(before, after *model.Booking) capacityMove {
	if !after.StartDate.Equal(before.StartDate) {
		return capacityMove{
			reserveDate:  after.StartDate,
			reserveCount: after.NumberOfTravelers,
			releaseDate:  before.StartDate,
			releaseCount: before.NumberOfTravelers,
		}
	}
	delta := after.NumberOfTravelers - before.NumberOfTravelers
	move := capacityMove{reserveDate: after.StartDate, releaseDate: before.StartDate}
	if delta > 0 {
		move.reserveCount = delta
	} else {
		move.releaseCount = -delta
	}
	return move
}

func discountError(err error) error {
	if errors.Is(err, policy.ErrDiscountTooLarge) {
		return apperrors.Validation("Invalid update input",
			validation.Field("discount_amount", "discount_amount cannot exceed the booking subtotal").Details())
	}
	return apperrors.Internal("Failed to price booking", err)
}

// persistUpdate reserves new capacity, writes the booking, then releases the
// capacity it no longer holds. A failed reserve leaves everything unchanged.
func (s *bookingService) persistUpdate(ctx context.Context, merged *model.Booking, prevUpdatedAt time.Time, move capacityMove) error {
	if move.reserveCount > 0 {
		if _, err := s.ledger.Reserve(ctx, merged.TourID, move.reserveDate, move.reserveCount); err != nil {
			return s.mapLedgerError(err, merged.TourID, move.reserveCount)
		}
	}

	if err := s.repo.Replace(ctx, merged, prevUpdatedAt); err != nil {
		if move.reserveCount > 0 && !isTransaction(ctx) {
			s.release(ctx, merged.TourID, move.reserveDate, move.reserveCount, "booking update failed")
		}
		return mapRepoError(err, merged.ID, "Failed to update booking")
	}

	if move.releaseCount > 0 {
		if isTransaction(ctx) {
			if _, err := s.ledger.Release(ctx, merged.TourID, move.releaseDate, move.releaseCount); err != nil {
				return s.mapLedgerError(err, merged.TourID, move.releaseCount)
			}
		} else {
			s.release(ctx, merged.TourID, move.releaseDate, move.releaseCount, "booking update released capacity")
		}
	}
	return nil
}

func (s *bookingService) Cancel(ctx context.Context, actor auth.Actor, id string, req *model.CancelRequest) (*model.CancelResult, error) {
	if req == nil {
		req = &model.CancelRequest{}
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.IsOwnerOrAdmin(actor, existing.UserID) {
		return nil, apperrors.Forbidden("You can only cancel your own bookings")
	}
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, validationError("Invalid cancel input", err)
	}
	if err := cancellable(existing.Status); err != nil {
		return nil, err
	}

	now := s.now()
	amount, percent := s.refunds.Refund(existing.Price.TotalPrice, now, existing.StartDate)
	refundStatus := model.RefundNone
	if existing.Payment.Status == model.PaymentPaid && amount > 0 {
		refundStatus = model.RefundPending
	}
	cancellation := &model.Cancellation{
		IsCancelled:   true,
		CancelledAt:   now,
		CancelledBy:   actor.ID,
		Reason:        sanitizer.NormalizeText(req.Reason),
		RefundAmount:  amount,
		RefundPercent: percent,
		RefundStatus:  refundStatus,
	}

	var cancelled *model.Booking
	if s.cfg.MongoTransactions {
		err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
			var txErr error
			cancelled, txErr = s.flipToCancelled(txCtx, id, cancellation)
			if txErr != nil {
				return txErr
			}
			if _, txErr = s.ledger.Release(txCtx, cancelled.TourID, cancelled.StartDate, cancelled.NumberOfTravelers); txErr != nil {
				return s.mapLedgerError(txErr, cancelled.TourID, cancelled.NumberOfTravelers)
			}
			return nil
		})
	} else {
		cancelled, err = s.flipToCancelled(ctx, id, cancellation)
		if err == nil {
			s.release(ctx, cancelled.TourID, cancelled.StartDate, cancelled.NumberOfTravelers, "booking cancelled")
		}
	}
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeAlreadyCancelled) {
			s.cfg.Log.Error("Failed to cancel booking", "id", id, "error", err)
		}
		return nil, err
	}

	s.invalidateStats(ctx)
	s.notifier.BookingCancelled(ctx, cancelled)
	s.cfg.Log.Info("Booking cancelled",
		"id", id,
		"cancelled_by", actor.ID,
		"refund_amount", amount,
		"refund_percent", percent,
		"released_spots", cancelled.NumberOfTravelers,
	)
	return &model.CancelResult{Booking: cancelled, RefundAmount: amount}, nil
}

// flipToCancelled is the single guarded write that decides which of several
// concurrent cancels wins.
func (s *bookingService) flipToCancelled(ctx context.Context, id string, cancellation *model.Cancellation) (*model.Booking, error) {
	cancelled, err := s.repo.Cancel(ctx, id, cancellation)
	if err == nil {
		return cancelled, nil
	}
	if errors.Is(err, bookingserrors.ErrStatusChanged) {
		current, loadErr := s.repo.FindByID(ctx, id)
		if loadErr != nil {
			return nil, mapRepoError(loadErr, id, "Failed to cancel booking")
		}
		if cancelErr := cancellable(current.Status); cancelErr != nil {
			return nil, cancelErr
		}
		return nil, apperrors.Conflict("Booking was modified concurrently, please retry")
	}
	return nil, mapRepoError(err, id, "Failed to cancel booking")
}

func cancellable(status model.BookingStatus) error {
	switch {
	case status == model.BookingCancelled:
		return apperrors.AlreadyCancelled()
	case !policy.Cancellable(status):
		return apperrors.InvalidTransition(string(status), string(model.BookingCancelled))
	}
	return nil
}

func (s *bookingService) Confirm(ctx context.Context, actor auth.Actor, id string) (*model.Booking, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can confirm bookings")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.BookingPending {
		return nil, apperrors.InvalidTransition(string(existing.Status), string(model.BookingConfirmed))
	}
	if existing.Payment.Status != model.PaymentPaid {
		return nil, apperrors.PaymentRequired("Booking must be paid before it can be confirmed")
	}

	confirmed, err := s.repo.Transition(ctx, id, model.BookingPending, model.BookingConfirmed, true, s.now())
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to confirm booking")
	}

	s.invalidateStats(ctx)
	s.notifier.BookingConfirmed(ctx, confirmed)
	s.cfg.Log.Info("Booking confirmed", "id", id, "confirmed_by", actor.ID)
	return confirmed, nil
}

func (s *bookingService) Complete(ctx context.Context, actor auth.Actor, id string) (*model.Booking, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can complete bookings")
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status != model.BookingConfirmed {
		return nil, apperrors.InvalidTransition(string(existing.Status), string(model.BookingCompleted))
	}

	completed, err := s.repo.Transition(ctx, id, model.BookingConfirmed, model.BookingCompleted, false, s.now())
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to complete booking")
	}

	s.invalidateStats(ctx)
	s.cfg.Log.Info("Booking completed", "id", id)
	return completed, nil
}

// RecordPayment stores the outcome reported by the payment provider. No
// money moves here.
func (s *bookingService) RecordPayment(ctx context.Context, actor auth.Actor, id string, update *model.PaymentUpdate) (*model.Booking, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only admins can record payments")
	}
	if err := s.validator.ValidatePayment(update); err != nil {
		return nil, validationError("Invalid payment input", err)
	}
	existing, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	amount := update.Amount
	markRefundProcessed := false
	switch update.Status {
	case model.PaymentPaid:
		if existing.Status == model.BookingCancelled {
			return nil, apperrors.InvalidChange("A cancelled booking cannot be paid")
		}
		if amount == 0 {
			amount = existing.Price.TotalPrice
		}
	case model.PaymentRefunded:
		if existing.Payment.Status != model.PaymentPaid {
			return nil, apperrors.InvalidChange("Only a paid booking can be refunded")
		}
		// a live booking must stay paid; refunds follow a cancellation
		if existing.Status != model.BookingCancelled {
			return nil, apperrors.InvalidChange("Cancel the booking before refunding it")
		}
		if c := existing.Cancellation; c != nil && c.RefundStatus == model.RefundPending {
			markRefundProcessed = true
			if amount == 0 {
				amount = c.RefundAmount
			}
		}
	case model.PaymentFailed:
		if existing.Payment.Status == model.PaymentPaid {
			return nil, apperrors.InvalidChange("A paid booking cannot be marked as failed")
		}
	}

	txn := model.PaymentTransaction{
		TransactionID: uuid.NewString(),
		Amount:        model.RoundMoney(amount),
		Status:        update.Status,
		RecordedAt:    s.now(),
		Note:          sanitizer.NormalizeText(update.Note),
	}

	updated, err := s.repo.RecordPayment(ctx, id, txn, markRefundProcessed)
	if err != nil {
		return nil, mapRepoError(err, id, "Failed to record payment")
	}

	s.invalidateStats(ctx)
	s.cfg.Log.Info("Payment recorded",
		"id", id,
		"transaction_id", txn.TransactionID,
		"payment_status", txn.Status,
		"amount", txn.Amount,
		"refund_processed", markRefundProcessed,
	)
	return updated, nil
}
