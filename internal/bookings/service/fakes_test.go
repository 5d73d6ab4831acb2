package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	bookingserrors "tourbook/internal/bookings/errors"
	"tourbook/internal/ledger"
	tourserrors "tourbook/internal/tours/errors"
	mongotx "tourbook/pkg/db/mongo"
	"tourbook/pkg/model"
	"tourbook/pkg/stats"
)

// fakeBookingRepository applies the same guards as the Mongo repository
// under a single lock.
type fakeBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int

	statsCalls atomic.Int32
	createErr  error
}

func newFakeRepo() *fakeBookingRepository {
	return &fakeBookingRepository{bookings: map[string]*model.Booking{}}
}

func cloneBooking(b *model.Booking) *model.Booking {
	out := *b
	out.Travelers = append([]model.Traveler(nil), b.Travelers...)
	out.Payment.Transactions = append([]model.PaymentTransaction(nil), b.Payment.Transactions...)
	if b.Cancellation != nil {
		c := *b.Cancellation
		out.Cancellation = &c
	}
	return &out
}

func (r *fakeBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	booking.ID = fmt.Sprintf("%024x", r.nextID)
	r.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *fakeBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *fakeBookingRepository) matching(filter model.BookingFilter) []*model.Booking {
	out := []*model.Booking{}
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.TourID != "" && b.TourID != filter.TourID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	return out
}

func (r *fakeBookingRepository) Find(_ context.Context, filter model.BookingFilter, _ int, _ int64) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.matching(filter), nil
}

func (r *fakeBookingRepository) Count(_ context.Context, filter model.BookingFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.matching(filter))), nil
}

func (r *fakeBookingRepository) Replace(_ context.Context, booking *model.Booking, prevUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[booking.ID]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	if !stored.UpdatedAt.Equal(prevUpdatedAt) || stored.Status == model.BookingCancelled || stored.Status == model.BookingCompleted {
		return bookingserrors.ErrStatusChanged
	}
	r.bookings[booking.ID] = cloneBooking(booking)
	return nil
}

func (r *fakeBookingRepository) Cancel(_ context.Context, id string, cancellation *model.Cancellation) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if stored.Status != model.BookingPending && stored.Status != model.BookingConfirmed {
		return nil, bookingserrors.ErrStatusChanged
	}
	c := *cancellation
	stored.Status = model.BookingCancelled
	stored.Cancellation = &c
	stored.UpdatedAt = cancellation.CancelledAt
	return cloneBooking(stored), nil
}

func (r *fakeBookingRepository) Transition(_ context.Context, id string, from, to model.BookingStatus, requirePaid bool, at time.Time) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if stored.Status != from || (requirePaid && stored.Payment.Status != model.PaymentPaid) {
		return nil, bookingserrors.ErrStatusChanged
	}
	stored.Status = to
	stored.UpdatedAt = at
	return cloneBooking(stored), nil
}

func (r *fakeBookingRepository) RecordPayment(_ context.Context, id string, txn model.PaymentTransaction, markRefundProcessed bool) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	if markRefundProcessed {
		if stored.Cancellation == nil || stored.Cancellation.RefundStatus != model.RefundPending {
			return nil, bookingserrors.ErrStatusChanged
		}
		stored.Cancellation.RefundStatus = model.RefundProcessed
	}
	stored.Payment.Transactions = append(stored.Payment.Transactions, txn)
	stored.Payment.Status = txn.Status
	stored.UpdatedAt = txn.RecordedAt
	return cloneBooking(stored), nil
}

func (r *fakeBookingRepository) Stats(_ context.Context, _ time.Time) ([]stats.StatusRow, []stats.MonthRow, error) {
	r.statsCalls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := map[model.BookingStatus]*stats.StatusRow{}
	for _, b := range r.bookings {
		row, ok := rows[b.Status]
		if !ok {
			row = &stats.StatusRow{Status: string(b.Status)}
			rows[b.Status] = row
		}
		row.Count++
		row.Travelers += int64(b.NumberOfTravelers)
		if b.Status != model.BookingCancelled {
			row.Revenue += b.Price.TotalPrice
		}
	}
	out := make([]stats.StatusRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	return out, nil, nil
}

func (r *fakeBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

// tourReader serves tours from the same in-memory ledger the service books
// against, so availability reads follow reservations.
type tourReader struct {
	ledger *ledger.InMemory
}

func (r tourReader) FindByID(_ context.Context, id string) (*model.Tour, error) {
	tour, ok := r.ledger.Tour(id)
	if !ok {
		return nil, tourserrors.ErrNotFound
	}
	return tour, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []string
	cancelled []string
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, b *model.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, b.ID)
}

func (n *recordingNotifier) BookingCancelled(_ context.Context, b *model.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, b.ID)
}
