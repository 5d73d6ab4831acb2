// Package notify dispatches booking lifecycle events. Dispatch is fire and
// forget: failures are logged and never reach the caller.
package notify

import (
	"context"
	"time"

	"tourbook/pkg/model"
)

const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingCancelled = "booking.cancelled"

	SchemaVersion = "1"
)

type Notifier interface {
	BookingConfirmed(ctx context.Context, booking *model.Booking)
	BookingCancelled(ctx context.Context, booking *model.Booking)
}

type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingEvent is the payload published on the booking events topic.
type BookingEvent struct {
	Type         string              `json:"type"`
	BookingID    string              `json:"booking_id"`
	TourID       string              `json:"tour_id"`
	UserID       string              `json:"user_id"`
	StartDate    time.Time           `json:"start_date"`
	Travelers    int                 `json:"travelers"`
	Recipients   []Recipient         `json:"recipients"`
	TotalPrice   float64             `json:"total_price"`
	Currency     string              `json:"currency"`
	Status       model.BookingStatus `json:"status"`
	RefundAmount float64             `json:"refund_amount,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *model.Booking, at time.Time) BookingEvent {
	event := BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		TourID:     b.TourID,
		UserID:     b.UserID,
		StartDate:  b.StartDate,
		Travelers:  b.NumberOfTravelers,
		Recipients: make([]Recipient, 0, len(b.Travelers)),
		TotalPrice: b.Price.TotalPrice,
		Currency:   b.Price.Currency,
		Status:     b.Status,
		OccurredAt: at.UTC(),
	}
	for _, t := range b.Travelers {
		if t.Email != "" {
			event.Recipients = append(event.Recipients, Recipient{Name: t.FullName, Email: t.Email})
		}
	}
	if b.Cancellation != nil {
		event.RefundAmount = b.Cancellation.RefundAmount
		event.Reason = b.Cancellation.Reason
	}
	return event
}

// bounded detaches ctx from request cancellation and caps it by timeout.
func bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}
