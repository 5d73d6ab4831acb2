package notify

import (
	"context"

	"tourbook/pkg/clock"
	"tourbook/pkg/logger"
	"tourbook/pkg/model"
)

// LogNotifier records events in the service log. It stands in for the
// broker when none is configured.
type LogNotifier struct {
	log   *logger.Logger
	clock clock.Clock
}

func NewLogNotifier(log *logger.Logger, clk clock.Clock) *LogNotifier {
	return &LogNotifier{log: log.WithComponent("notifier"), clock: clk}
}

func (n *LogNotifier) BookingConfirmed(_ context.Context, b *model.Booking) {
	n.emit(NewBookingEvent(EventBookingConfirmed, b, n.clock.Now()))
}

func (n *LogNotifier) BookingCancelled(_ context.Context, b *model.Booking) {
	n.emit(NewBookingEvent(EventBookingCancelled, b, n.clock.Now()))
}

func (n *LogNotifier) emit(event BookingEvent) {
	n.log.Info("Booking event",
		"event_type", event.Type,
		"booking_id", event.BookingID,
		"tour_id", event.TourID,
		"recipients", len(event.Recipients),
		"refund_amount", event.RefundAmount,
	)
}
