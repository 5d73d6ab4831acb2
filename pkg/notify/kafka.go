package notify

import (
	"context"
	"time"

	"tourbook/pkg/clock"
	"tourbook/pkg/kafka"
	"tourbook/pkg/logger"
	"tourbook/pkg/middleware"
	"tourbook/pkg/model"
)

type KafkaNotifier struct {
	publisher kafka.Publisher
	source    string
	timeout   time.Duration
	clock     clock.Clock
	log       *logger.Logger
}

func NewKafkaNotifier(publisher kafka.Publisher, source string, timeout time.Duration, clk clock.Clock, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		source:    source,
		timeout:   timeout,
		clock:     clk,
		log:       log.WithComponent("notifier"),
	}
}

func (n *KafkaNotifier) BookingConfirmed(ctx context.Context, b *model.Booking) {
	n.publish(ctx, NewBookingEvent(EventBookingConfirmed, b, n.clock.Now()))
}

func (n *KafkaNotifier) BookingCancelled(ctx context.Context, b *model.Booking) {
	n.publish(ctx, NewBookingEvent(EventBookingCancelled, b, n.clock.Now()))
}

func (n *KafkaNotifier) publish(ctx context.Context, event BookingEvent) {
	ctx, cancel := bounded(ctx, n.timeout)
	defer cancel()

	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventType(event.Type).
		WithSource(n.source).
		WithSchemaVersion(SchemaVersion).
		WithTimestamp(event.OccurredAt).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		Build()
	if err != nil {
		n.log.Error("Failed to build booking event", "event_type", event.Type, "booking_id", event.BookingID, "error", err)
		return
	}

	if err := n.publisher.Publish(ctx, msg); err != nil {
		n.log.Error("Failed to publish booking event",
			"event_type", event.Type,
			"booking_id", event.BookingID,
			"event_id", msg.GetEventID(),
			"correlation_id", msg.GetCorrelationID(),
			"error", err,
		)
		return
	}
	n.log.Debug("Published booking event", "event_type", event.Type, "booking_id", event.BookingID)
}
