// Package notifications turns booking events from the dispatch topic into
// traveler emails.
package notifications

import (
	"context"
	"errors"

	"tourbook/pkg/kafka"
	"tourbook/pkg/logger"
	"tourbook/pkg/notify"
)

type Handler struct {
	sender EmailSender
	log    *logger.Logger
}

func NewHandler(sender EmailSender, log *logger.Logger) *Handler {
	return &Handler{sender: sender, log: log}
}

// Handle is a kafka.MessageHandler. Undecodable and unknown events are
// permanent failures; sender failures keep their own classification.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	var event notify.BookingEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("invalid booking event payload", err)
	}

	emails, err := Render(event)
	if err != nil {
		if errors.Is(err, ErrUnknownEvent) {
			h.log.Warn("Skipping unsupported event",
				"event_id", msg.GetEventID(),
				"type", event.Type,
			)
			return nil
		}
		return kafka.NewPermanentError("failed to render booking event", err)
	}

	if len(emails) == 0 {
		h.log.Info("Booking event has no recipients",
			"event_id", msg.GetEventID(),
			"booking_id", event.BookingID,
		)
		return nil
	}

	for _, email := range emails {
		if err := h.sender.Send(ctx, email); err != nil {
			return err
		}
	}

	h.log.Info("Booking notifications sent",
		"event_id", msg.GetEventID(),
		"correlation_id", msg.GetCorrelationID(),
		"booking_id", event.BookingID,
		"type", event.Type,
		"emails", len(emails),
	)
	return nil
}
