package notifications

import (
	"context"

	"tourbook/pkg/logger"
)

type Email struct {
	To      []string
	Subject string
	Body    string
}

// EmailSender delivers rendered messages. Errors it returns are retried by
// the consumer when they classify as transient.
type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, email Email) error {
	s.log.Info("Email dispatched",
		"to", email.To,
		"subject", email.Subject,
		"body", email.Body,
	)
	return nil
}
