package notifications

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	"tourbook/pkg/notify"
)

var templates = template.Must(template.New("notifications").Funcs(template.FuncMap{
	"date":  func(e notify.BookingEvent) string { return e.StartDate.UTC().Format("Monday, 2 January 2006") },
	"money": func(amount float64, currency string) string { return fmt.Sprintf("%.2f %s", amount, currency) },
}).Parse(`
{{define "booking.confirmed"}}Hello {{.Name}},

Your booking {{.Event.BookingID}} for {{.Event.Travelers}} traveler(s) starting {{date .Event}} is confirmed.
Total paid: {{money .Event.TotalPrice .Event.Currency}}.
{{end}}
{{define "booking.cancelled"}}Hello {{.Name}},

Your booking {{.Event.BookingID}} starting {{date .Event}} was cancelled.{{if .Event.Reason}}
Reason: {{.Event.Reason}}{{end}}
{{if gt .Event.RefundAmount 0.0}}A refund of {{money .Event.RefundAmount .Event.Currency}} is on its way.{{else}}No refund applies to this cancellation.{{end}}
{{end}}`))

var subjects = map[string]string{
	notify.EventBookingConfirmed: "Your booking is confirmed",
	notify.EventBookingCancelled: "Your booking was cancelled",
}

// ErrUnknownEvent is returned by Render for event types without a template.
var ErrUnknownEvent = errors.New("no template for event type")

// Render builds one email per recipient of event.
func Render(event notify.BookingEvent) ([]Email, error) {
	subject, ok := subjects[event.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event.Type)
	}

	emails := make([]Email, 0, len(event.Recipients))
	for _, r := range event.Recipients {
		var body bytes.Buffer
		data := struct {
			Name  string
			Event notify.BookingEvent
		}{Name: r.Name, Event: event}
		if err := templates.ExecuteTemplate(&body, event.Type, data); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", event.Type, err)
		}
		emails = append(emails, Email{
			To:      []string{r.Email},
			Subject: subject,
			Body:    body.String(),
		})
	}
	return emails, nil
}
