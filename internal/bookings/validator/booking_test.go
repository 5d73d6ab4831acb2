package validator

import (
	"errors"
	"io"
	"testing"
	"time"

	"tourbook/internal/bookings/policy"
	"tourbook/pkg/clock"
	"tourbook/pkg/logger"
	"tourbook/pkg/model"
	"tourbook/pkg/validation"
)

var today = time.Date(2025, 5, 1, 15, 0, 0, 0, time.UTC)

func newTestValidator() *BookingValidator {
	log := logger.New(logger.Config{Level: "error", Output: io.Discard})
	return NewBookingValidator(log, clock.NewMockClock(today))
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var errs validation.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected validation.Errors, got %T: %v", err, err)
	}
	out := map[string]string{}
	for _, e := range errs {
		out[e.Field] = e.Message
	}
	return out
}

func validRequest() *model.BookingRequest {
	return &model.BookingRequest{
		TourID:    "64b7f0c2a1b2c3d4e5f60718",
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Travelers: []model.Traveler{{FullName: "Ana Silva", Email: "ana@example.com", Phone: "+14155552671"}},
	}
}

func TestValidateRequest(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		mutate    func(*model.BookingRequest)
		wantField string
	}{
		{name: "valid", mutate: func(*model.BookingRequest) {}},
		{name: "today is allowed", mutate: func(r *model.BookingRequest) { r.StartDate = today.Add(-10 * time.Hour) }},
		{name: "yesterday", mutate: func(r *model.BookingRequest) { r.StartDate = today.AddDate(0, 0, -1) }, wantField: "start_date"},
		{name: "bad tour id", mutate: func(r *model.BookingRequest) { r.TourID = "tour-1" }, wantField: "tour_id"},
		{name: "no travelers", mutate: func(r *model.BookingRequest) { r.Travelers = nil }, wantField: "travelers"},
		{name: "bad email", mutate: func(r *model.BookingRequest) { r.Travelers[0].Email = "ana" }, wantField: "travelers[0].email"},
		{name: "bad phone", mutate: func(r *model.BookingRequest) { r.Travelers[0].Phone = "call me" }, wantField: "travelers[0].phone"},
		{name: "unknown payment method", mutate: func(r *model.BookingRequest) { r.PaymentMethod = "barter" }, wantField: "payment_method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			err := v.ValidateRequest(req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if _, ok := fields(t, err)[tt.wantField]; !ok {
				t.Errorf("expected %s in %v", tt.wantField, err)
			}
		})
	}
}

func validBooking(t *testing.T) *model.Booking {
	t.Helper()
	price, err := policy.Quote(100, 2, 0, 0.1, "USD")
	if err != nil {
		t.Fatal(err)
	}
	req := validRequest()
	return &model.Booking{
		TourID:            req.TourID,
		UserID:            "user-1",
		StartDate:         req.StartDate,
		Travelers:         append(req.Travelers, model.Traveler{FullName: "Rui Costa", Email: "rui@example.com"}),
		NumberOfTravelers: 2,
		Price:             price,
		Status:            model.BookingPending,
		Payment:           model.Payment{Status: model.PaymentPending},
	}
}

func TestValidate_Invariants(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		mutate    func(*model.Booking)
		wantField string
	}{
		{name: "valid", mutate: func(*model.Booking) {}},
		{name: "count mismatch", mutate: func(b *model.Booking) { b.NumberOfTravelers = 3 }, wantField: "number_of_travelers"},
		{name: "inconsistent total", mutate: func(b *model.Booking) { b.Price.TotalPrice = 300 }, wantField: "price.total_price"},
		{name: "confirmed unpaid", mutate: func(b *model.Booking) { b.Status = model.BookingConfirmed }, wantField: "status"},
		{name: "unknown status", mutate: func(b *model.Booking) { b.Status = "archived" }, wantField: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking(t)
			tt.mutate(b)

			err := v.Validate(b)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if _, ok := fields(t, err)[tt.wantField]; !ok {
				t.Errorf("expected %s in %v", tt.wantField, err)
			}
		})
	}
}

func TestValidateUpdate_PastDate(t *testing.T) {
	v := newTestValidator()
	past := today.AddDate(0, -1, 0)

	if _, ok := fields(t, v.ValidateUpdate(&model.BookingUpdate{StartDate: &past}))["start_date"]; !ok {
		t.Error("expected start_date error")
	}

	negative := -5.0
	if _, ok := fields(t, v.ValidateUpdate(&model.BookingUpdate{DiscountAmount: &negative}))["discount_amount"]; !ok {
		t.Error("expected discount_amount error")
	}
}
