package validator

import (
	"errors"
	"io"
	"testing"
	"time"

	"tourbook/pkg/logger"
	"tourbook/pkg/model"
	"tourbook/pkg/validation"
)

func newTestValidator() *TourValidator {
	return NewTourValidator(logger.New(logger.Config{Level: "error", Output: io.Discard}))
}

func validTour() *model.Tour {
	return &model.Tour{
		Name:         "Kyoto Temples",
		Slug:         "kyoto-temples",
		Country:      "Japan",
		Continent:    "Asia",
		BasePrice:    100,
		Currency:     "USD",
		DurationDays: 5,
		MaxGroupSize: 10,
		IsActive:     true,
		StartDates: []model.AvailabilityWindow{
			{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), TotalSpots: 10, AvailableSpots: 10},
		},
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
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

func TestTourValidator_Validate(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name      string
		mutate    func(*model.Tour)
		wantField string
	}{
		{name: "valid", mutate: func(*model.Tour) {}},
		{name: "missing name", mutate: func(t *model.Tour) { t.Name = "" }, wantField: "name"},
		{name: "unknown continent", mutate: func(t *model.Tour) { t.Continent = "Atlantis" }, wantField: "continent"},
		{name: "bad currency", mutate: func(t *model.Tour) { t.Currency = "XXQ" }, wantField: "currency"},
		{name: "zero price", mutate: func(t *model.Tour) { t.BasePrice = 0 }, wantField: "base_price"},
		{
			name: "available above total",
			mutate: func(t *model.Tour) {
				t.StartDates[0].AvailableSpots = 11
			},
			wantField: "start_dates[0].available_spots",
		},
		{
			name: "duplicate date",
			mutate: func(t *model.Tour) {
				t.StartDates = append(t.StartDates, t.StartDates[0])
			},
			wantField: "start_dates",
		},
		{name: "empty slug", mutate: func(t *model.Tour) { t.Slug = "" }, wantField: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tour := validTour()
			tt.mutate(tour)

			err := v.Validate(tour)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error on %s", tt.wantField)
			}
			if _, ok := fieldsOf(t, err)[tt.wantField]; !ok {
				t.Errorf("expected field %s in %v", tt.wantField, err)
			}
		})
	}
}

func TestTourValidator_ValidateUpdate(t *testing.T) {
	v := newTestValidator()

	size := 0
	if err := v.ValidateUpdate(&model.TourUpdate{MaxGroupSize: &size}); err == nil {
		t.Error("expected max_group_size below 1 to fail")
	}

	name := "Andes Trek"
	if err := v.ValidateUpdate(&model.TourUpdate{Name: &name}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
