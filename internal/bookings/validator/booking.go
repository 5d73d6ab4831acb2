package validator

import (
	"fmt"
	"time"

	"tourbook/internal/bookings/policy"
	"tourbook/pkg/clock"
	"tourbook/pkg/logger"
	"tourbook/pkg/model"
	"tourbook/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type BookingValidator struct {
	validate *validator.Validate
	clock    clock.Clock
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger, clk clock.Clock) *BookingValidator {
	v := validation.New()

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		clock:    clk,
		logger:   log,
	}
}

func (v *BookingValidator) ValidateRequest(req *model.BookingRequest) error {
	if err := validation.Struct(v.validate, req); err != nil {
		return err
	}
	return v.validateStartDate("start_date", req.StartDate)
}

func (v *BookingValidator) ValidateUpdate(update *model.BookingUpdate) error {
	if err := validation.Struct(v.validate, update); err != nil {
		return err
	}
	if update.StartDate != nil {
		return v.validateStartDate("start_date", *update.StartDate)
	}
	return nil
}

func (v *BookingValidator) ValidatePayment(update *model.PaymentUpdate) error {
	return validation.Struct(v.validate, update)
}

func (v *BookingValidator) ValidateCancel(req *model.CancelRequest) error {
	return validation.Struct(v.validate, req)
}

// Validate checks the invariants of a complete booking before it is persisted.
func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := validation.Struct(v.validate, booking); err != nil {
		return err
	}

	if booking.NumberOfTravelers != len(booking.Travelers) {
		return validation.Field("number_of_travelers",
			fmt.Sprintf("number_of_travelers (%d) must match travelers (%d)", booking.NumberOfTravelers, len(booking.Travelers)))
	}

	if !policy.PriceConsistent(booking.Price, booking.NumberOfTravelers) {
		return validation.Field("price.total_price", "total_price must equal base_price * travelers - discount_amount + taxes")
	}

	if booking.Status == model.BookingConfirmed && booking.Payment.Status != model.PaymentPaid {
		return validation.Field("status", "a booking can only be confirmed once paid")
	}

	return nil
}

func (v *BookingValidator) validateStartDate(field string, date time.Time) error {
	today := model.NormalizeDate(v.clock.Now())
	if model.NormalizeDate(date).Before(today) {
		return validation.Field(field, field+" cannot be in the past")
	}
	return nil
}
