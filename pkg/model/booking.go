package model

import (
	"math"
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

var BookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type RefundStatus string

const (
	RefundNone      RefundStatus = "none"
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
)

type Traveler struct {
	FullName       string     `json:"full_name" bson:"full_name" validate:"required,min=2,max=100"`
	Email          string     `json:"email" bson:"email" validate:"required,email"`
	Phone          string     `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	PassportNumber string     `json:"passport_number,omitempty" bson:"passport_number,omitempty" validate:"omitempty,alphanum,min=5,max=20"`
}

type Price struct {
	BasePrice      float64 `json:"base_price" bson:"base_price"`
	DiscountAmount float64 `json:"discount_amount" bson:"discount_amount"`
	Taxes          float64 `json:"taxes" bson:"taxes"`
	TotalPrice     float64 `json:"total_price" bson:"total_price"`
	Currency       string  `json:"currency" bson:"currency"`
}

type PaymentTransaction struct {
	TransactionID string        `json:"transaction_id" bson:"transaction_id"`
	Amount        float64       `json:"amount" bson:"amount"`
	Status        PaymentStatus `json:"status" bson:"status"`
	RecordedAt    time.Time     `json:"recorded_at" bson:"recorded_at"`
	Note          string        `json:"note,omitempty" bson:"note,omitempty"`
}

type Payment struct {
	Method       string               `json:"method" bson:"method"`
	Status       PaymentStatus        `json:"status" bson:"status"`
	Transactions []PaymentTransaction `json:"transactions" bson:"transactions"`
}

type Cancellation struct {
	IsCancelled   bool         `json:"is_cancelled" bson:"is_cancelled"`
	CancelledAt   time.Time    `json:"cancelled_at" bson:"cancelled_at"`
	CancelledBy   string       `json:"cancelled_by" bson:"cancelled_by"`
	Reason        string       `json:"reason,omitempty" bson:"reason,omitempty"`
	RefundAmount  float64      `json:"refund_amount" bson:"refund_amount"`
	RefundPercent int          `json:"refund_percent" bson:"refund_percent"`
	RefundStatus  RefundStatus `json:"refund_status" bson:"refund_status"`
}

type Booking struct {
	ID                string        `json:"id,omitempty" bson:"_id,omitempty"`
	TourID            string        `json:"tour_id" bson:"tour_id" validate:"required"`
	UserID            string        `json:"user_id" bson:"user_id" validate:"required"`
	StartDate         time.Time     `json:"start_date" bson:"start_date" validate:"required"`
	Travelers         []Traveler    `json:"travelers" bson:"travelers" validate:"required,min=1,max=50,dive"`
	NumberOfTravelers int           `json:"number_of_travelers" bson:"number_of_travelers" validate:"min=1"`
	Price             Price         `json:"price" bson:"price"`
	Status            BookingStatus `json:"status" bson:"status" validate:"oneof=pending confirmed completed cancelled"`
	Payment           Payment       `json:"payment" bson:"payment"`
	Cancellation      *Cancellation `json:"cancellation,omitempty" bson:"cancellation,omitempty"`
	SpecialRequests   string        `json:"special_requests,omitempty" bson:"special_requests,omitempty" validate:"max=1000"`
	CreatedAt         time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at" bson:"updated_at"`
}

// BookingRequest is the body of a booking creation call. The owner comes
// from the authenticated actor, never from the body.
type BookingRequest struct {
	TourID          string     `json:"tour_id" validate:"required,mongodb"`
	StartDate       time.Time  `json:"start_date" validate:"required"`
	Travelers       []Traveler `json:"travelers" validate:"required,min=1,max=50,dive"`
	SpecialRequests string     `json:"special_requests,omitempty" validate:"omitempty,max=1000"`
	PaymentMethod   string     `json:"payment_method,omitempty" validate:"omitempty,oneof=card bank_transfer cash voucher"`
}

type BookingUpdate struct {
	Travelers       *[]Traveler    `json:"travelers,omitempty" validate:"omitempty,min=1,max=50,dive"`
	StartDate       *time.Time     `json:"start_date,omitempty"`
	SpecialRequests *string        `json:"special_requests,omitempty" validate:"omitempty,max=1000"`
	Status          *BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed completed cancelled"`
	DiscountAmount  *float64       `json:"discount_amount,omitempty" validate:"omitempty,gte=0"`
}

func (u *BookingUpdate) IsEmpty() bool {
	return u.Travelers == nil && u.StartDate == nil && u.SpecialRequests == nil &&
		u.Status == nil && u.DiscountAmount == nil
}

// AdminOnly reports whether the update touches fields only an admin may change.
func (u *BookingUpdate) AdminOnly() bool {
	return u.Status != nil || u.DiscountAmount != nil
}

type PaymentUpdate struct {
	Status PaymentStatus `json:"status" validate:"required,oneof=paid failed refunded"`
	Amount float64       `json:"amount" validate:"gte=0"`
	Note   string        `json:"note,omitempty" validate:"omitempty,max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type CancelResult struct {
	Booking      *Booking `json:"booking"`
	RefundAmount float64  `json:"refund_amount"`
}

type BookingFilter struct {
	Status BookingStatus
	TourID string
	UserID string
}

// RoundMoney rounds to cents.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
