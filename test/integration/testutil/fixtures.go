//go:build integration

package testutil

import (
	"encoding/json"
	"testing"
	"time"

	"tourbook/pkg/client"
	"tourbook/pkg/model"

	"github.com/stretchr/testify/require"
)

type TourBuilder struct {
	tour model.Tour
}

func NewTourBuilder() *TourBuilder {
	return &TourBuilder{
		tour: model.Tour{
			Name:         "Andes Trek",
			Country:      "Peru",
			Continent:    "South-America",
			BasePrice:    1000,
			Currency:     "USD",
			DurationDays: 7,
			MaxGroupSize: 12,
			IsActive:     true,
		},
	}
}

func (b *TourBuilder) WithName(name string) *TourBuilder {
	b.tour.Name = name
	return b
}

func (b *TourBuilder) WithPartner(partnerID string) *TourBuilder {
	b.tour.PartnerID = partnerID
	return b
}

func (b *TourBuilder) WithWindow(date time.Time, spots int) *TourBuilder {
	b.tour.StartDates = append(b.tour.StartDates, model.AvailabilityWindow{
		Date:           model.NormalizeDate(date),
		TotalSpots:     spots,
		AvailableSpots: spots,
	})
	return b
}

func (b *TourBuilder) Build() model.Tour {
	return b.tour
}

func NewBookingRequest(tourID string, start time.Time, travelers int) model.BookingRequest {
	req := model.BookingRequest{
		TourID:        tourID,
		StartDate:     model.NormalizeDate(start),
		PaymentMethod: "card",
	}
	for range travelers {
		req.Travelers = append(req.Travelers, model.Traveler{
			FullName: "Test Traveler",
			Email:    "traveler@example.com",
		})
	}
	return req
}

func NewReviewRequest(tourID, bookingID string) model.ReviewRequest {
	return model.ReviewRequest{
		TourID:         tourID,
		BookingID:      bookingID,
		Rating:         5,
		Title:          "Unforgettable trip",
		Comment:        "The guides were great and every day was well planned.",
		Highlights:     []string{"guides", "food"},
		WouldRecommend: true,
	}
}

// Data decodes the {"data": ...} envelope and fails the test unless the
// response carries want.
func Data[T any](t *testing.T, resp *client.Response, err error, want int) T {
	t.Helper()
	require.NoError(t, err)
	require.Equal(t, want, resp.StatusCode, client.GetErrorMessage(resp))

	var envelope struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body, &envelope))
	return envelope.Data
}

func RequireStatus(t *testing.T, resp *client.Response, err error, want int) {
	t.Helper()
	require.NoError(t, err)
	require.Equal(t, want, resp.StatusCode, string(resp.Body))
}
