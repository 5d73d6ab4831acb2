package policy

import (
	"testing"
	"time"

	"tourbook/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicy(t *testing.T) *RefundPolicy {
	t.Helper()
	p, err := NewRefundPolicy(
		RefundTier{MinDaysBefore: 30, Percent: 100},
		RefundTier{MinDaysBefore: 14, Percent: 50},
		RefundTier{MinDaysBefore: 7, Percent: 25},
	)
	require.NoError(t, err)
	return p
}

func TestQuote_WorkedExample(t *testing.T) {
	price, err := Quote(100, 2, 0, 0.10, "USD")
	require.NoError(t, err)

	assert.Equal(t, 100.0, price.BasePrice)
	assert.Equal(t, 20.0, price.Taxes)
	assert.Equal(t, 220.0, price.TotalPrice)
	assert.True(t, PriceConsistent(price, 2))
}

func TestQuote_Discount(t *testing.T) {
	price, err := Quote(99.99, 3, 50, 0.10, "EUR")
	require.NoError(t, err)
	assert.Equal(t, 30.0, price.Taxes)
	assert.Equal(t, 279.97, price.TotalPrice)
	assert.True(t, PriceConsistent(price, 3))

	_, err = Quote(100, 1, 101, 0.10, "EUR")
	assert.ErrorIs(t, err, ErrDiscountTooLarge)
}

func TestWithDiscount(t *testing.T) {
	price, err := Quote(100, 2, 0, 0.10, "USD")
	require.NoError(t, err)

	discounted, err := WithDiscount(price, 2, 40)
	require.NoError(t, err)
	assert.Equal(t, 180.0, discounted.TotalPrice)
	assert.Equal(t, 20.0, discounted.Taxes)
	assert.True(t, PriceConsistent(discounted, 2))

	_, err = WithDiscount(price, 2, 250)
	assert.ErrorIs(t, err, ErrDiscountTooLarge)
}

func TestCanTransition(t *testing.T) {
	all := model.BookingStatuses
	allowed := map[[2]model.BookingStatus]bool{
		{model.BookingPending, model.BookingConfirmed}:   true,
		{model.BookingPending, model.BookingCancelled}:   true,
		{model.BookingConfirmed, model.BookingCompleted}: true,
		{model.BookingConfirmed, model.BookingCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := from == to || allowed[[2]model.BookingStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestNewRefundPolicy_RejectsNonMonotonicTiers(t *testing.T) {
	tests := []struct {
		name  string
		tiers []RefundTier
	}{
		{"days not descending", []RefundTier{{14, 50}, {30, 25}}},
		{"percent increases", []RefundTier{{30, 50}, {14, 75}}},
		{"percent over 100", []RefundTier{{30, 120}}},
		{"negative days", []RefundTier{{-1, 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRefundPolicy(tt.tiers...)
			assert.Error(t, err)
		})
	}
}

func TestRefundPolicy_Tiers(t *testing.T) {
	p := defaultPolicy(t)
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		cancelledAt time.Time
		percent     int
		amount      float64
	}{
		{"60 days ahead", start.AddDate(0, 0, -60), 100, 220},
		{"exactly 30 days", start.AddDate(0, 0, -30), 100, 220},
		{"just under 30 days", start.AddDate(0, 0, -30).Add(time.Minute), 50, 110},
		{"exactly 14 days", start.AddDate(0, 0, -14), 50, 110},
		{"10 days", start.AddDate(0, 0, -10), 25, 55},
		{"6 days", start.AddDate(0, 0, -6), 0, 0},
		{"on the day", start.Add(8 * time.Hour), 0, 0},
		{"after start", start.AddDate(0, 0, 3), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, percent := p.Refund(220, tt.cancelledAt, start)
			assert.Equal(t, tt.percent, percent)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

func TestRefundPolicy_Monotonic(t *testing.T) {
	p := defaultPolicy(t)
	start := time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
	total := 1234.56

	prev := -1.0
	// walk from the start date backwards in 6 hour steps; earlier never refunds less
	for h := 0; h <= 24*90; h += 6 {
		cancelledAt := start.Add(-time.Duration(h) * time.Hour)
		amount, _ := p.Refund(total, cancelledAt, start)
		assert.GreaterOrEqual(t, amount, prev, "cancelling %dh ahead", h)
		prev = amount
	}
}

func TestLeadDays_IgnoresTimeOfDayOnStart(t *testing.T) {
	cancelledAt := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 30, LeadDays(cancelledAt, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, LeadDays(cancelledAt, time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)))
}
