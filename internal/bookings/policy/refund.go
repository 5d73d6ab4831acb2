package policy

import (
	"fmt"
	"math"
	"time"

	"tourbook/pkg/config"
	"tourbook/pkg/model"
)

// RefundTier grants Percent of the total when a booking is cancelled at
// least MinDaysBefore whole days ahead of its start date.
type RefundTier struct {
	MinDaysBefore int
	Percent       int
}

type RefundPolicy struct {
	tiers []RefundTier
}

// NewRefundPolicy requires tiers ordered by MinDaysBefore descending with
// non-increasing percentages, which keeps refunds monotonic in lead time.
func NewRefundPolicy(tiers ...RefundTier) (*RefundPolicy, error) {
	for i, tier := range tiers {
		if tier.MinDaysBefore < 0 {
			return nil, fmt.Errorf("tier %d: days before cannot be negative", i)
		}
		if tier.Percent < 0 || tier.Percent > 100 {
			return nil, fmt.Errorf("tier %d: percent must be within 0..100, got %d", i, tier.Percent)
		}
		if i == 0 {
			continue
		}
		prev := tiers[i-1]
		if tier.MinDaysBefore >= prev.MinDaysBefore {
			return nil, fmt.Errorf("tier %d: days before must be lower than tier %d", i, i-1)
		}
		if tier.Percent > prev.Percent {
			return nil, fmt.Errorf("tier %d: percent cannot exceed tier %d", i, i-1)
		}
	}
	return &RefundPolicy{tiers: append([]RefundTier(nil), tiers...)}, nil
}

func RefundPolicyFromConfig(cfg *config.Config) (*RefundPolicy, error) {
	return NewRefundPolicy(
		RefundTier{MinDaysBefore: cfg.RefundFullDays, Percent: 100},
		RefundTier{MinDaysBefore: cfg.RefundPartialDays, Percent: cfg.RefundPartialPercent},
		RefundTier{MinDaysBefore: cfg.RefundMinimalDays, Percent: cfg.RefundMinimalPercent},
	)
}

// LeadDays is the number of whole days from cancelledAt until the start of
// the departure day, or a negative number once that day has begun.
func LeadDays(cancelledAt, startDate time.Time) int {
	start := model.NormalizeDate(startDate)
	return int(math.Floor(start.Sub(cancelledAt.UTC()).Hours() / 24))
}

func (p *RefundPolicy) Percent(cancelledAt, startDate time.Time) int {
	days := LeadDays(cancelledAt, startDate)
	for _, tier := range p.tiers {
		if days >= tier.MinDaysBefore {
			return tier.Percent
		}
	}
	return 0
}

// Refund returns the refund amount for total and the percent applied.
func (p *RefundPolicy) Refund(total float64, cancelledAt, startDate time.Time) (float64, int) {
	percent := p.Percent(cancelledAt, startDate)
	return model.RoundMoney(total * float64(percent) / 100), percent
}
