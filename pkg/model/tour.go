package model

import (
	"sort"
	"time"
)

type Tour struct {
	ID           string               `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PartnerID    string               `json:"partner_id,omitempty" bson:"partner_id,omitempty"`
	Name         string               `json:"name" bson:"name" validate:"required,min=3,max=120"`
	Slug         string               `json:"slug" bson:"slug"`
	Country      string               `json:"country" bson:"country" validate:"required,min=2,max=60"`
	Continent    string               `json:"continent" bson:"continent" validate:"required,oneof=Africa Antarctica Asia Europe North-America Oceania South-America"`
	BasePrice    float64              `json:"base_price" bson:"base_price" validate:"required,gt=0"`
	Currency     string               `json:"currency" bson:"currency" validate:"required,iso4217"`
	DurationDays int                  `json:"duration_days" bson:"duration_days" validate:"required,min=1,max=365"`
	MaxGroupSize int                  `json:"max_group_size" bson:"max_group_size" validate:"required,min=1,max=1000"`
	IsActive     bool                 `json:"is_active" bson:"is_active"`
	StartDates   []AvailabilityWindow `json:"start_dates" bson:"start_dates" validate:"omitempty,max=366,unique_dates,dive"`
	CreatedAt    time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" bson:"updated_at"`
}

type TourUpdate struct {
	Name         *string               `json:"name,omitempty" validate:"omitempty,min=3,max=120"`
	Country      *string               `json:"country,omitempty" validate:"omitempty,min=2,max=60"`
	Continent    *string               `json:"continent,omitempty" validate:"omitempty,oneof=Africa Antarctica Asia Europe North-America Oceania South-America"`
	BasePrice    *float64              `json:"base_price,omitempty" validate:"omitempty,gt=0"`
	DurationDays *int                  `json:"duration_days,omitempty" validate:"omitempty,min=1,max=365"`
	MaxGroupSize *int                  `json:"max_group_size,omitempty" validate:"omitempty,min=1,max=1000"`
	IsActive     *bool                 `json:"is_active,omitempty"`
	StartDates   *[]AvailabilityWindow `json:"start_dates,omitempty" validate:"omitempty,max=366,unique_dates,dive"`
}

// AvailabilityWindow is one offered departure of a tour with its own capacity.
// Date is always midnight UTC of the departure's calendar day.
type AvailabilityWindow struct {
	Date           time.Time `json:"date" bson:"date" validate:"required"`
	TotalSpots     int       `json:"total_spots" bson:"total_spots" validate:"required,min=1,max=1000"`
	AvailableSpots int       `json:"available_spots" bson:"available_spots" validate:"min=0,ltefield=TotalSpots"`
	PriceOverride  *float64  `json:"price_override,omitempty" bson:"price_override,omitempty" validate:"omitempty,gt=0"`
}

// NormalizeDate maps t to midnight UTC of the calendar day t falls on in its
// own location, so "2025-06-01" means the same thing for every caller.
func NormalizeDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (w *AvailabilityWindow) CanReserve(count int) bool {
	return count > 0 && w.AvailableSpots >= count
}

func (w *AvailabilityWindow) Reserve(count int) bool {
	if !w.CanReserve(count) {
		return false
	}
	w.AvailableSpots -= count
	return true
}

// Release returns count spots, never exceeding TotalSpots.
func (w *AvailabilityWindow) Release(count int) {
	if count <= 0 {
		return
	}
	w.AvailableSpots = min(w.AvailableSpots+count, w.TotalSpots)
}

func (w *AvailabilityWindow) Sold() int {
	return w.TotalSpots - w.AvailableSpots
}

// FindWindow returns the window for the calendar day of date.
func (t *Tour) FindWindow(date time.Time) (*AvailabilityWindow, bool) {
	day := NormalizeDate(date)
	for i := range t.StartDates {
		if t.StartDates[i].Date.Equal(day) {
			return &t.StartDates[i], true
		}
	}
	return nil, false
}

// UnitPrice is the per-traveler price for a window.
func (t *Tour) UnitPrice(w *AvailabilityWindow) float64 {
	if w != nil && w.PriceOverride != nil {
		return *w.PriceOverride
	}
	return t.BasePrice
}

// NormalizeWindows normalizes dates, fills AvailableSpots for new windows and
// sorts by date.
func NormalizeWindows(windows []AvailabilityWindow) []AvailabilityWindow {
	out := make([]AvailabilityWindow, 0, len(windows))
	for _, w := range windows {
		w.Date = NormalizeDate(w.Date)
		w.AvailableSpots = w.TotalSpots
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// MergeWindows replaces existing with incoming while keeping sold capacity.
// A date present in both keeps its sold spots, clamped so available never
// goes negative. A date only in incoming starts fully available.
func MergeWindows(existing, incoming []AvailabilityWindow) []AvailabilityWindow {
	sold := make(map[time.Time]int, len(existing))
	for _, w := range existing {
		sold[NormalizeDate(w.Date)] = w.Sold()
	}

	merged := NormalizeWindows(incoming)
	for i := range merged {
		if s, ok := sold[merged[i].Date]; ok {
			merged[i].AvailableSpots = max(merged[i].TotalSpots-s, 0)
		}
	}
	return merged
}

// DroppedSoldWindows returns the existing windows that have sold spots and
// are missing from incoming. Removing them would strand their bookings.
func DroppedSoldWindows(existing, incoming []AvailabilityWindow) []AvailabilityWindow {
	kept := make(map[time.Time]struct{}, len(incoming))
	for _, w := range incoming {
		kept[NormalizeDate(w.Date)] = struct{}{}
	}

	var dropped []AvailabilityWindow
	for _, w := range existing {
		if _, ok := kept[NormalizeDate(w.Date)]; !ok && w.Sold() > 0 {
			dropped = append(dropped, w)
		}
	}
	return dropped
}

type TourFilter struct {
	ActiveOnly bool
	Continent  string
	Country    string
	PartnerID  string
}
