// Package stats turns raw aggregation rows into zero-filled report
// structures. Nothing here touches storage; empty input yields zeroed output.
package stats

import (
	"math"
	"sort"
	"time"

	"tourbook/pkg/model"
)

// StatusRow is one $group row keyed by booking status. Revenue must already
// exclude cancelled bookings.
type StatusRow struct {
	Status    string  `bson:"_id"`
	Count     int64   `bson:"count"`
	Revenue   float64 `bson:"revenue"`
	Travelers int64   `bson:"travelers"`
}

// MonthRow is one $group row keyed by creation (year, month).
type MonthRow struct {
	Year    int     `bson:"year"`
	Month   int     `bson:"month"`
	Count   int64   `bson:"count"`
	Revenue float64 `bson:"revenue"`
}

type OverallStats struct {
	TotalBookings       int64   `json:"total_bookings"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalTravelers      int64   `json:"total_travelers"`
	AverageBookingValue float64 `json:"average_booking_value"`
}

type StatusStat struct {
	Status  model.BookingStatus `json:"status"`
	Count   int64               `json:"count"`
	Revenue float64             `json:"revenue"`
}

type MonthlyStat struct {
	Year    int     `json:"year"`
	Month   int     `json:"month"`
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

type BookingStats struct {
	Overall  OverallStats  `json:"overall"`
	ByStatus []StatusStat  `json:"by_status"`
	Monthly  []MonthlyStat `json:"monthly"`
}

// BuildBookingStats assembles the booking report. ByStatus always lists every
// status in lifecycle order and Overall counts only those statuses. Monthly covers the months window ending with the
// month of now, oldest first, and drops rows outside it.
func BuildBookingStats(statusRows []StatusRow, monthRows []MonthRow, now time.Time, months int) BookingStats {
	byStatus := make(map[model.BookingStatus]StatusRow, len(statusRows))
	for _, row := range statusRows {
		status := model.BookingStatus(row.Status)
		acc := byStatus[status]
		acc.Count += row.Count
		acc.Revenue += row.Revenue
		acc.Travelers += row.Travelers
		byStatus[status] = acc
	}

	result := BookingStats{
		ByStatus: make([]StatusStat, 0, len(model.BookingStatuses)),
		Monthly:  buildMonthly(monthRows, now, months),
	}

	// rows with a status outside the lifecycle are ignored so the status
	// counts always add up to the total
	for _, status := range model.BookingStatuses {
		row := byStatus[status]
		result.ByStatus = append(result.ByStatus, StatusStat{
			Status:  status,
			Count:   row.Count,
			Revenue: round2(row.Revenue),
		})
		result.Overall.TotalBookings += row.Count
		result.Overall.TotalRevenue += row.Revenue
		result.Overall.TotalTravelers += row.Travelers
	}
	result.Overall.TotalRevenue = round2(result.Overall.TotalRevenue)

	paid := result.Overall.TotalBookings - byStatus[model.BookingCancelled].Count
	if paid > 0 {
		result.Overall.AverageBookingValue = round2(result.Overall.TotalRevenue / float64(paid))
	}

	return result
}

func buildMonthly(rows []MonthRow, now time.Time, months int) []MonthlyStat {
	if months <= 0 {
		return []MonthlyStat{}
	}

	type key struct{ year, month int }
	window := make(map[key]*MonthlyStat, months)
	out := make([]MonthlyStat, months)

	start := MonthsWindowStart(now, months)
	for i := 0; i < months; i++ {
		m := start.AddDate(0, i, 0)
		out[i] = MonthlyStat{Year: m.Year(), Month: int(m.Month())}
		window[key{m.Year(), int(m.Month())}] = &out[i]
	}

	for _, row := range rows {
		if stat, ok := window[key{row.Year, row.Month}]; ok {
			stat.Count += row.Count
			stat.Revenue += row.Revenue
		}
	}

	for i := range out {
		out[i].Revenue = round2(out[i].Revenue)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// MonthsWindowStart is the first instant of the oldest month in a window of
// months ending with the month of now.
func MonthsWindowStart(now time.Time, months int) time.Time {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -(months - 1), 0)
}

type ReviewStatusRow struct {
	Status    string  `bson:"_id"`
	Count     int64   `bson:"count"`
	RatingSum float64 `bson:"rating_sum"`
}

type ReviewStatusStat struct {
	Status        model.ModerationStatus `json:"status"`
	Count         int64                  `json:"count"`
	AverageRating float64                `json:"average_rating"`
}

type ReviewStats struct {
	TotalReviews  int64              `json:"total_reviews"`
	AverageRating float64            `json:"average_rating"`
	ByStatus      []ReviewStatusStat `json:"by_status"`
}

func BuildReviewStats(rows []ReviewStatusRow) ReviewStats {
	byStatus := make(map[model.ModerationStatus]ReviewStatusRow, len(rows))
	for _, row := range rows {
		status := model.ModerationStatus(row.Status)
		acc := byStatus[status]
		acc.Count += row.Count
		acc.RatingSum += row.RatingSum
		byStatus[status] = acc
	}

	result := ReviewStats{ByStatus: make([]ReviewStatusStat, 0, len(model.ModerationStatuses))}
	var ratingSum float64
	for _, status := range model.ModerationStatuses {
		row := byStatus[status]
		stat := ReviewStatusStat{Status: status, Count: row.Count}
		if row.Count > 0 {
			stat.AverageRating = round2(row.RatingSum / float64(row.Count))
		}
		result.ByStatus = append(result.ByStatus, stat)
		result.TotalReviews += row.Count
		ratingSum += row.RatingSum
	}
	if result.TotalReviews > 0 {
		result.AverageRating = round2(ratingSum / float64(result.TotalReviews))
	}
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
