package stats

import (
	"time"

	"github.com/ramonehamilton/bulkbuddy/internal/storage/models"
)

// TimeRange represents a half-open [Start, End) period.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// MonthRangeFrom calculates the start and end of a month with an offset from a reference time.
// offset = 0 means the month containing referenceTime, -1 means previous month, etc.
func MonthRangeFrom(referenceTime time.Time, offset int) TimeRange {
	currentMonthStart := time.Date(referenceTime.Year(), referenceTime.Month(), 1, 0, 0, 0, 0, referenceTime.Location())

	monthStart := currentMonthStart.AddDate(0, offset, 0)
	monthEnd := monthStart.AddDate(0, 1, 0)

	return TimeRange{
		Start: monthStart,
		End:   monthEnd,
	}
}

// GrowthPoint is the quantity added to a collection during one month.
type GrowthPoint struct {
	Month    string `json:"month"` // YYYY-MM
	Added    int    `json:"added"`
	Distinct int    `json:"distinct"`
}

// Growth buckets collection entries by the month they were acquired, for
// the given number of months ending with the month containing now.
// Entries without an acquired date use their creation time.
func Growth(entries []*models.CollectionEntry, months int, now time.Time) []GrowthPoint {
	if months <= 0 {
		return []GrowthPoint{}
	}

	points := make([]GrowthPoint, months)
	ranges := make([]TimeRange, months)
	for i := 0; i < months; i++ {
		r := MonthRangeFrom(now, i-months+1)
		ranges[i] = r
		points[i].Month = r.Start.Format("2006-01")
	}

	for _, e := range entries {
		if e == nil {
			continue
		}
		at := e.CreatedAt
		if e.AcquiredDate != nil {
			at = *e.AcquiredDate
		}
		at = at.In(now.Location())
		for i, r := range ranges {
			if r.Contains(at) {
				points[i].Added += e.Quantity
				points[i].Distinct++
				break
			}
		}
	}

	return points
}
