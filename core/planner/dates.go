package planner

import (
	"time"

	"github.com/trezcool/cuaderno/core"
)

// NowFunc is mockable in tests.
var NowFunc = time.Now

// ParseDate parses an ISO calendar date as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(core.DateLayout, s)
}

func FormatDate(t time.Time) string {
	return t.Format(core.DateLayout)
}

// Today is the current calendar date (local clock), as a UTC midnight.
func Today() time.Time {
	now := NowFunc()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing d.
func WeekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

// DayKey returns the schedule day key of d, or "" on weekends.
func DayKey(d time.Time) string {
	wd := int(d.Weekday())
	if wd < 1 || wd > 5 {
		return ""
	}
	return Days[wd-1]
}

// dateRange is a closed calendar range; zero bounds are open.
type dateRange struct {
	start, end time.Time
}

func (r dateRange) contains(d time.Time) bool {
	if !r.start.IsZero() && d.Before(r.start) {
		return false
	}
	if !r.end.IsZero() && d.After(r.end) {
		return false
	}
	return true
}

// parseOptionalDate returns the zero time for blank or invalid dates.
func parseOptionalDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return d
}
