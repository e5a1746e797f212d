package core

import (
	"math"
	"time"
)

// DateLayout is the canonical calendar-date rendering used for grouping keys.
const DateLayout = "2006-01-02"

// DaysBetween returns the whole-day difference to - from. Partial days
// round toward negative infinity, so a discharge 23 hours before admission
// is -1 day. Negative results are returned as-is.
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// DateKey renders t as a calendar-date grouping key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDateKey is the inverse of DateKey.
func ParseDateKey(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
