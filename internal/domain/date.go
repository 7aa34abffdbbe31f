package domain

import "time"

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// ParseDate parses a YYYY-MM-DD calendar date into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateOf drops the time-of-day component, keeping the calendar date of t in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
