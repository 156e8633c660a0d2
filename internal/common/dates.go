package common

import (
	"errors"
	"time"
)

// DayLayout is the calendar-date format used on the wire (YYYY-MM-DD).
const DayLayout = "2006-01-02"

var ErrInvalidDay = errors.New("invalid date format; use YYYY-MM-DD")

// Day truncates t to midnight UTC of its calendar date.
// The calendar date is taken in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDay
	}
	return t, nil
}

// FormatDay renders t as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// DaysBetween returns every calendar day from 'from' to 'to' inclusive.
func DaysBetween(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	if to.Before(from) {
		return nil
	}
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
