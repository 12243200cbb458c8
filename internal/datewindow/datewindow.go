// Package datewindow provides calendar arithmetic over UTC dates for return
// windows and range calculations. All results are normalized to midnight UTC.
package datewindow

import (
	"fmt"
	"time"
)

// ISOLayout is the calendar-date layout used on every wire format.
const ISOLayout = "2006-01-02"

// Date returns t's calendar date at midnight UTC.
func Date(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayOfYear returns the 1-based ordinal of (year, month, day).
func DayOfYear(year, month, day int) int {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).YearDay()
}

// FromDayOfYear is the inverse of DayOfYear.
func FromDayOfYear(year, dayOfYear int) time.Time {
	return time.Date(year, time.January, dayOfYear, 0, 0, 0, 0, time.UTC)
}

// ISOFromDayOfYear formats FromDayOfYear as YYYY-MM-DD.
func ISOFromDayOfYear(year, dayOfYear int) string {
	return FromDayOfYear(year, dayOfYear).Format(ISOLayout)
}

// ShiftMonths moves t back n months, clamping the day to the last valid day
// of the target month (Mar 31 minus 1 month is Feb 28/29).
func ShiftMonths(t time.Time, n int) time.Time {
	t = t.UTC()
	first := time.Date(t.Year(), t.Month()-time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := min(t.Day(), daysIn(first.Year(), first.Month()))
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// ShiftDays moves t back n days.
func ShiftDays(t time.Time, n int) time.Time {
	return AddDays(t, -n)
}

// AddDays moves t forward n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.UTC().AddDate(0, 0, n)
}

// StartOfYear returns Jan 1 00:00 UTC of t's year.
func StartOfYear(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// EndOfYear returns Dec 31 00:00 UTC of year.
func EndOfYear(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// EachDay lists every calendar date in [from, to]. It returns nil when from is after to.
func EachDay(from, to time.Time) []time.Time {
	from, to = Date(from), Date(to)
	if from.After(to) {
		return nil
	}
	days := make([]time.Time, 0, int(to.Sub(from).Hours()/24)+1)
	for d := from; !d.After(to); d = AddDays(d, 1) {
		days = append(days, d)
	}
	return days
}

// FormatISO formats t's UTC calendar date as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// ParseISO parses a strict YYYY-MM-DD date.
func ParseISO(s string) (time.Time, error) {
	t, err := time.Parse(ISOLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
