package analytics

import (
	"time"

	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
)

// Point is one observation of a price series. Value may be nil.
type Point struct {
	Date  time.Time
	Value *float64
}

// Window is a calendar lookback: N days, N months, or year-to-date.
type Window struct {
	Name      string
	Days      int
	Months    int
	YearStart bool
}

// Target returns the reference date for a series whose latest point is at latest.
func (w Window) Target(latest time.Time) time.Time {
	switch {
	case w.YearStart:
		return datewindow.StartOfYear(latest)
	case w.Months > 0:
		return datewindow.ShiftMonths(latest, w.Months)
	default:
		return datewindow.ShiftDays(latest, w.Days)
	}
}

// DefaultWindows are the return windows reported on the dashboard, in display order.
var DefaultWindows = []Window{
	{Name: "1d", Days: 1},
	{Name: "1w", Days: 7},
	{Name: "1m", Months: 1},
	{Name: "3m", Months: 3},
	{Name: "6m", Months: 6},
	{Name: "ytd", YearStart: true},
	{Name: "12m", Months: 12},
	{Name: "24m", Months: 24},
}

// CalendarReturn returns latest/reference - 1, where reference is the most
// recent point on or before the window's target date. It is nil when the
// series has fewer than two points, when no earlier point qualifies, or when
// either value is missing or the reference is zero.
func CalendarReturn(points []Point, w Window) *float64 {
	if len(points) < 2 {
		return nil
	}
	last := len(points) - 1
	latest := points[last]
	if latest.Value == nil {
		return nil
	}

	target := w.Target(latest.Date)
	ref := -1
	for i := last; i >= 0; i-- {
		if !points[i].Date.After(target) {
			ref = i
			break
		}
	}
	if ref < 0 || ref == last {
		return nil
	}
	start := points[ref].Value
	if start == nil || *start == 0 {
		return nil
	}
	return finite(*latest.Value / *start - 1)
}

// Returns computes CalendarReturn for each window, keyed by window name.
func Returns(points []Point, windows []Window) map[string]*float64 {
	out := make(map[string]*float64, len(windows))
	for _, w := range windows {
		out[w.Name] = CalendarReturn(points, w)
	}
	return out
}
