// Package yearcache holds the running year's cumulative tornado series so
// each refresh only fetches the days reported since the last one.
package yearcache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/series"
)

// Lookup describes how a Refresh was served.
type Lookup string

const (
	Hit     Lookup = "hit"
	Partial Lookup = "partial"
	Miss    Lookup = "miss"
)

// Entry is the cached state of one year.
type Entry struct {
	LastDate time.Time
	Data     domain.YearSeries
}

// DeltaFunc fetches per-day counts for every date in [from, to]. Returned
// entries need DayOfYear, Date and Daily; cumulative values are recomputed.
type DeltaFunc func(ctx context.Context, from, to time.Time) ([]domain.DailyCount, error)

// Cache maps a year to its cumulative series. It is safe for concurrent use.
// The lock is never held across a fetch: two overlapping refreshes may fetch
// the same days, and Extend keeps whichever entries landed first.
type Cache struct {
	mu      sync.Mutex
	entries map[int]Entry
	source  string
}

// New returns an empty cache. source is recorded on every series it builds.
func New(source string) *Cache {
	return &Cache{entries: make(map[int]Entry), source: source}
}

// Get returns a copy of the entry for year.
func (c *Cache) Get(year int) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[year]
	if !ok {
		return Entry{}, false
	}
	return clone(e), true
}

// Extend appends days after the cached last date and advances it to
// lastDate. Days on or before the cached last date are ignored, and a
// lastDate that is not later than the cached one leaves the entry unchanged,
// so the series never shrinks.
func (c *Cache) Extend(year int, days []domain.DailyCount, lastDate time.Time) domain.YearSeries {
	c.mu.Lock()
	defer c.mu.Unlock()

	lastDate = datewindow.Date(lastDate)
	cur, ok := c.entries[year]
	if ok && !lastDate.After(cur.LastDate) {
		return clone(cur).Data
	}

	var existing []domain.DailyCount
	if ok {
		existing = cur.Data.Series
		cutoff := datewindow.FormatISO(cur.LastDate)
		fresh := make([]domain.DailyCount, 0, len(days))
		for _, d := range days {
			if d.Date > cutoff {
				fresh = append(fresh, d)
			}
		}
		days = fresh
	}

	merged := series.Merge([][]domain.DailyCount{existing, days},
		func(d domain.DailyCount) string { return d.Date },
		func(a, b domain.DailyCount) bool { return a.Date < b.Date },
		series.Ascending)
	data := domain.NewYearSeries(year, domain.Cumulate(merged), false)
	data.Source = c.source

	entry := Entry{LastDate: lastDate, Data: data}
	c.entries[year] = entry
	return clone(entry).Data
}

// Refresh returns the series for end's year covering Jan 1 through end,
// fetching only the days after the cached last date. Only the year
// containing end is cacheable; callers pass today's date.
func (c *Cache) Refresh(ctx context.Context, end time.Time, fetch DeltaFunc) (domain.YearSeries, Lookup, error) {
	end = datewindow.Date(end)
	year := end.Year()

	start := datewindow.StartOfYear(end)
	lookup := Miss
	if e, ok := c.Get(year); ok {
		if !e.LastDate.Before(end) {
			return e.Data, Hit, nil
		}
		start = datewindow.AddDays(e.LastDate, 1)
		lookup = Partial
	}

	days, err := fetch(ctx, start, end)
	if err != nil {
		return domain.YearSeries{}, lookup, fmt.Errorf("refresh %d from %s: %w", year, datewindow.FormatISO(start), err)
	}
	return c.Extend(year, days, end), lookup, nil
}

func clone(e Entry) Entry {
	out := e
	out.Data.Series = append([]domain.DailyCount(nil), e.Data.Series...)
	if out.Data.Series == nil {
		out.Data.Series = []domain.DailyCount{}
	}
	return out
}
