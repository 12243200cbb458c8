package yearcache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// countingFetch returns one report per day and records the requested ranges.
type countingFetch struct {
	mu     sync.Mutex
	calls  int
	ranges [][2]string
}

func (f *countingFetch) fetch(_ context.Context, from, to time.Time) ([]domain.DailyCount, error) {
	f.mu.Lock()
	f.calls++
	f.ranges = append(f.ranges, [2]string{datewindow.FormatISO(from), datewindow.FormatISO(to)})
	f.mu.Unlock()

	var out []domain.DailyCount
	for _, d := range datewindow.EachDay(from, to) {
		out = append(out, domain.DailyCount{
			DayOfYear: d.YearDay(),
			Date:      datewindow.FormatISO(d),
			Daily:     1,
		})
	}
	return out, nil
}

func TestRefresh_MissThenHit(t *testing.T) {
	c := New("spc-daily")
	f := &countingFetch{}
	end := day(2025, time.March, 1)

	ys, lookup, err := c.Refresh(context.Background(), end, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, Miss, lookup)
	assert.Len(t, ys.Series, 60)
	assert.Equal(t, 60, ys.TotalReports)
	assert.Equal(t, "spc-daily", ys.Source)
	assert.Nil(t, ys.Injuries)

	// A second call for the same end date is served without fetching.
	again, lookup, err := c.Refresh(context.Background(), end, f.fetch)
	require.NoError(t, err)
	assert.Equal(t, Hit, lookup)
	assert.Equal(t, 1, f.calls)
	assert.Equal(t, ys, again)
}

func TestRefresh_PartialFetchesOnlyDelta(t *testing.T) {
	c := New("")
	f := &countingFetch{}

	_, _, err := c.Refresh(context.Background(), day(2025, time.March, 1), f.fetch)
	require.NoError(t, err)

	ys, lookup, err := c.Refresh(context.Background(), day(2025, time.March, 4), f.fetch)
	require.NoError(t, err)

	assert.Equal(t, Partial, lookup)
	assert.Equal(t, [2]string{"2025-03-02", "2025-03-04"}, f.ranges[1])
	assert.Len(t, ys.Series, 63)
	assert.Equal(t, 63, ys.Latest().Cumulative)
	assert.Equal(t, "2025-03-04", *ys.LastReportDate)

	entry, ok := c.Get(2025)
	require.True(t, ok)
	assert.Equal(t, day(2025, time.March, 4), entry.LastDate)
}

func TestRefresh_FetchErrorLeavesCacheUntouched(t *testing.T) {
	c := New("")
	boom := errors.New("spc down")

	_, lookup, err := c.Refresh(context.Background(), day(2025, time.March, 1),
		func(context.Context, time.Time, time.Time) ([]domain.DailyCount, error) { return nil, boom })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, Miss, lookup)
	_, ok := c.Get(2025)
	assert.False(t, ok)
}

func TestExtend_NeverShrinks(t *testing.T) {
	c := New("")
	c.Extend(2025, []domain.DailyCount{
		{DayOfYear: 1, Date: "2025-01-01", Daily: 2},
		{DayOfYear: 2, Date: "2025-01-02", Daily: 3},
	}, day(2025, time.January, 2))

	// An older last date is ignored.
	ys := c.Extend(2025, nil, day(2025, time.January, 1))
	assert.Len(t, ys.Series, 2)
	assert.Equal(t, 5, ys.TotalReports)
}

func TestExtend_IgnoresDaysAlreadyCovered(t *testing.T) {
	c := New("")
	c.Extend(2025, []domain.DailyCount{{DayOfYear: 1, Date: "2025-01-01", Daily: 2}}, day(2025, time.January, 1))

	ys := c.Extend(2025, []domain.DailyCount{
		{DayOfYear: 1, Date: "2025-01-01", Daily: 99},
		{DayOfYear: 2, Date: "2025-01-02", Daily: 1},
	}, day(2025, time.January, 2))

	require.Len(t, ys.Series, 2)
	assert.Equal(t, 2, ys.Series[0].Daily)
	assert.Equal(t, 3, ys.Series[1].Cumulative)
}

func TestGet_ReturnsCopy(t *testing.T) {
	c := New("")
	c.Extend(2025, []domain.DailyCount{{DayOfYear: 1, Date: "2025-01-01", Daily: 1}}, day(2025, time.January, 1))

	e, _ := c.Get(2025)
	e.Data.Series[0].Daily = 42

	again, _ := c.Get(2025)
	assert.Equal(t, 1, again.Data.Series[0].Daily)
}

func TestRefresh_ConcurrentCallersAgree(t *testing.T) {
	c := New("")
	f := &countingFetch{}
	end := day(2025, time.February, 10)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ys, _, err := c.Refresh(context.Background(), end, f.fetch)
			if err == nil {
				results[i] = ys.TotalReports
			}
		}(i)
	}
	wg.Wait()

	for _, total := range results {
		assert.Equal(t, 41, total)
	}
}
