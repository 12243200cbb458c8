package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
	"github.com/couchcryptid/public-data-proxy/internal/yearcache"
)

const (
	// DefaultTornadoStartYear is the earliest year served.
	DefaultTornadoStartYear = 2000
	// DefaultTornadoMaxSpan bounds currentYear - startYear.
	DefaultTornadoMaxSpan = 40

	tornadoNotes = "Data represents preliminary tornado reports as published by SPC. Counts are cumulative by day of year."
)

// TornadoSource reads SPC tornado data.
type TornadoSource interface {
	FetchTornadoYear(ctx context.Context, year int, byState bool) (domain.YearSeries, error)
	DailyCounts(ctx context.Context, from, to time.Time) ([]domain.DailyCount, error)
	TornadoYearURL(year int) string
}

// TornadoRequest selects the years to compare. Zero values take defaults:
// StartYear the configured floor, CurrentYear the clock's UTC year.
type TornadoRequest struct {
	StartYear   int
	CurrentYear int
	ByState     bool
}

// TornadoResult is the multi-year cumulative comparison.
type TornadoResult struct {
	FetchedAt          time.Time            `json:"fetchedAt"`
	Source             *string              `json:"source"`
	StartYear          int                  `json:"startYear"`
	EndYear            int                  `json:"endYear"`
	CurrentYear        int                  `json:"currentYear"`
	ComparisonYear     *int                 `json:"comparisonYear"`
	CurrentLatestPoint *domain.DailyCount   `json:"currentLatestPoint"`
	EnsembleStats      domain.EnsembleStats `json:"ensembleStats"`
	Years              []domain.YearSeries  `json:"years"`
	MissingYears       []domain.UnitError   `json:"missingYears"`
	Notes              string               `json:"notes"`
}

// Current returns the series for the current year, if it was built.
func (r TornadoResult) Current() (domain.YearSeries, bool) {
	for _, y := range r.Years {
		if y.Year == r.CurrentYear {
			return y, true
		}
	}
	return domain.YearSeries{}, false
}

// TornadoConfig bounds the requested range.
type TornadoConfig struct {
	StartYear int
	MaxSpan   int
}

// TornadoTrends builds cumulative tornado counts per year. Completed years
// come from the annual datasets; the running year, until its annual file
// exists, is assembled from daily report files through the year cache.
type TornadoTrends struct {
	source  TornadoSource
	cache   *yearcache.Cache
	cfg     TornadoConfig
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTornadoTrends creates the service. Zero config fields take defaults.
func NewTornadoTrends(source TornadoSource, cache *yearcache.Cache, cfg TornadoConfig, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *TornadoTrends {
	if cfg.StartYear == 0 {
		cfg.StartYear = DefaultTornadoStartYear
	}
	if cfg.MaxSpan == 0 {
		cfg.MaxSpan = DefaultTornadoMaxSpan
	}
	return &TornadoTrends{source: source, cache: cache, cfg: cfg, clock: clock, metrics: metrics, logger: logger}
}

// Run fetches every year in the requested range.
func (t *TornadoTrends) Run(ctx context.Context, req TornadoRequest) (TornadoResult, error) {
	now := t.clock.Now().UTC()
	today := datewindow.Date(now)

	endYear := req.CurrentYear
	if endYear == 0 {
		endYear = today.Year()
	}
	startYear := max(req.StartYear, t.cfg.StartYear)
	if endYear-startYear > t.cfg.MaxSpan {
		return TornadoResult{}, domain.Invalidf("Requested range is too wide. Maximum span is %d years.", t.cfg.MaxSpan)
	}

	var years []domain.YearSeries
	missing := []domain.UnitError{}

	for _, year := range yearRange(startYear, endYear) {
		ys, err := t.source.FetchTornadoYear(ctx, year, req.ByState)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return TornadoResult{}, ctxErr
			}
			t.logger.Warn("tornado dataset unavailable", "year", year, "error", err)
			missing = append(missing, yearError(year, err))
			continue
		}
		if len(ys.Series) > 0 {
			years = append(years, ys)
		}
	}

	if !hasYear(years, endYear) && endYear == today.Year() {
		ys, err := t.refreshCurrentYear(ctx, today)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return TornadoResult{}, ctxErr
			}
			t.logger.Error("current year refresh failed", "year", endYear, "error", err)
			missing = append(missing, yearError(endYear, err))
		case len(ys.Series) > 0:
			years = append(years, ys)
		}
	}

	outcome := fetch.Classify(len(years), len(missing))
	t.metrics.BatchOutcomes.WithLabelValues("tornado_trends", outcome.String()).Inc()

	if len(years) == 0 {
		return TornadoResult{}, &domain.BatchError{
			Status:  http.StatusNotFound,
			Message: "No tornado history datasets were available for the requested range.",
			Errors:  missing,
		}
	}

	sort.Slice(years, func(i, j int) bool { return years[i].Year < years[j].Year })

	res := TornadoResult{
		FetchedAt:    now,
		StartYear:    startYear,
		EndYear:      endYear,
		CurrentYear:  endYear,
		Years:        years,
		MissingYears: missing,
		Notes:        tornadoNotes,
	}

	comparison := 0
	if hasYear(years, endYear-1) {
		comparison = endYear - 1
		res.ComparisonYear = &comparison
	}

	current, ok := res.Current()
	if !ok {
		current = years[len(years)-1]
	}
	res.CurrentLatestPoint = current.Latest()
	res.EnsembleStats = domain.ComputeEnsembleStats(years, endYear, comparison)

	source := current.Source
	if source == "" {
		source = t.source.TornadoYearURL(current.Year)
	}
	res.Source = &source
	return res, nil
}

// refreshCurrentYear extends the cached running-year series through today.
func (t *TornadoTrends) refreshCurrentYear(ctx context.Context, today time.Time) (domain.YearSeries, error) {
	delta := func(ctx context.Context, from, to time.Time) ([]domain.DailyCount, error) {
		days, err := t.source.DailyCounts(ctx, from, to)
		if err != nil {
			return nil, err
		}
		t.metrics.CacheDays.Add(float64(len(days)))
		return days, nil
	}

	ys, lookup, err := t.cache.Refresh(ctx, today, delta)
	t.metrics.CacheLookups.WithLabelValues(string(lookup)).Inc()
	if err != nil {
		return domain.YearSeries{}, err
	}
	t.logger.Debug("current year series refreshed",
		"year", ys.Year,
		"lookup", lookup,
		"total_reports", ys.TotalReports,
	)
	return ys, nil
}

// yearRange lists years from start to end inclusive, counting down when
// start is after end.
func yearRange(start, end int) []int {
	step := 1
	if start > end {
		step = -1
	}
	var out []int
	for y := start; ; y += step {
		out = append(out, y)
		if y == end {
			return out
		}
	}
}

func hasYear(years []domain.YearSeries, year int) bool {
	for _, y := range years {
		if y.Year == year {
			return true
		}
	}
	return false
}

func yearError(year int, err error) domain.UnitError {
	ue := domain.NewUnitError("", err)
	ue.Year = year
	// Parse failures and outages on a history year are reported as 500.
	if !errors.Is(err, domain.ErrNotYetPublished) && ue.Status == http.StatusBadGateway {
		ue.Status = http.StatusInternalServerError
	}
	return ue
}
