package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/bls"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
	"github.com/couchcryptid/public-data-proxy/internal/series"
)

const (
	// DefaultLaborStartYear is used when a range request omits startYear.
	DefaultLaborStartYear = 2000
	// DefaultLaborYearSpan is the widest range sent in one request.
	DefaultLaborYearSpan = 10
)

// LaborSource runs BLS queries.
type LaborSource interface {
	Fetch(ctx context.Context, q bls.Query) (bls.Response, error)
	Source() string
}

// LaborRequest selects series and either a year range or the latest n
// periods. Zero years take defaults.
type LaborRequest struct {
	SeriesIDs []string
	StartYear int
	EndYear   int
	Latest    int
}

// LaborResult is the merged BLS response.
type LaborResult struct {
	FetchedAt    time.Time          `json:"fetchedAt"`
	Source       string             `json:"source"`
	Series       []bls.Series       `json:"series"`
	ResponseTime *int               `json:"responseTime"`
	Message      []string           `json:"message"`
	Errors       []domain.UnitError `json:"errors,omitempty"`
}

// LaborSeries fetches BLS time series, splitting long ranges into chunks the
// API accepts and stitching them back together.
type LaborSeries struct {
	source  LaborSource
	span    int
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewLaborSeries creates the service. span <= 0 takes DefaultLaborYearSpan.
func NewLaborSeries(source LaborSource, span int, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *LaborSeries {
	if span <= 0 {
		span = DefaultLaborYearSpan
	}
	return &LaborSeries{source: source, span: span, clock: clock, metrics: metrics, logger: logger}
}

// Run executes req. A latest request is a single call; a range request is
// fetched chunk by chunk, strictly in sequence.
func (l *LaborSeries) Run(ctx context.Context, req LaborRequest) (LaborResult, error) {
	ids := dedupe(req.SeriesIDs)
	if len(ids) == 0 {
		return LaborResult{}, domain.Invalidf("At least one series ID is required.")
	}
	now := l.clock.Now().UTC()

	// Any non-zero latest selects the latest mode; negatives ask for one period.
	if req.Latest != 0 {
		resp, err := l.source.Fetch(ctx, bls.Query{SeriesIDs: ids, Latest: max(1, req.Latest)})
		if err != nil {
			l.metrics.BatchOutcomes.WithLabelValues("bls", fetch.Failed.String()).Inc()
			return LaborResult{}, err
		}
		l.metrics.BatchOutcomes.WithLabelValues("bls", fetch.Complete.String()).Inc()
		return LaborResult{
			FetchedAt:    now,
			Source:       l.source.Source(),
			Series:       resp.Series,
			ResponseTime: resp.ResponseTime,
			Message:      resp.Message,
		}, nil
	}

	start := req.StartYear
	if start == 0 {
		start = DefaultLaborStartYear
	}
	end := req.EndYear
	if end == 0 {
		end = now.Year()
	}
	if start > end {
		return LaborResult{}, domain.Invalidf("startYear must not be after endYear.")
	}

	var (
		chunks [][]bls.Series
		errs   []domain.UnitError
	)
	for _, c := range yearChunks(start, end, l.span) {
		if err := ctx.Err(); err != nil {
			return LaborResult{}, err
		}
		unit := fmt.Sprintf("%d-%d", c[0], c[1])
		resp, err := l.source.Fetch(ctx, bls.Query{SeriesIDs: ids, StartYear: c[0], EndYear: c[1]})
		if err != nil {
			l.logger.Warn("bls chunk failed", "unit", unit, "error", err)
			errs = append(errs, domain.NewUnitError(unit, err))
			continue
		}
		chunks = append(chunks, resp.Series)
	}

	outcome := fetch.Classify(len(chunks), len(errs))
	l.metrics.BatchOutcomes.WithLabelValues("bls", outcome.String()).Inc()
	if len(chunks) == 0 {
		return LaborResult{}, &domain.BatchError{
			Status:  http.StatusBadGateway,
			Message: "BLS data is unavailable for the requested range.",
			Errors:  errs,
		}
	}

	return LaborResult{
		FetchedAt: now,
		Source:    l.source.Source(),
		Series:    mergeLabor(ids, chunks),
		Message:   []string{},
		Errors:    errs,
	}, nil
}

// yearChunks splits [start, end] into inclusive spans of at most span years.
func yearChunks(start, end, span int) [][2]int {
	var out [][2]int
	for from := start; from <= end; from += span {
		out = append(out, [2]int{from, min(from+span-1, end)})
	}
	return out
}

// mergeLabor merges chunked replies per series ID. Observations are keyed by
// year and period, first seen wins, newest first. Series appear in request
// order; IDs the API never returned are omitted.
func mergeLabor(ids []string, chunks [][]bls.Series) []bls.Series {
	byID := make(map[string][][]bls.Observation)
	for _, chunk := range chunks {
		for _, s := range chunk {
			byID[s.SeriesID] = append(byID[s.SeriesID], s.Data)
		}
	}

	out := make([]bls.Series, 0, len(ids))
	for _, id := range ids {
		data, ok := byID[id]
		if !ok {
			continue
		}
		merged := series.Merge(data,
			func(o bls.Observation) string { return o.Year + "-" + o.Period },
			func(a, b bls.Observation) bool {
				if a.Year != b.Year {
					return a.Year < b.Year
				}
				return a.Period < b.Period
			},
			series.Descending)
		out = append(out, bls.Series{SeriesID: id, Data: merged})
	}
	return out
}

// dedupe trims, uppercases and removes repeated identifiers, keeping order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
