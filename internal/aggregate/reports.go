package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/spc"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

// geocodeConcurrency caps in-flight geocoding calls per request.
const geocodeConcurrency = 4

// ReportSource reads one day's storm report file.
type ReportSource interface {
	FetchDailyReport(ctx context.Context, date time.Time) (spc.DailyReport, error)
}

// ReportsResult is one day's storm reports.
type ReportsResult struct {
	FetchedAt     time.Time            `json:"fetchedAt"`
	Date          string               `json:"date"`
	RequestedDate string               `json:"requestedDate"`
	Source        string               `json:"source"`
	Summary       domain.ReportSummary `json:"summary"`
	MappedCounts  domain.ReportSummary `json:"mappedCounts"`
	Reports       domain.Reports       `json:"reports"`
}

// StormReports parses a day's report file and places each report on a map,
// geocoding the ones that lack coordinates when a geocoder is configured.
type StormReports struct {
	source   ReportSource
	geocoder domain.Geocoder
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewStormReports creates the service. geocoder may be nil.
func NewStormReports(source ReportSource, geocoder domain.Geocoder, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *StormReports {
	return &StormReports{source: source, geocoder: geocoder, clock: clock, metrics: metrics, logger: logger}
}

// Run fetches reports for date (YYYY-MM-DD, empty for today). When date is
// today and its file is not up yet, the previous day is served instead.
func (s *StormReports) Run(ctx context.Context, date string) (ReportsResult, error) {
	now := s.clock.Now().UTC()
	today := datewindow.Date(now)

	target := today
	if date != "" {
		d, err := datewindow.ParseISO(date)
		if err != nil {
			return ReportsResult{}, domain.Invalidf("Invalid date format. Use YYYY-MM-DD.")
		}
		target = d
	}
	requested := datewindow.FormatISO(target)

	candidates := []time.Time{target}
	if target.Equal(today) {
		candidates = append(candidates, datewindow.AddDays(today, -1))
	}

	var report spc.DailyReport
	var err error
	for _, day := range candidates {
		report, err = s.source.FetchDailyReport(ctx, day)
		if !errors.Is(err, domain.ErrNotYetPublished) {
			break
		}
	}
	if err != nil {
		s.metrics.BatchOutcomes.WithLabelValues("storm_reports", fetch.Failed.String()).Inc()
		if errors.Is(err, domain.ErrNotYetPublished) {
			return ReportsResult{}, &domain.BatchError{
				Status:  http.StatusNotFound,
				Message: "No SPC storm reports were found for the requested date or the previous day.",
				Errors:  []domain.UnitError{{Unit: requested, Status: http.StatusNotFound, Message: "Dataset not yet available"}},
			}
		}
		return ReportsResult{}, err
	}

	iso := datewindow.FormatISO(report.Date)
	reports := domain.ParseStormReports(report.Text, iso)
	summary := reports.Summary()
	if s.geocoder != nil {
		s.enrich(ctx, &reports)
	}
	mapped := reports.Mapped()

	s.metrics.BatchOutcomes.WithLabelValues("storm_reports", fetch.Complete.String()).Inc()
	s.logger.Info("storm reports served",
		"date", iso,
		"requested", requested,
		"reports", summary.Tornadoes+summary.Wind+summary.Hail,
	)

	return ReportsResult{
		FetchedAt:     now,
		Date:          iso,
		RequestedDate: requested,
		Source:        report.URL,
		Summary:       summary,
		MappedCounts:  mapped.Summary(),
		Reports:       mapped,
	}, nil
}

// enrich geocodes reports missing coordinates in place.
func (s *StormReports) enrich(ctx context.Context, reports *domain.Reports) {
	var pending []*domain.StormReport
	reports.Each(func(r *domain.StormReport) {
		if !r.HasCoordinates() {
			pending = append(pending, r)
		}
	})

	results := fetch.Map(ctx, pending, geocodeConcurrency, func(ctx context.Context, r *domain.StormReport) (domain.StormReport, error) {
		return domain.EnrichWithGeocoding(ctx, *r, s.geocoder, s.logger), nil
	})
	for _, res := range results {
		if res.OK() {
			*res.Item = res.Value
		}
	}
}
