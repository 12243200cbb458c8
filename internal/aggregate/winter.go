package aggregate

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/openmeteo"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

const (
	// DefaultWinterBatchSize is the number of grid points fetched at once.
	DefaultWinterBatchSize = 10
	// DefaultWinterBatchDelay separates consecutive batches.
	DefaultWinterBatchDelay = 120 * time.Millisecond

	// recentWindow selects the forecast API for end dates this close to now.
	recentWindow = 7 * 24 * time.Hour

	winterTimezone = "America/Chicago"
	cmToInches     = 0.3937
	maxErrorDetail = 5
)

// WeatherSource reads hourly weather for one location.
type WeatherSource interface {
	Hourly(ctx context.Context, q openmeteo.Query) (openmeteo.Hourly, error)
}

// HourlySeries is the hourly weather at one grid point. Snowfall is in
// inches, with missing hours reported as zero.
type HourlySeries struct {
	Time        []string   `json:"time"`
	Temperature []*float64 `json:"temperature"`
	Snowfall    []float64  `json:"snowfall"`
}

// LocationWeather is one grid point's result. Lat and Lon are the cell
// Open-Meteo served, not the requested point.
type LocationWeather struct {
	Name   string       `json:"name"`
	State  string       `json:"state"`
	Lat    float64      `json:"lat"`
	Lon    float64      `json:"lon"`
	Hourly HourlySeries `json:"hourly"`
}

// WinterResult is the grid response.
type WinterResult struct {
	FetchedAt     time.Time         `json:"fetchedAt"`
	StartDate     string            `json:"startDate"`
	EndDate       string            `json:"endDate"`
	APIUsed       openmeteo.API     `json:"apiUsed"`
	LocationCount int               `json:"locationCount"`
	FailedCount   int               `json:"failedCount"`
	Locations     []LocationWeather `json:"locations"`
}

// Recent reports whether the forecast API served the request.
func (r WinterResult) Recent() bool { return r.APIUsed == openmeteo.Forecast }

// WinterConfig paces the grid fetch.
type WinterConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

// WinterStorm samples temperature and snowfall across a fixed grid.
type WinterStorm struct {
	source    WeatherSource
	locations []openmeteo.Location
	cfg       WinterConfig
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewWinterStorm creates the service over the default grid. Zero config
// fields take defaults.
func NewWinterStorm(source WeatherSource, cfg WinterConfig, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *WinterStorm {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultWinterBatchSize
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = DefaultWinterBatchDelay
	}
	return &WinterStorm{source: source, locations: openmeteo.GridLocations, cfg: cfg, clock: clock, metrics: metrics, logger: logger}
}

// Run fetches every grid point for [start, end]. Both dates must be
// YYYY-MM-DD with start on or before end.
func (w *WinterStorm) Run(ctx context.Context, start, end string) (WinterResult, error) {
	from, errFrom := datewindow.ParseISO(start)
	to, errTo := datewindow.ParseISO(end)
	if errFrom != nil || errTo != nil {
		return WinterResult{}, domain.Invalidf("start_date and end_date query parameters are required (YYYY-MM-DD format).")
	}
	if from.After(to) {
		return WinterResult{}, domain.Invalidf("start_date must be before end_date.")
	}

	now := w.clock.Now().UTC()
	api := openmeteo.Archive
	if now.Sub(to) < recentWindow {
		api = openmeteo.Forecast
	}

	results := fetch.Batched(ctx, w.locations, w.cfg.BatchSize, w.cfg.BatchDelay, func(ctx context.Context, loc openmeteo.Location) (LocationWeather, error) {
		h, err := w.source.Hourly(ctx, openmeteo.Query{
			Location:   loc,
			Start:      start,
			End:        end,
			API:        api,
			Timezone:   winterTimezone,
			Fahrenheit: true,
		})
		if err != nil {
			return LocationWeather{}, err
		}
		return LocationWeather{
			Name:  loc.Name,
			State: loc.State,
			Lat:   h.Latitude,
			Lon:   h.Longitude,
			Hourly: HourlySeries{
				Time:        h.Time,
				Temperature: h.Temperature,
				Snowfall:    snowInches(h.Snowfall),
			},
		}, nil
	})

	ok, failed := fetch.Partition(results)
	outcome := fetch.Classify(len(ok), len(failed))
	w.metrics.BatchOutcomes.WithLabelValues("winter_storm", outcome.String()).Inc()

	if len(ok) == 0 {
		errs := make([]domain.UnitError, 0, maxErrorDetail)
		for _, r := range failed[:min(len(failed), maxErrorDetail)] {
			errs = append(errs, domain.NewUnitError(r.Item.Name, r.Err))
		}
		w.logger.Error("winter storm grid unavailable", "failed", len(failed))
		return WinterResult{}, &domain.BatchError{
			Status:  http.StatusBadGateway,
			Message: "Failed to retrieve weather data for any location.",
			Errors:  errs,
		}
	}
	for _, r := range failed {
		w.logger.Warn("grid location failed", "location", r.Item.Name, "state", r.Item.State, "error", r.Err)
	}

	locations := make([]LocationWeather, len(ok))
	for i, r := range ok {
		locations[i] = r.Value
	}
	return WinterResult{
		FetchedAt:     now,
		StartDate:     start,
		EndDate:       end,
		APIUsed:       api,
		LocationCount: len(ok),
		FailedCount:   len(failed),
		Locations:     locations,
	}, nil
}

// snowInches converts centimetres to inches at three decimals.
func snowInches(cm []*float64) []float64 {
	out := make([]float64, len(cm))
	for i, v := range cm {
		if v != nil {
			out[i] = math.Round(*v*cmToInches*1000) / 1000
		}
	}
	return out
}
