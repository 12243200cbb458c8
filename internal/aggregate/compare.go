package aggregate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/openmeteo"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

const (
	defaultCompareInterval = 6
	compareBatchSize       = 5
)

// CompareRequest asks for a stepped comparison of several locations.
type CompareRequest struct {
	Start         string               `json:"start"`
	End           string               `json:"end"`
	IntervalHours int                  `json:"intervalHours"`
	Locations     []openmeteo.Location `json:"locations"`
}

// CompareStep aggregates one interval at one location. Snowfall is in the
// provider's unit (cm).
type CompareStep struct {
	Time               string   `json:"time"`
	AvgTempC           *float64 `json:"avgTempC"`
	SnowfallStep       float64  `json:"snowfallStep"`
	SnowfallCumulative float64  `json:"snowfallCumulative"`
}

// LocationSummary is one location's stepped series and totals.
type LocationSummary struct {
	ID                 string        `json:"id,omitempty"`
	Name               string        `json:"name"`
	Lat                float64       `json:"lat"`
	Lon                float64       `json:"lon"`
	TotalSnowfall      float64       `json:"totalSnowfallMm"`
	BelowFreezingHours int           `json:"belowFreezingHours"`
	AvgTempC           *float64      `json:"avgTempC"`
	Steps              []CompareStep `json:"steps"`
}

// EventStep lines up one interval across every location, in request order.
type EventStep struct {
	Time                  string     `json:"time"`
	TempC                 []*float64 `json:"tempC"`
	SnowfallCumulative    []*float64 `json:"snowfallCumulative"`
	AvgTempC              float64    `json:"avgTempC"`
	AvgSnowfallCumulative float64    `json:"avgSnowfallCumulative"`
}

// CompareResult is the stepped comparison.
type CompareResult struct {
	Start             string            `json:"start"`
	End               string            `json:"end"`
	Steps             []EventStep       `json:"steps"`
	LocationSummaries []LocationSummary `json:"locationSummaries"`
}

// WinterCompare steps hourly archive weather into fixed intervals for a
// caller-chosen set of locations.
type WinterCompare struct {
	source  WeatherSource
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWinterCompare creates the service.
func NewWinterCompare(source WeatherSource, metrics *observability.Metrics, logger *slog.Logger) *WinterCompare {
	return &WinterCompare{source: source, metrics: metrics, logger: logger}
}

// Run fetches every location; the comparison needs all of them, so any
// failure fails the request.
func (c *WinterCompare) Run(ctx context.Context, req CompareRequest) (CompareResult, error) {
	if req.Start == "" || req.End == "" || len(req.Locations) == 0 {
		return CompareResult{}, domain.Invalidf("Missing start/end dates or location list.")
	}
	interval := req.IntervalHours
	if interval == 0 {
		interval = defaultCompareInterval
	}
	interval = max(1, interval)

	results := fetch.Batched(ctx, req.Locations, compareBatchSize, 0, func(ctx context.Context, loc openmeteo.Location) (openmeteo.Hourly, error) {
		return c.source.Hourly(ctx, openmeteo.Query{
			Location: loc,
			Start:    req.Start,
			End:      req.End,
			API:      openmeteo.Archive,
			Timezone: "UTC",
		})
	})

	ok, failed := fetch.Partition(results)
	c.metrics.BatchOutcomes.WithLabelValues("winter_compare", fetch.Classify(len(ok), len(failed)).String()).Inc()
	if len(failed) > 0 {
		errs := make([]domain.UnitError, len(failed))
		for i, r := range failed {
			c.logger.Warn("compare location failed", "location", r.Item.Name, "error", r.Err)
			errs[i] = domain.NewUnitError(r.Item.Name, r.Err)
		}
		return CompareResult{}, &domain.BatchError{
			Status:  http.StatusBadGateway,
			Message: "Failed to fetch weather data.",
			Errors:  errs,
		}
	}

	summaries := make([]LocationSummary, len(ok))
	for i, r := range ok {
		summaries[i] = summarize(r.Item, r.Value, interval)
	}
	return CompareResult{
		Start:             req.Start,
		End:               req.End,
		Steps:             eventSteps(summaries),
		LocationSummaries: summaries,
	}, nil
}

// summarize groups hours into interval-hour steps. The last step may be
// shorter. Missing snowfall counts as zero; missing temperatures are skipped.
func summarize(loc openmeteo.Location, h openmeteo.Hourly, interval int) LocationSummary {
	s := LocationSummary{ID: loc.ID, Name: loc.Name, Lat: loc.Lat, Lon: loc.Lon, Steps: []CompareStep{}}

	var (
		tempSum, stepTempSum float64
		tempCount, stepTemps int
		stepSnow, cumulative float64
		stepTime             string
	)
	for i, t := range h.Time {
		if stepTime == "" {
			stepTime = t
		}
		if temp := at(h.Temperature, i); temp != nil {
			tempSum += *temp
			tempCount++
			stepTempSum += *temp
			stepTemps++
			if *temp < 0 {
				s.BelowFreezingHours++
			}
		}
		if snow := at(h.Snowfall, i); snow != nil {
			stepSnow += *snow
		}

		if (i+1)%interval == 0 || i == len(h.Time)-1 {
			cumulative += stepSnow
			step := CompareStep{Time: stepTime, SnowfallStep: stepSnow, SnowfallCumulative: cumulative}
			if stepTemps > 0 {
				avg := stepTempSum / float64(stepTemps)
				step.AvgTempC = &avg
			}
			s.Steps = append(s.Steps, step)
			stepTempSum, stepTemps, stepSnow, stepTime = 0, 0, 0, ""
		}
	}

	s.TotalSnowfall = cumulative
	if tempCount > 0 {
		avg := tempSum / float64(tempCount)
		s.AvgTempC = &avg
	}
	return s
}

// eventSteps aligns steps by index, using the first location's step times.
// Averages divide by the location count, counting missing values as zero.
func eventSteps(summaries []LocationSummary) []EventStep {
	if len(summaries) == 0 {
		return []EventStep{}
	}
	n := float64(len(summaries))
	out := make([]EventStep, 0, len(summaries[0].Steps))
	for i, first := range summaries[0].Steps {
		step := EventStep{Time: first.Time}
		var tempSum, snowSum float64
		for _, s := range summaries {
			if i >= len(s.Steps) {
				step.TempC = append(step.TempC, nil)
				step.SnowfallCumulative = append(step.SnowfallCumulative, nil)
				continue
			}
			st := s.Steps[i]
			cum := st.SnowfallCumulative
			step.TempC = append(step.TempC, st.AvgTempC)
			step.SnowfallCumulative = append(step.SnowfallCumulative, &cum)
			if st.AvgTempC != nil {
				tempSum += *st.AvgTempC
			}
			snowSum += cum
		}
		step.AvgTempC = tempSum / n
		step.AvgSnowfallCumulative = snowSum / n
		out = append(out, step)
	}
	return out
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}
