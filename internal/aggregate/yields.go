package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/fred"
	"github.com/couchcryptid/public-data-proxy/internal/adapter/treasury"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
	"github.com/couchcryptid/public-data-proxy/internal/series"
)

const (
	// DefaultYieldRangeDays is the window served when none is requested.
	DefaultYieldRangeDays = 540
	// MaxYieldRangeDays caps the requested window.
	MaxYieldRangeDays = 1095

	// yieldLookbackDays widens the fetch so the first in-range day has data
	// even after weekends and holidays.
	yieldLookbackDays = 14
	yieldConcurrency  = 4
)

// TreasurySource reads annual par yield curve files.
type TreasurySource interface {
	FetchYear(ctx context.Context, year int) (treasury.Year, error)
}

// CreditSource reads FRED series.
type CreditSource interface {
	FetchSeries(ctx context.Context, id string, since time.Time) ([]domain.DatedValue, error)
}

// TreasuryCurve is the merged yield curve history.
type TreasuryCurve struct {
	Maturities []treasury.Maturity `json:"maturities"`
	Series     []treasury.Row      `json:"series"`
}

// CreditSeries is one converted FRED series.
type CreditSeries struct {
	ID       string              `json:"id"`
	Label    string              `json:"label"`
	Category string              `json:"category"`
	Data     []domain.DatedValue `json:"data"`
}

// YieldsResult is the yield curve response.
type YieldsResult struct {
	FetchedAt time.Time          `json:"fetchedAt"`
	RangeDays int                `json:"rangeDays"`
	Treasury  TreasuryCurve      `json:"treasury"`
	FRED      []CreditSeries     `json:"fred"`
	Errors    []domain.UnitError `json:"errors,omitempty"`
}

// YieldCurves combines Treasury par yields with FRED credit spreads.
type YieldCurves struct {
	treasury TreasurySource
	credit   CreditSource
	series   []fred.Series
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewYieldCurves creates the service for the default credit series.
func NewYieldCurves(t TreasurySource, c CreditSource, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *YieldCurves {
	return &YieldCurves{treasury: t, credit: c, series: fred.CreditSeries, clock: clock, metrics: metrics, logger: logger}
}

// yieldUnit is either a Treasury year or a FRED series.
type yieldUnit struct {
	year   int
	credit *fred.Series
}

func (u yieldUnit) String() string {
	if u.credit != nil {
		return u.credit.ID
	}
	return fmt.Sprintf("treasury %d", u.year)
}

type yieldPayload struct {
	curve  treasury.Year
	values []domain.DatedValue
}

// ClampRangeDays normalizes a requested range. Non-positive values take the
// default; larger ones are capped.
func ClampRangeDays(days int) int {
	if days <= 0 {
		return DefaultYieldRangeDays
	}
	return min(days, MaxYieldRangeDays)
}

// Run fetches the last rangeDays days of data.
func (y *YieldCurves) Run(ctx context.Context, rangeDays int) (YieldsResult, error) {
	rangeDays = ClampRangeDays(rangeDays)
	now := y.clock.Now().UTC()
	today := datewindow.Date(now)
	cutoff := datewindow.FormatISO(datewindow.AddDays(today, -rangeDays))
	since := datewindow.AddDays(today, -rangeDays-yieldLookbackDays)

	var units []yieldUnit
	for year := since.Year(); year <= today.Year(); year++ {
		units = append(units, yieldUnit{year: year})
	}
	for i := range y.series {
		units = append(units, yieldUnit{credit: &y.series[i]})
	}

	results := fetch.Map(ctx, units, yieldConcurrency, func(ctx context.Context, u yieldUnit) (yieldPayload, error) {
		if u.credit != nil {
			values, err := y.credit.FetchSeries(ctx, u.credit.ID, since)
			return yieldPayload{values: values}, err
		}
		curve, err := y.treasury.FetchYear(ctx, u.year)
		return yieldPayload{curve: curve}, err
	})

	var (
		years        []treasury.Year
		credit       []CreditSeries
		treasuryErrs []domain.UnitError
		creditErrs   []domain.UnitError
	)
	for _, r := range results {
		if !r.OK() {
			y.logger.Warn("yield unit failed", "unit", r.Item.String(), "error", r.Err)
			ue := domain.NewUnitError(r.Item.String(), r.Err)
			if r.Item.credit != nil {
				creditErrs = append(creditErrs, ue)
			} else {
				treasuryErrs = append(treasuryErrs, ue)
			}
			continue
		}
		if r.Item.credit != nil {
			credit = append(credit, convertCredit(*r.Item.credit, r.Value.values, cutoff))
			continue
		}
		years = append(years, r.Value.curve)
	}

	curve := mergeCurve(years, cutoff)
	if len(treasuryErrs) > 0 || len(curve.Series) == 0 {
		y.metrics.BatchOutcomes.WithLabelValues("yield_curves", fetch.Failed.String()).Inc()
		y.logger.Error("treasury yield curve unavailable", "errors", len(treasuryErrs))
		return YieldsResult{}, &domain.BatchError{
			Status:  http.StatusBadGateway,
			Message: "Treasury yield curve data is unavailable.",
			Errors:  append(treasuryErrs, creditErrs...),
		}
	}

	outcome := fetch.Classify(len(results)-len(creditErrs), len(creditErrs))
	y.metrics.BatchOutcomes.WithLabelValues("yield_curves", outcome.String()).Inc()

	if credit == nil {
		credit = []CreditSeries{}
	}
	return YieldsResult{
		FetchedAt: now,
		RangeDays: rangeDays,
		Treasury:  curve,
		FRED:      credit,
		Errors:    creditErrs,
	}, nil
}

// mergeCurve merges year chunks by date, first seen wins, keeps rows on or
// after cutoff and reports the union of maturities in canonical order.
func mergeCurve(years []treasury.Year, cutoff string) TreasuryCurve {
	present := make(map[string]bool)
	chunks := make([][]treasury.Row, 0, len(years))
	for _, y := range years {
		for _, m := range y.Maturities {
			present[m.Key] = true
		}
		chunks = append(chunks, y.Rows)
	}

	merged := series.Merge(chunks,
		func(r treasury.Row) string { return r.Date },
		func(a, b treasury.Row) bool { return a.Date < b.Date },
		series.Ascending)

	rows := make([]treasury.Row, 0, len(merged))
	for _, r := range merged {
		if r.Date >= cutoff {
			rows = append(rows, r)
		}
	}

	maturities := make([]treasury.Maturity, 0, len(present))
	for _, m := range treasury.Maturities {
		if present[m.Key] {
			maturities = append(maturities, m)
		}
	}
	return TreasuryCurve{Maturities: maturities, Series: rows}
}

func convertCredit(s fred.Series, values []domain.DatedValue, cutoff string) CreditSeries {
	data := make([]domain.DatedValue, 0, len(values))
	for _, v := range values {
		if v.Date < cutoff {
			continue
		}
		data = append(data, domain.DatedValue{Date: v.Date, Value: s.Scale.Apply(v.Value)})
	}
	return CreditSeries{ID: s.ID, Label: s.Label, Category: s.Category, Data: data}
}
