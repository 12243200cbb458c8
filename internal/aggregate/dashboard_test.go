package aggregate

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/yahoo"
	"github.com/couchcryptid/public-data-proxy/internal/analytics"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

var dashboardEnd = time.Date(2025, time.May, 30, 0, 0, 0, 0, time.UTC)

// trendBars returns n daily bars ending on dashboardEnd, moving by step per
// day from start. Close carries no value so it defaults to the adjusted one.
func trendBars(n int, start, step float64) []domain.PriceSeriesPoint {
	bars := make([]domain.PriceSeriesPoint, n)
	for i := range bars {
		bars[i] = domain.PriceSeriesPoint{
			Date:     dashboardEnd.AddDate(0, 0, i-n+1),
			AdjClose: f(start + float64(i)*step),
			Volume:   f(1000),
		}
	}
	return bars
}

func dashboardMarket() *fakeMarket {
	rising := trendBars(260, 100, 0.1)
	rising[100].AdjClose = nil
	return &fakeMarket{
		quotes: map[string]analytics.Modules{
			"ALL":   {yahoo.ModulePrice: {"marketCap": 1e9}, yahoo.ModuleSummaryDetail: {"beta": 1.0}},
			"AIG":   {yahoo.ModulePrice: {"marketCap": 2e9, "longName": "AIG Inc"}, yahoo.ModuleKeyStatistics: {"beta": 0.5}},
			"^GSPC": {},
		},
		charts: map[string][]domain.PriceSeriesPoint{
			"ALL":   rising,
			"AIG":   trendBars(260, 200, -0.1),
			"^GSPC": trendBars(30, 5000, 1),
		},
	}
}

func TestDashboard_ComputesMetricsAndAggregates(t *testing.T) {
	src := dashboardMarket()
	metrics := observability.NewMetricsForTesting()
	svc := NewDashboard(src, 0, clockAt(2025, time.June, 1, 12), metrics, testLogger())

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Companies, 2)
	aig, all := res.Companies[0], res.Companies[1]
	assert.Equal(t, "AIG", aig.Ticker)
	assert.Equal(t, "AIG Inc", aig.Name)
	assert.Equal(t, "ALL", all.Ticker)
	assert.Equal(t, "The Allstate Corporation", all.Name)
	assert.Equal(t, "Insurance", all.Industry)

	assert.InDelta(t, 125.9, *all.LastPrice, 1e-9)
	assert.InDelta(t, 125.8, *all.PreviousClose, 1e-9)
	assert.Equal(t, *all.LastPrice, *all.LastPriceUnadjusted)
	require.NotNil(t, all.AboveMA200)
	assert.True(t, *all.AboveMA200)
	assert.False(t, *aig.AboveMA200)
	assert.Positive(t, *all.Returns["1d"])
	assert.Negative(t, *aig.Returns["1d"])
	assert.InDelta(t, 0.0, *all.MaxDrawdown, 1e-9)
	assert.Equal(t, 1000.0, *all.TenDayAvgVolume)
	assert.Len(t, res.Prices["ALL"], 259, "bars without an adjusted close are dropped")

	require.Len(t, res.Benchmarks, 1)
	assert.Equal(t, "S&P 500", res.Benchmarks[0].Name)
	require.NotNil(t, res.LastTradeDate)
	assert.Equal(t, "2025-05-30", *res.LastTradeDate)

	agg := res.Aggregates
	assert.Equal(t, 2, agg.Coverage)
	assert.Equal(t, 3e9, agg.TotalMarketCap)
	assert.InDelta(t, 0.75, *agg.AvgBeta, 1e-9)
	assert.Equal(t, 1, agg.Advancers)
	assert.Equal(t, 1, agg.Decliners)
	assert.Equal(t, 1, agg.Above200Count)
	assert.InDelta(t, 0.5, *agg.Above200Ratio, 1e-9)

	assert.Len(t, res.Errors, len(DashboardUniverse)+len(DashboardBenchmarks)-3)
	assert.Equal(t, 1.0, counterValue(t, metrics.BatchOutcomes.WithLabelValues("insurer_dashboard", "partial")))
}

func TestDashboard_NoAdjustedClosesIsNoData(t *testing.T) {
	bars := trendBars(5, 10, 1)
	for i := range bars {
		bars[i].AdjClose = nil
	}
	src := &fakeMarket{
		quotes: map[string]analytics.Modules{"ALL": {}},
		charts: map[string][]domain.PriceSeriesPoint{"ALL": bars},
	}
	svc := NewDashboard(src, 0, clockAt(2025, time.June, 1, 12), observability.NewMetricsForTesting(), testLogger())

	res, err := svc.Run(context.Background())
	require.Error(t, err)
	for _, e := range res.Errors {
		if e.Ticker == "ALL" {
			assert.Equal(t, http.StatusNotFound, e.Status)
		}
	}
}

func TestDashboard_AllFailed(t *testing.T) {
	svc := NewDashboard(&fakeMarket{}, 0, clockAt(2025, time.June, 1, 12), observability.NewMetricsForTesting(), testLogger())

	res, err := svc.Run(context.Background())
	var be *domain.BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusBadGateway, be.Status)
	assert.Empty(t, res.Companies)
	assert.Nil(t, res.LastTradeDate)
}

func TestComputeAggregates_Empty(t *testing.T) {
	agg := computeAggregates(nil)
	assert.Zero(t, agg.Coverage)
	assert.Nil(t, agg.AvgBeta)
	assert.Nil(t, agg.Breadth1D)
}
