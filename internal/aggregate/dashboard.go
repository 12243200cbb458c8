package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/yahoo"
	"github.com/couchcryptid/public-data-proxy/internal/analytics"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

const (
	// DefaultDashboardBatchSize is the number of tickers fetched at once.
	DefaultDashboardBatchSize = 4

	historyLookbackDays = 365*2 + 30
	maWindow            = 200
)

// CompanyMetrics is one dashboard row.
type CompanyMetrics struct {
	Ticker                  string              `json:"ticker"`
	Name                    string              `json:"name"`
	Industry                string              `json:"industry"`
	LastPrice               *float64            `json:"last_price"`
	LastPriceUnadjusted     *float64            `json:"last_price_unadjusted"`
	PreviousClose           *float64            `json:"previous_close"`
	PreviousCloseUnadjusted *float64            `json:"previous_close_unadjusted"`
	MarketCap               *float64            `json:"market_cap"`
	PERatio                 *float64            `json:"pe_ratio"`
	PBRatio                 *float64            `json:"pb_ratio"`
	Beta                    *float64            `json:"beta"`
	DividendYield           *float64            `json:"dividend_yield"`
	AvgVolume3M             *float64            `json:"avg_volume_3m"`
	AvgVolume30D            *float64            `json:"avg_volume_30d"`
	TenDayAvgVolume         *float64            `json:"ten_day_avg_volume"`
	SharesOutstanding       *float64            `json:"shares_outstanding"`
	YearHigh                *float64            `json:"year_high"`
	YearLow                 *float64            `json:"year_low"`
	Volatility              *float64            `json:"volatility"`
	MaxDrawdown             *float64            `json:"max_drawdown"`
	MA200                   *float64            `json:"ma200"`
	AboveMA200              *bool               `json:"above_ma200"`
	Returns                 map[string]*float64 `json:"returns"`
	RawReturns              map[string]*float64 `json:"raw_returns"`
	YearHighPct             *float64            `json:"year_high_pct"`
	YearLowPct              *float64            `json:"year_low_pct"`
}

// PricePoint is one day of a dashboard price series.
type PricePoint struct {
	Date     string  `json:"date"`
	AdjClose float64 `json:"adj_close"`
	Close    float64 `json:"close"`
}

// Benchmark is an index or reference stock shown beside the universe.
type Benchmark struct {
	Ticker  string              `json:"ticker"`
	Name    string              `json:"name"`
	Returns map[string]*float64 `json:"returns"`
}

// Aggregates summarizes the companies that loaded.
type Aggregates struct {
	Coverage       int      `json:"coverage"`
	TotalMarketCap float64  `json:"totalMarketCap"`
	AvgBeta        *float64 `json:"avgBeta"`
	Advancers      int      `json:"advancers"`
	Decliners      int      `json:"decliners"`
	Breadth1D      *float64 `json:"breadth1d"`
	Above200Count  int      `json:"above200Count"`
	Above200Ratio  *float64 `json:"above200Ratio"`
}

// DashboardResult is the market dashboard response.
type DashboardResult struct {
	GeneratedAt   time.Time               `json:"generated_at"`
	LastTradeDate *string                 `json:"last_trade_date"`
	Companies     []CompanyMetrics        `json:"companies"`
	Prices        map[string][]PricePoint `json:"prices"`
	Benchmarks    []Benchmark             `json:"benchmarks"`
	Aggregates    Aggregates              `json:"aggregates"`
	Errors        []domain.UnitError      `json:"errors"`
}

// Dashboard computes price-based market metrics for the insurer universe.
type Dashboard struct {
	source     MarketSource
	universe   []Company
	benchmarks []Company
	names      map[string]string
	batchSize  int
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewDashboard creates the service. batchSize <= 0 takes
// DefaultDashboardBatchSize.
func NewDashboard(source MarketSource, batchSize int, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Dashboard {
	if batchSize <= 0 {
		batchSize = DefaultDashboardBatchSize
	}
	return &Dashboard{
		source:     source,
		universe:   DashboardUniverse,
		benchmarks: DashboardBenchmarks,
		names:      nameIndex(DashboardUniverse, DashboardBenchmarks),
		batchSize:  batchSize,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

type tickerData struct {
	metrics  CompanyMetrics
	prices   []PricePoint
	lastDate string
}

// Run fetches every company and benchmark, one batch at a time.
func (d *Dashboard) Run(ctx context.Context) (DashboardResult, error) {
	now := d.clock.Now().UTC()
	symbols := append(Tickers(d.universe), Tickers(d.benchmarks)...)
	isBenchmark := make(map[string]bool, len(d.benchmarks))
	for _, b := range d.benchmarks {
		isBenchmark[b.Ticker] = true
	}

	results := fetch.Batched(ctx, symbols, d.batchSize, 0, func(ctx context.Context, ticker string) (tickerData, error) {
		return d.ticker(ctx, ticker, now)
	})

	res := DashboardResult{
		GeneratedAt: now,
		Companies:   []CompanyMetrics{},
		Prices:      make(map[string][]PricePoint),
		Benchmarks:  []Benchmark{},
		Errors:      []domain.UnitError{},
	}
	var lastTrade string
	for _, r := range results {
		if !r.OK() {
			d.logger.Warn("dashboard ticker failed", "ticker", r.Item, "error", r.Err)
			res.Errors = append(res.Errors, tickerError(r.Item, r.Err))
			continue
		}
		m := r.Value.metrics
		if isBenchmark[r.Item] {
			res.Benchmarks = append(res.Benchmarks, Benchmark{Ticker: m.Ticker, Name: m.Name, Returns: m.Returns})
		} else {
			res.Companies = append(res.Companies, m)
		}
		res.Prices[r.Item] = r.Value.prices
		if r.Value.lastDate > lastTrade {
			lastTrade = r.Value.lastDate
		}
	}
	if lastTrade != "" {
		res.LastTradeDate = &lastTrade
	}

	sort.Slice(res.Companies, func(i, j int) bool { return res.Companies[i].Ticker < res.Companies[j].Ticker })
	res.Aggregates = computeAggregates(res.Companies)

	outcome := fetch.Classify(len(results)-len(res.Errors), len(res.Errors))
	d.metrics.BatchOutcomes.WithLabelValues("insurer_dashboard", outcome.String()).Inc()
	if len(res.Errors) > 0 && len(res.Companies) == 0 {
		return res, &domain.BatchError{
			Status:  http.StatusBadGateway,
			Message: "Unable to retrieve market data for any insurer.",
			Errors:  res.Errors,
		}
	}
	return res, nil
}

func (d *Dashboard) ticker(ctx context.Context, ticker string, now time.Time) (tickerData, error) {
	mods, err := d.source.QuoteSummary(ctx, ticker,
		yahoo.ModulePrice, yahoo.ModuleSummaryDetail, yahoo.ModuleKeyStatistics,
		yahoo.ModuleFinancialData, yahoo.ModuleProfile)
	if err != nil {
		return tickerData{}, err
	}
	bars, err := d.source.Chart(ctx, ticker, now.AddDate(0, 0, -historyLookbackDays), now)
	if err != nil {
		return tickerData{}, err
	}
	if len(bars) == 0 {
		return tickerData{}, fmt.Errorf("no price history for %s: %w", ticker, domain.ErrNoData)
	}

	adjusted := make([]domain.PriceSeriesPoint, 0, len(bars))
	for _, b := range bars {
		if b.AdjClose == nil {
			continue
		}
		if b.Close == nil {
			b.Close = b.AdjClose
		}
		adjusted = append(adjusted, b)
	}
	if len(adjusted) == 0 {
		return tickerData{}, fmt.Errorf("no adjusted closes for %s: %w", ticker, domain.ErrNoData)
	}

	m := priceMetrics(adjusted)
	m.Ticker = ticker
	quoteMetrics(&m, mods, adjusted)
	m.Name = firstText(mods.Text(yahoo.ModulePrice, "longName"), mods.Text(yahoo.ModulePrice, "shortName"), d.names[ticker], ticker)
	m.Industry = firstText(mods.Text(yahoo.ModuleProfile, "industry"), mods.Text(yahoo.ModuleProfile, "sector"), "Insurance")

	prices := make([]PricePoint, len(adjusted))
	for i, p := range adjusted {
		prices[i] = PricePoint{Date: datewindow.FormatISO(p.Date), AdjClose: *p.AdjClose, Close: *p.Close}
	}
	return tickerData{metrics: m, prices: prices, lastDate: prices[len(prices)-1].Date}, nil
}

// priceMetrics derives the history-based fields from bars that all carry
// an adjusted and a raw close.
func priceMetrics(bars []domain.PriceSeriesPoint) CompanyMetrics {
	n := len(bars)
	closes := make([]float64, n)
	adjPoints := make([]analytics.Point, n)
	rawPoints := make([]analytics.Point, n)
	for i, b := range bars {
		closes[i] = *b.AdjClose
		adjPoints[i] = analytics.Point{Date: b.Date, Value: b.AdjClose}
		rawPoints[i] = analytics.Point{Date: b.Date, Value: b.Close}
	}

	latest := bars[n-1]
	prev := latest
	if n > 1 {
		prev = bars[n-2]
	}

	m := CompanyMetrics{
		LastPrice:               latest.AdjClose,
		LastPriceUnadjusted:     latest.Close,
		PreviousClose:           prev.AdjClose,
		PreviousCloseUnadjusted: prev.Close,
		Volatility:              analytics.AnnualizedVolatility(closes),
		MaxDrawdown:             analytics.MaxDrawdown(closes),
		Returns:                 analytics.Returns(adjPoints, analytics.DefaultWindows),
		RawReturns:              analytics.Returns(rawPoints, analytics.DefaultWindows),
	}

	yearAgo := datewindow.ShiftMonths(latest.Date, 12)
	var window []float64
	for _, b := range bars {
		if !b.Date.Before(yearAgo) {
			window = append(window, *b.AdjClose)
		}
	}
	if len(window) == 0 {
		window = closes
	}
	m.YearLow, m.YearHigh = analytics.Range(window)

	ptrs := make([]*float64, n)
	for i := range bars {
		ptrs[i] = bars[i].AdjClose
	}
	m.MA200 = analytics.MovingAverage(ptrs, maWindow)
	if m.MA200 != nil {
		above := *latest.AdjClose >= *m.MA200
		m.AboveMA200 = &above
	}
	return m
}

// quoteMetrics fills the quote-summary fields, using bars for volume
// fallbacks, and the fields that depend on both.
func quoteMetrics(m *CompanyMetrics, mods analytics.Modules, bars []domain.PriceSeriesPoint) {
	const (
		price    = yahoo.ModulePrice
		detail   = yahoo.ModuleSummaryDetail
		keyStats = yahoo.ModuleKeyStatistics
		finData  = yahoo.ModuleFinancialData
	)

	volumes := make([]*float64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	avgVolume := func(n int) analytics.Extractor {
		return analytics.Derived(fmt.Sprintf("history.volume%d", n), func() *float64 {
			return analytics.MovingAverage(volumes, n)
		})
	}

	m.MarketCap = analytics.Value(
		mods.Field(price, "marketCap"),
		mods.Field(finData, "marketCap"),
		mods.Field(detail, "marketCap"),
		mods.Field(keyStats, "marketCap"),
	)
	m.PERatio = analytics.Value(
		mods.Field(detail, "trailingPE"),
		mods.Field(finData, "trailingPE"),
		mods.Field(price, "trailingPE"),
	)
	m.PBRatio = analytics.NormalizePriceToBook(analytics.Value(
		mods.Field(keyStats, "priceToBook"),
		mods.Field(detail, "priceToBook"),
		mods.Field(finData, "priceToBook"),
		mods.Field(price, "priceToBook"),
	))
	m.Beta = analytics.Value(
		mods.Field(detail, "beta"),
		mods.Field(keyStats, "beta"),
		mods.Field(finData, "beta"),
		mods.Field(price, "beta"),
	)
	m.DividendYield = analytics.Value(
		mods.Field(detail, "dividendYield"),
		mods.Field(finData, "dividendYield"),
		mods.Field(price, "trailingAnnualDividendYield"),
	)
	m.AvgVolume3M = analytics.Value(mods.Field(price, "averageDailyVolume3Month"), avgVolume(63))
	m.AvgVolume30D = analytics.Value(mods.Field(price, "averageDailyVolume10Day"), avgVolume(30))
	m.TenDayAvgVolume = analytics.Value(mods.Field(price, "averageDailyVolume10Day"), avgVolume(10))
	m.SharesOutstanding = analytics.Value(
		mods.Field(price, "sharesOutstanding"),
		mods.Field(keyStats, "sharesOutstanding"),
		mods.Field(finData, "sharesOutstanding"),
	)

	if m.YearHigh == nil {
		m.YearHigh = analytics.Value(mods.Field(price, "fiftyTwoWeekHigh"))
	}
	if m.YearLow == nil {
		m.YearLow = analytics.Value(mods.Field(price, "fiftyTwoWeekLow"))
	}
	m.YearHighPct = analytics.PercentFrom(m.LastPrice, m.YearHigh)
	m.YearLowPct = analytics.PercentFrom(m.LastPrice, m.YearLow)
}

func computeAggregates(companies []CompanyMetrics) Aggregates {
	var caps, betas []float64
	agg := Aggregates{Coverage: len(companies)}
	for _, c := range companies {
		if c.MarketCap != nil {
			caps = append(caps, *c.MarketCap)
		}
		if c.Beta != nil {
			betas = append(betas, *c.Beta)
		}
		if r := c.Returns["1d"]; r != nil {
			switch {
			case *r > 0:
				agg.Advancers++
			case *r < 0:
				agg.Decliners++
			}
		}
		if c.AboveMA200 != nil && *c.AboveMA200 {
			agg.Above200Count++
		}
	}
	agg.TotalMarketCap = analytics.Sum(caps)
	agg.AvgBeta = analytics.Mean(betas)
	if agg.Coverage > 0 {
		cov := float64(agg.Coverage)
		breadth := float64(agg.Advancers) / cov
		ratio := float64(agg.Above200Count) / cov
		agg.Breadth1D = &breadth
		agg.Above200Ratio = &ratio
	}
	return agg
}
