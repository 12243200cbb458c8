package aggregate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/yahoo"
	"github.com/couchcryptid/public-data-proxy/internal/analytics"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

const (
	// DefaultTickerBatchSize is the number of tickers fetched at once.
	DefaultTickerBatchSize = 3

	fundamentalsYears = 6
)

// MarketSource reads quotes, price history and fundamentals.
type MarketSource interface {
	QuoteSummary(ctx context.Context, ticker string, modules ...string) (analytics.Modules, error)
	Chart(ctx context.Context, ticker string, from, to time.Time) ([]domain.PriceSeriesPoint, error)
	AnnualBalanceSheets(ctx context.Context, ticker string, since, until time.Time) ([]yahoo.Statement, error)
}

// BuybacksResult is the buyback valuation table.
type BuybacksResult struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Tickers     []domain.TickerMetrics `json:"tickers"`
	Errors      []domain.UnitError     `json:"errors"`
}

// Buybacks values insurers as buyback candidates from price, book value and
// return on equity.
type Buybacks struct {
	source    MarketSource
	required  analytics.RequiredReturns
	universe  []Company
	names     map[string]string
	batchSize int
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewBuybacks creates the service. A nil required table uses the built-in
// one; batchSize <= 0 takes DefaultTickerBatchSize.
func NewBuybacks(source MarketSource, required analytics.RequiredReturns, batchSize int, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Buybacks {
	if required == nil {
		required = analytics.DefaultRequiredReturns
	}
	if batchSize <= 0 {
		batchSize = DefaultTickerBatchSize
	}
	return &Buybacks{
		source:    source,
		required:  required,
		universe:  BuybackUniverse,
		names:     nameIndex(BuybackUniverse),
		batchSize: batchSize,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run values tickers, or the default universe when none are given. Batches
// run one after another.
func (b *Buybacks) Run(ctx context.Context, tickers []string) (BuybacksResult, error) {
	tickers = dedupe(tickers)
	if len(tickers) == 0 {
		tickers = Tickers(b.universe)
	}
	now := b.clock.Now().UTC()

	results := fetch.Batched(ctx, tickers, b.batchSize, 0, func(ctx context.Context, ticker string) (domain.TickerMetrics, error) {
		return b.ticker(ctx, ticker, now)
	})

	res := BuybacksResult{GeneratedAt: now, Tickers: []domain.TickerMetrics{}, Errors: []domain.UnitError{}}
	for _, r := range results {
		if !r.OK() {
			b.logger.Warn("buyback ticker failed", "ticker", r.Item, "error", r.Err)
			res.Errors = append(res.Errors, tickerError(r.Item, r.Err))
			continue
		}
		res.Tickers = append(res.Tickers, r.Value)
	}

	outcome := fetch.Classify(len(res.Tickers), len(res.Errors))
	b.metrics.BatchOutcomes.WithLabelValues("insurer_buybacks", outcome.String()).Inc()
	if outcome == fetch.Failed {
		return res, &domain.BatchError{
			Status:  http.StatusBadGateway,
			Message: "Unable to retrieve data for any requested ticker.",
			Errors:  res.Errors,
		}
	}
	return res, nil
}

func (b *Buybacks) ticker(ctx context.Context, ticker string, now time.Time) (domain.TickerMetrics, error) {
	mods, err := b.source.QuoteSummary(ctx, ticker,
		yahoo.ModulePrice, yahoo.ModuleSummaryDetail, yahoo.ModuleKeyStatistics, yahoo.ModuleFinancialData)
	if err != nil {
		return domain.TickerMetrics{}, err
	}

	statements, err := b.source.AnnualBalanceSheets(ctx, ticker, now.AddDate(-fundamentalsYears, 0, 0), now)
	if err != nil {
		b.logger.Debug("fundamentals unavailable", "ticker", ticker, "error", err)
		statements = nil
	}
	var latest yahoo.Statement
	if len(statements) > 0 {
		latest = statements[len(statements)-1]
	}
	fund := fromStatement(latest)

	const (
		price    = yahoo.ModulePrice
		detail   = yahoo.ModuleSummaryDetail
		keyStats = yahoo.ModuleKeyStatistics
		finData  = yahoo.ModuleFinancialData
	)

	last := analytics.Value(
		mods.Field(price, "regularMarketPrice"),
		mods.Field(price, "postMarketPrice"),
		mods.Field(price, "preMarketPrice"),
	)
	bvps := analytics.Value(
		analytics.Const("fundamentals.bookValuePerShare", fund.bookValuePerShare),
		mods.Field(keyStats, "bookValue"),
		mods.Field(price, "bookValue"),
	)
	tbvps := analytics.Value(
		analytics.Const("fundamentals.tangibleBookPerShare", fund.tangibleBookPerShare),
		mods.Field(keyStats, "tangibleBookValuePerShare"),
		analytics.Const("bookValuePerShare", bvps),
	)
	roe := analytics.Value(
		mods.Field(finData, "returnOnEquity"),
		mods.Field(keyStats, "returnOnEquity"),
		mods.Field(keyStats, "roe"),
	)

	rr := b.required.Lookup(ticker)
	v := analytics.Valuate(analytics.ValuationInput{
		Price:                last,
		BookValuePerShare:    bvps,
		TangibleBookPerShare: tbvps,
		ReturnOnEquity:       roe,
		RequiredReturn:       rr.RequiredReturn,
	})

	return domain.TickerMetrics{
		Ticker:   ticker,
		Name:     firstText(mods.Text(price, "shortName"), mods.Text(price, "longName"), b.names[ticker], ticker),
		Currency: firstText(mods.Text(price, "currency"), mods.Text(detail, "currency"), "USD"),
		Price:    last,
		MarketCap: analytics.Value(
			mods.Field(price, "marketCap"),
			mods.Field(detail, "marketCap"),
			mods.Field(keyStats, "marketCap"),
		),
		SharesOutstanding: analytics.Value(
			mods.Field(price, "sharesOutstanding"),
			mods.Field(keyStats, "sharesOutstanding"),
			mods.Field(detail, "sharesOutstanding"),
		),
		BookValuePerShare:         bvps,
		TangibleBookValuePerShare: tbvps,
		PriceToBook:               v.PriceToBook,
		PriceToTangibleBook:       v.PriceToTangibleBook,
		ReturnOnEquity:            roe,
		ImpliedBuybackReturn:      v.ImpliedBuybackReturn,
		Rule72PaybackYears:        v.Rule72PaybackYears,
		PremiumPaybackYears:       v.PremiumPaybackYears,
		GoodwillRatio:             analytics.GoodwillRatio(fund.intangibles, fund.equity),
		RequiredReturnLabel:       rr.Label,
		RequiredReturn:            rr.RequiredReturn,
		RedZoneThresholdPTBV:      v.RedZoneThresholdPTBV,
		RedZoneDelta:              v.RedZoneDelta,
		TotalEquity:               fund.equity,
		Goodwill:                  fund.goodwill,
		IntangibleAssets:          fund.otherIntangibles,
		NetIncome:                 analytics.Value(mods.Field(keyStats, "netIncomeToCommon")),
		PayoutRatio:               analytics.Value(mods.Field(detail, "payoutRatio")),
		Beta:                      analytics.Value(mods.Field(keyStats, "beta")),
	}, nil
}

// fundamentals are the per-share figures derived from one balance sheet.
type fundamentals struct {
	equity               *float64
	goodwill             *float64
	otherIntangibles     *float64
	intangibles          *float64
	bookValuePerShare    *float64
	tangibleBookPerShare *float64
}

func fromStatement(s yahoo.Statement) fundamentals {
	shares := analytics.Value(
		s.Field("ordinarySharesNumber"),
		s.Field("shareIssued"),
		s.Field("treasurySharesNumber"),
	)
	equity := analytics.Value(s.Field("stockholdersEquity"), s.Field("commonStockEquity"))
	tangible := analytics.Value(s.Field("tangibleBookValue"), s.Field("netTangibleAssets"))

	f := fundamentals{
		equity:               equity,
		goodwill:             s.Values["goodwill"],
		otherIntangibles:     s.Values["otherIntangibleAssets"],
		bookValuePerShare:    analytics.Ratio(equity, shares),
		tangibleBookPerShare: analytics.Ratio(tangible, shares),
	}
	if f.goodwill != nil || f.otherIntangibles != nil {
		total := 0.0
		for _, v := range []*float64{f.goodwill, f.otherIntangibles} {
			if v != nil {
				total += *v
			}
		}
		f.intangibles = &total
	}
	return f
}

func firstText(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func tickerError(ticker string, err error) domain.UnitError {
	return domain.UnitError{Ticker: ticker, Status: domain.StatusFor(err), Message: err.Error()}
}
