// Package yahoo reads quote summaries, daily price history and annual
// balance-sheet fundamentals from Yahoo Finance's public JSON endpoints.
package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/public-data-proxy/internal/analytics"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
)

const (
	// Provider labels Yahoo requests in metrics and errors.
	Provider = "yahoo"

	// DefaultBaseURL is the Yahoo Finance query host.
	DefaultBaseURL = "https://query2.finance.yahoo.com"

	// BrowserUserAgent is sent instead of the default agent; Yahoo rejects
	// unknown clients.
	BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Quote summary modules.
const (
	ModulePrice         = "price"
	ModuleSummaryDetail = "summaryDetail"
	ModuleKeyStatistics = "defaultKeyStatistics"
	ModuleFinancialData = "financialData"
	ModuleProfile       = "summaryProfile"
)

// BalanceSheetFields are the annual fundamentals requested for valuations.
var BalanceSheetFields = []string{
	"ordinarySharesNumber",
	"shareIssued",
	"treasurySharesNumber",
	"stockholdersEquity",
	"commonStockEquity",
	"tangibleBookValue",
	"netTangibleAssets",
	"goodwill",
	"otherIntangibleAssets",
}

// Statement is one annual balance sheet keyed by field name.
type Statement struct {
	Date   string
	Values map[string]*float64
}

// Field is an extractor over one statement field.
func (s Statement) Field(name string) analytics.Extractor {
	return analytics.Extractor{
		Name:    "fundamentals." + name,
		Extract: func() *float64 { return s.Values[name] },
	}
}

// Client talks to Yahoo Finance.
type Client struct {
	http    *upstream.Client
	baseURL string
}

// NewClient creates a Yahoo client. The upstream client should send
// BrowserUserAgent.
func NewClient(client *upstream.Client) *Client {
	return &Client{http: client, baseURL: DefaultBaseURL}
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) err(ticker string) error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("yahoo %s: %s: %w", ticker, e.Description, domain.ErrNoData)
	}
	return fmt.Errorf("yahoo %s: %s: %w", ticker, e.Description, domain.ErrUpstreamUnavailable)
}

// QuoteSummary fetches the named modules for ticker. Values are left in
// their wire form ({"raw": n, "fmt": "..."} or plain numbers) for
// analytics.Number to coerce.
func (c *Client) QuoteSummary(ctx context.Context, ticker string, modules ...string) (analytics.Modules, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(ticker),
		url.Values{"modules": {strings.Join(modules, ",")}}.Encode())

	var resp struct {
		QuoteSummary struct {
			Result []map[string]map[string]any `json:"result"`
			Error  *apiError                   `json:"error"`
		} `json:"quoteSummary"`
	}
	if err := c.http.GetJSON(ctx, ticker, u, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, resp.QuoteSummary.Error.err(ticker)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: empty quote summary: %w", ticker, domain.ErrNoData)
	}
	return analytics.Modules(resp.QuoteSummary.Result[0]), nil
}

// Chart fetches daily bars for ticker between from and to, sorted by date.
// Bars keep nil fields where Yahoo returned null.
func (c *Client) Chart(ctx context.Context, ticker string, from, to time.Time) ([]domain.PriceSeriesPoint, error) {
	params := url.Values{
		"period1":  {fmt.Sprintf("%d", from.Unix())},
		"period2":  {fmt.Sprintf("%d", to.Unix())},
		"interval": {"1d"},
		"events":   {"div,splits"},
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close  []*float64 `json:"close"`
						Volume []*float64 `json:"volume"`
					} `json:"quote"`
					AdjClose []struct {
						AdjClose []*float64 `json:"adjclose"`
					} `json:"adjclose"`
				} `json:"indicators"`
			} `json:"result"`
			Error *apiError `json:"error"`
		} `json:"chart"`
	}
	if err := c.http.GetJSON(ctx, ticker, u, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, resp.Chart.Error.err(ticker)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, nil
	}

	r := resp.Chart.Result[0]
	var closes, volumes, adj []*float64
	if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
		volumes = r.Indicators.Quote[0].Volume
	}
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	points := make([]domain.PriceSeriesPoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		points = append(points, domain.PriceSeriesPoint{
			Date:     time.Unix(ts, 0).UTC(),
			AdjClose: at(adj, i),
			Close:    at(closes, i),
			Volume:   at(volumes, i),
		})
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// AnnualBalanceSheets fetches annual balance-sheet fundamentals reported
// since the given date, oldest first.
func (c *Client) AnnualBalanceSheets(ctx context.Context, ticker string, since, until time.Time) ([]Statement, error) {
	types := make([]string, len(BalanceSheetFields))
	for i, f := range BalanceSheetFields {
		types[i] = "annual" + strings.ToUpper(f[:1]) + f[1:]
	}
	params := url.Values{
		"type":    {strings.Join(types, ",")},
		"period1": {fmt.Sprintf("%d", since.Unix())},
		"period2": {fmt.Sprintf("%d", until.Unix())},
	}
	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?%s",
		c.baseURL, url.PathEscape(ticker), params.Encode())

	var resp struct {
		Timeseries struct {
			Result []map[string]any `json:"result"`
			Error  *apiError        `json:"error"`
		} `json:"timeseries"`
	}
	if err := c.http.GetJSON(ctx, ticker, u, &resp); err != nil {
		return nil, err
	}
	if resp.Timeseries.Error != nil {
		return nil, resp.Timeseries.Error.err(ticker)
	}

	byDate := map[string]map[string]*float64{}
	for _, result := range resp.Timeseries.Result {
		for i, typ := range types {
			entries, ok := result[typ].([]any)
			if !ok {
				continue
			}
			for _, e := range entries {
				entry, ok := e.(map[string]any)
				if !ok {
					continue
				}
				date, _ := entry["asOfDate"].(string)
				if _, err := datewindow.ParseISO(date); err != nil {
					continue
				}
				if byDate[date] == nil {
					byDate[date] = map[string]*float64{}
				}
				byDate[date][BalanceSheetFields[i]] = analytics.Number(entry["reportedValue"])
			}
		}
	}

	out := make([]Statement, 0, len(byDate))
	for date, values := range byDate {
		out = append(out, Statement{Date: date, Values: values})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
