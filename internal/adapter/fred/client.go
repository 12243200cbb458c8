// Package fred fetches single-series CSV exports from FRED.
package fred

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"github.com/couchcryptid/public-data-proxy/internal/csvtable"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
)

const (
	// Provider labels FRED requests in metrics and errors.
	Provider = "fred"

	// DefaultBaseURL is the fredgraph CSV endpoint.
	DefaultBaseURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"
)

// Scale converts a raw FRED value into the unit reported to callers.
type Scale int

const (
	// BasisPoints multiplies percent values by 100 and keeps one decimal.
	BasisPoints Scale = iota
	// WholeBasisPoints multiplies by 100 and rounds to an integer.
	WholeBasisPoints
)

// Apply converts v. Absent values stay absent.
func (s Scale) Apply(v *float64) *float64 {
	if v == nil {
		return nil
	}
	var out float64
	switch s {
	case WholeBasisPoints:
		out = math.Round(*v * 100)
	default:
		out = math.Round(*v*100*10) / 10
	}
	return &out
}

// Series describes one FRED series reported alongside the yield curve.
type Series struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Scale    Scale  `json:"-"`
}

// CreditSeries are the spread series reported next to the Treasury curve.
var CreditSeries = []Series{
	{ID: "BAMLC0A0CM", Label: "ICE BofA US Corporate Index OAS", Category: "investmentGradeOas", Scale: BasisPoints},
	{ID: "BAMLH0A0HYM2", Label: "ICE BofA US High Yield Index OAS", Category: "highYieldOas", Scale: BasisPoints},
	{ID: "T10Y2Y", Label: "10Y minus 2Y Treasury Spread", Category: "tenTwoSpread", Scale: WholeBasisPoints},
}

// Client fetches FRED series.
type Client struct {
	http    *upstream.Client
	baseURL string
}

// NewClient creates a FRED client.
func NewClient(client *upstream.Client) *Client {
	return &Client{http: client, baseURL: DefaultBaseURL}
}

// FetchSeries downloads observations of id starting at since, sorted by
// date. Values are raw (percent), missing observations are nil.
func (c *Client) FetchSeries(ctx context.Context, id string, since time.Time) ([]domain.DatedValue, error) {
	params := url.Values{"id": {id}, "cosd": {datewindow.FormatISO(since)}}
	body, err := c.http.Get(ctx, id, c.baseURL+"?"+params.Encode(), "text/csv, text/plain")
	if err != nil {
		return nil, err
	}
	return ParseSeries(string(body)), nil
}

// ParseSeries reads a two-column (date, value) FRED export. Rows whose date
// does not parse are skipped.
func ParseSeries(text string) []domain.DatedValue {
	table := csvtable.Parse(text)
	out := make([]domain.DatedValue, 0, len(table.Rows))
	for _, row := range table.Rows {
		date, err := datewindow.ParseISO(csvtable.Field(row, 0))
		if err != nil {
			continue
		}
		out = append(out, domain.DatedValue{
			Date:  datewindow.FormatISO(date),
			Value: csvtable.Number(csvtable.Field(row, 1)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// URL is the export location for id, used as the series source.
func (c *Client) URL(id string) string {
	return fmt.Sprintf("%s?id=%s", c.baseURL, url.QueryEscape(id))
}
