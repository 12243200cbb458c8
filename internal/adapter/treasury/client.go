// Package treasury fetches the daily par yield curve CSVs published by the
// U.S. Treasury, one calendar year per file.
package treasury

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/couchcryptid/public-data-proxy/internal/csvtable"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
)

const (
	// Provider labels Treasury requests in metrics and errors.
	Provider = "treasury"

	// DefaultBaseURL is the yield curve CSV export endpoint.
	DefaultBaseURL = "https://home.treasury.gov/resource-center/data-chart-center/interest-rates/daily-treasury-rates.csv"

	treasuryDateLayout = "01/02/2006"
)

// Maturity maps a Treasury CSV column to its response key.
type Maturity struct {
	Column string `json:"-"`
	Key    string `json:"key"`
	Label  string `json:"label"`
}

// Maturities is the canonical maturity order.
var Maturities = []Maturity{
	{Column: "1 Mo", Key: "1m", Label: "1 Month"},
	{Column: "2 Mo", Key: "2m", Label: "2 Month"},
	{Column: "3 Mo", Key: "3m", Label: "3 Month"},
	{Column: "6 Mo", Key: "6m", Label: "6 Month"},
	{Column: "1 Yr", Key: "1y", Label: "1 Year"},
	{Column: "2 Yr", Key: "2y", Label: "2 Year"},
	{Column: "3 Yr", Key: "3y", Label: "3 Year"},
	{Column: "5 Yr", Key: "5y", Label: "5 Year"},
	{Column: "7 Yr", Key: "7y", Label: "7 Year"},
	{Column: "10 Yr", Key: "10y", Label: "10 Year"},
	{Column: "20 Yr", Key: "20y", Label: "20 Year"},
	{Column: "30 Yr", Key: "30y", Label: "30 Year"},
}

var dateColumnRe = regexp.MustCompile(`(?i)date`)

// Row is one trading day of yields keyed by maturity key. Maturities
// present in the file but blank on that day are nil.
type Row struct {
	Date   string              `json:"date"`
	Values map[string]*float64 `json:"values"`
}

// Year is the parsed content of one annual file.
type Year struct {
	Year       int
	Maturities []Maturity
	Rows       []Row
}

// Client fetches yield curve files.
type Client struct {
	http    *upstream.Client
	baseURL string
}

// NewClient creates a Treasury client.
func NewClient(client *upstream.Client) *Client {
	return &Client{http: client, baseURL: DefaultBaseURL}
}

// YearURL is the CSV export location for year.
func (c *Client) YearURL(year int) string {
	params := url.Values{
		"type":                 {"daily_treasury_yield_curve"},
		"field_tdr_date_value": {fmt.Sprintf("%d", year)},
		"_format":              {"csv"},
	}
	return fmt.Sprintf("%s/%d/all?%s", c.baseURL, year, params.Encode())
}

// FetchYear downloads and parses the par yield curve file for year.
func (c *Client) FetchYear(ctx context.Context, year int) (Year, error) {
	body, err := c.http.Get(ctx, fmt.Sprintf("%d", year), c.YearURL(year), "text/csv, text/plain")
	if err != nil {
		return Year{}, err
	}
	return ParseYear(string(body), year)
}

// ParseYear reads a yield curve CSV. An empty file yields no rows. A file
// without a date column or any known maturity column is malformed. Rows with
// unparsable dates are skipped.
func ParseYear(text string, year int) (Year, error) {
	out := Year{Year: year}
	table := csvtable.Parse(text)
	if len(table.Header) == 0 {
		return out, nil
	}

	dateIdx := table.IndexMatch(dateColumnRe)
	if dateIdx < 0 {
		return Year{}, domain.Malformed(Provider, errors.New("yield curve CSV has no date column"))
	}

	columns := make(map[string]int)
	for _, m := range Maturities {
		if i := table.Index(m.Column); i >= 0 {
			columns[m.Key] = i
			out.Maturities = append(out.Maturities, m)
		}
	}
	if len(out.Maturities) == 0 {
		return Year{}, domain.Malformed(Provider, errors.New("yield curve CSV has no maturity columns"))
	}

	for _, row := range table.Rows {
		date, ok := parseDate(csvtable.Field(row, dateIdx))
		if !ok {
			continue
		}
		values := make(map[string]*float64, len(out.Maturities))
		for _, m := range out.Maturities {
			values[m.Key] = csvtable.Number(csvtable.Field(row, columns[m.Key]))
		}
		out.Rows = append(out.Rows, Row{Date: date, Values: values})
	}
	return out, nil
}

// parseDate accepts Treasury's MM/DD/YYYY and plain ISO dates.
func parseDate(s string) (string, bool) {
	for _, layout := range []string{treasuryDateLayout, datewindow.ISOLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return datewindow.FormatISO(t), true
		}
	}
	return "", false
}
