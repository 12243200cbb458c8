// Package spc reads the Storm Prediction Center's flat-file datasets: the
// annual tornado CSVs and the daily preliminary storm report CSVs.
package spc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/fetch"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
)

const (
	// Provider labels SPC requests in metrics and errors.
	Provider = "spc"

	// DefaultBaseURL is the SPC web root.
	DefaultBaseURL = "https://www.spc.noaa.gov"

	// DefaultDailyConcurrency caps in-flight daily report requests.
	DefaultDailyConcurrency = 6

	acceptCSV = "text/csv, text/plain"
)

// Client fetches SPC datasets.
type Client struct {
	http        *upstream.Client
	baseURL     string
	concurrency int
}

// NewClient creates an SPC client. concurrency bounds the daily report
// fan-out; a non-positive value uses DefaultDailyConcurrency.
func NewClient(client *upstream.Client, concurrency int) *Client {
	if concurrency <= 0 {
		concurrency = DefaultDailyConcurrency
	}
	return &Client{http: client, baseURL: DefaultBaseURL, concurrency: concurrency}
}

// TornadoYearURL is the annual dataset location for year.
func (c *Client) TornadoYearURL(year int) string {
	return fmt.Sprintf("%s/wcm/data/%d_torn.csv", c.baseURL, year)
}

// DailyReportsSource describes where daily report series come from.
func (c *Client) DailyReportsSource() string {
	return c.baseURL + "/climo/reports/YYMMDD_rpts.csv"
}

func (c *Client) dailyReportURL(name string) string {
	return c.baseURL + "/climo/reports/" + name
}

// FetchTornadoYear downloads and parses the annual tornado dataset. A 404
// surfaces as domain.ErrNotYetPublished.
func (c *Client) FetchTornadoYear(ctx context.Context, year int, byState bool) (domain.YearSeries, error) {
	url := c.TornadoYearURL(year)
	body, err := c.http.Get(ctx, fmt.Sprintf("%d", year), url, acceptCSV)
	if err != nil {
		return domain.YearSeries{}, err
	}

	ys, err := domain.ParseTornadoYear(string(body), year, byState)
	if err != nil {
		return domain.YearSeries{}, fmt.Errorf("tornado dataset %d: %w", year, err)
	}
	ys.Source = url
	return ys, nil
}

// DailyReport is the raw text of one day's storm report file.
type DailyReport struct {
	Date     time.Time
	Filename string
	URL      string
	Text     string
}

// FetchDailyReport tries the filtered file for date, then the unfiltered
// one. A candidate that 404s or has an empty body is skipped; when none has
// content the error wraps domain.ErrNotYetPublished.
func (c *Client) FetchDailyReport(ctx context.Context, date time.Time) (DailyReport, error) {
	date = datewindow.Date(date)
	for _, name := range domain.DailyFilenames(date.Year(), int(date.Month()), date.Day()) {
		url := c.dailyReportURL(name)
		body, err := c.http.Get(ctx, name, url, acceptCSV)
		if errors.Is(err, domain.ErrNotYetPublished) {
			continue
		}
		if err != nil {
			return DailyReport{}, err
		}
		if strings.TrimSpace(string(body)) == "" {
			continue
		}
		return DailyReport{Date: date, Filename: name, URL: url, Text: string(body)}, nil
	}
	return DailyReport{}, fmt.Errorf("storm reports for %s: %w",
		datewindow.FormatISO(date), domain.ErrNotYetPublished)
}

// CountTornadoes returns the number of tornado reports filed for date. A day
// with no published file counts zero.
func (c *Client) CountTornadoes(ctx context.Context, date time.Time) (int, error) {
	report, err := c.FetchDailyReport(ctx, date)
	if errors.Is(err, domain.ErrNotYetPublished) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return domain.CountTornadoReports(report.Text), nil
}

// DailyCounts builds one DailyCount per date in [from, to] from the daily
// report files. Requests run with bounded concurrency; any hard failure fails
// the whole range so the cache never records a gap as zero.
func (c *Client) DailyCounts(ctx context.Context, from, to time.Time) ([]domain.DailyCount, error) {
	days := datewindow.EachDay(from, to)
	results := fetch.Map(ctx, days, c.concurrency, c.CountTornadoes)

	out := make([]domain.DailyCount, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("daily count %s: %w", datewindow.FormatISO(r.Item), r.Err)
		}
		out = append(out, domain.DailyCount{
			DayOfYear: r.Item.YearDay(),
			Date:      datewindow.FormatISO(r.Item),
			Daily:     r.Value,
		})
	}
	return out, nil
}
