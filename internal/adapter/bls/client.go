// Package bls queries the Bureau of Labor Statistics public time series API.
package bls

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
)

const (
	// Provider labels BLS requests in metrics and errors.
	Provider = "bls"

	// DefaultURL is the v2 time series endpoint.
	DefaultURL = "https://api.bls.gov/publicAPI/v2/timeseries/data/"

	statusSucceeded = "REQUEST_SUCCEEDED"
)

// Observation is one period of a series, kept in the wire shape.
type Observation struct {
	Year       string           `json:"year"`
	Period     string           `json:"period"`
	PeriodName string           `json:"periodName"`
	Latest     string           `json:"latest,omitempty"`
	Value      string           `json:"value"`
	Footnotes  []map[string]any `json:"footnotes"`
}

// Series is the data for one series id.
type Series struct {
	SeriesID string        `json:"seriesID"`
	Data     []Observation `json:"data"`
}

// Query is a request for one year range, or for the latest Latest periods
// when Latest is set.
type Query struct {
	SeriesIDs []string
	StartYear int
	EndYear   int
	Latest    int
}

// Response is a successful API reply.
type Response struct {
	Series       []Series
	ResponseTime *int
	Message      []string
}

type payload struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear,omitempty"`
	EndYear         string   `json:"endyear,omitempty"`
	Latest          int      `json:"latest,omitempty"`
	RegistrationKey string   `json:"registrationKey,omitempty"`
}

type apiResponse struct {
	Status       string   `json:"status"`
	ResponseTime *int     `json:"responseTime"`
	Message      []string `json:"message"`
	Results      struct {
		Series []Series `json:"series"`
	} `json:"Results"`
}

// Client posts queries to the BLS API.
type Client struct {
	http   *upstream.Client
	url    string
	apiKey string
}

// NewClient creates a BLS client. apiKey is optional; registered keys get
// higher quotas and longer spans.
func NewClient(client *upstream.Client, apiKey string) *Client {
	return &Client{http: client, url: DefaultURL, apiKey: apiKey}
}

// Source is the endpoint reported with responses.
func (c *Client) Source() string { return c.url }

// Fetch runs one query. A reply whose status is not REQUEST_SUCCEEDED is an
// upstream failure carrying the API's messages.
func (c *Client) Fetch(ctx context.Context, q Query) (Response, error) {
	body := payload{SeriesID: q.SeriesIDs, RegistrationKey: c.apiKey}
	unit := "latest"
	if q.Latest > 0 {
		body.Latest = q.Latest
	} else {
		body.StartYear = fmt.Sprintf("%d", q.StartYear)
		body.EndYear = fmt.Sprintf("%d", q.EndYear)
		unit = fmt.Sprintf("%d-%d", q.StartYear, q.EndYear)
	}

	var resp apiResponse
	if err := c.http.PostJSON(ctx, unit, c.url, body, &resp); err != nil {
		return Response{}, err
	}
	if resp.Status != statusSucceeded {
		msg := "BLS API error"
		if len(resp.Message) > 0 {
			msg = strings.Join(resp.Message, " ")
		}
		return Response{}, fmt.Errorf("bls %s: %s: %w", unit, msg, domain.ErrUpstreamUnavailable)
	}

	msgs := resp.Message
	if msgs == nil {
		msgs = []string{}
	}
	return Response{Series: resp.Results.Series, ResponseTime: resp.ResponseTime, Message: msgs}, nil
}
