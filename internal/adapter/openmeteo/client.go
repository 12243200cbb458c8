// Package openmeteo fetches hourly temperature and snowfall from the
// Open-Meteo archive and forecast APIs.
package openmeteo

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
)

const (
	// Provider labels Open-Meteo requests in metrics and errors.
	Provider = "openmeteo"

	// DefaultArchiveURL serves reanalysis data for past dates.
	DefaultArchiveURL = "https://archive-api.open-meteo.com/v1/archive"
	// DefaultForecastURL serves recent and upcoming dates.
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"

	hourlyVars = "temperature_2m,snowfall"
)

// API selects the Open-Meteo endpoint.
type API string

const (
	Archive  API = "archive"
	Forecast API = "forecast"
)

// Location is a named point on the map.
type Location struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	State string  `json:"state,omitempty"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Query selects an hourly window for one location. Dates are YYYY-MM-DD in
// Timezone. Fahrenheit switches the temperature unit from Celsius.
type Query struct {
	Location   Location
	Start, End string
	API        API
	Timezone   string
	Fahrenheit bool
}

// Hourly is the hourly series for one location. Snowfall is in centimetres
// as served. Latitude and Longitude are the grid cell Open-Meteo snapped to.
type Hourly struct {
	Latitude    float64
	Longitude   float64
	Time        []string
	Temperature []*float64
	Snowfall    []*float64
}

// Client fetches hourly weather.
type Client struct {
	http        *upstream.Client
	archiveURL  string
	forecastURL string
}

// NewClient creates an Open-Meteo client.
func NewClient(client *upstream.Client) *Client {
	return &Client{http: client, archiveURL: DefaultArchiveURL, forecastURL: DefaultForecastURL}
}

// Hourly fetches temperature and snowfall for q. A response without an
// hourly time axis is malformed.
func (c *Client) Hourly(ctx context.Context, q Query) (Hourly, error) {
	params := url.Values{
		"latitude":   {strconv.FormatFloat(q.Location.Lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(q.Location.Lon, 'f', -1, 64)},
		"start_date": {q.Start},
		"end_date":   {q.End},
		"hourly":     {hourlyVars},
	}
	if q.Fahrenheit {
		params.Set("temperature_unit", "fahrenheit")
	}
	tz := q.Timezone
	if tz == "" {
		tz = "UTC"
	}
	params.Set("timezone", tz)

	base := c.archiveURL
	if q.API == Forecast {
		base = c.forecastURL
	}

	var resp struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Hourly    *struct {
			Time          []string   `json:"time"`
			Temperature2m []*float64 `json:"temperature_2m"`
			Snowfall      []*float64 `json:"snowfall"`
		} `json:"hourly"`
	}
	if err := c.http.GetJSON(ctx, q.Location.Name, base+"?"+params.Encode(), &resp); err != nil {
		return Hourly{}, err
	}
	if resp.Hourly == nil || resp.Hourly.Time == nil {
		return Hourly{}, domain.Malformed(Provider, errors.New("no hourly data returned for "+q.Location.Name))
	}
	return Hourly{
		Latitude:    resp.Latitude,
		Longitude:   resp.Longitude,
		Time:        resp.Hourly.Time,
		Temperature: resp.Hourly.Temperature2m,
		Snowfall:    resp.Hourly.Snowfall,
	}, nil
}
