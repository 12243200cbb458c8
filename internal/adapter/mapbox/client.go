// Package mapbox resolves storm report place names to coordinates with the
// Mapbox Geocoding API.
package mapbox

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
)

const (
	// Provider labels Mapbox requests in metrics and errors.
	Provider = "mapbox"

	// DefaultBaseURL is the v5 places endpoint.
	DefaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token   string
	http    *upstream.Client
	baseURL string
	metrics *observability.Metrics
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, client *upstream.Client, metrics *observability.Metrics) *Client {
	return &Client{
		token:   token,
		http:    client,
		baseURL: DefaultBaseURL,
		metrics: metrics,
	}
}

// ForwardGeocode converts a place name and state to coordinates. No match
// yields a zero result and no error.
func (c *Client) ForwardGeocode(ctx context.Context, name, state string) (domain.GeocodingResult, error) {
	query := name
	if state != "" {
		query = fmt.Sprintf("%s, %s", name, state)
	}

	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"country":      {"us"},
		"types":        {"place,locality"},
	}
	u := fmt.Sprintf("%s/%s.json?%s", c.baseURL, url.PathEscape(query), params.Encode())

	var resp response
	start := time.Now()
	err := c.http.GetJSON(ctx, query, u, &resp)
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.GeocodingResult{}, err
	}

	if len(resp.Features) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		return domain.GeocodingResult{}, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()

	f := resp.Features[0]
	result := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		result.Lon = f.Center[0]
		result.Lat = f.Center[1]
	}
	return result, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
