package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
	"github.com/couchcryptid/public-data-proxy/internal/upstream"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, timeout time.Duration) (*Client, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	up := upstream.New(Provider, timeout, metrics, logger, upstream.WithRateLimit(0))
	c := NewClient(testToken, up, metrics)
	c.baseURL = baseURL
	return c, metrics
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "CHAPPEL, TX")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{
					Center:    []float64{-98.6, 31.1},
					PlaceName: "Cherokee, Texas, United States",
					Text:      "Cherokee",
					Relevance: 0.9,
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c, metrics := testClient(srv.URL, 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "CHAPPEL", "TX")
	require.NoError(t, err)

	assert.Equal(t, 31.1, result.Lat)
	assert.Equal(t, -98.6, result.Lon)
	assert.Equal(t, "Cherokee, Texas, United States", result.FormattedAddress)
	assert.Equal(t, "Cherokee", result.PlaceName)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, 1.0, counterValue(t, metrics.GeocodeRequests.WithLabelValues("success")))
}

func TestClient_ForwardGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c, metrics := testClient(srv.URL, 5*time.Second)
	result, err := c.ForwardGeocode(context.Background(), "NONEXISTENT", "XX")
	require.NoError(t, err)
	assert.Equal(t, domain.GeocodingResult{}, result)
	assert.Equal(t, 1.0, counterValue(t, metrics.GeocodeRequests.WithLabelValues("empty")))
}

func TestClient_ForwardGeocode_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c, metrics := testClient(srv.URL, 5*time.Second)
	_, err := c.ForwardGeocode(context.Background(), "AUSTIN", "TX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, 1.0, counterValue(t, metrics.GeocodeRequests.WithLabelValues("error")))
}

func TestClient_ForwardGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := testClient(srv.URL, 50*time.Millisecond)
	_, err := c.ForwardGeocode(context.Background(), "AUSTIN", "TX")
	require.Error(t, err)
}
