package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _, _ string) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

// --- tests ---

func TestEnrichWithGeocoding_NilGeocoder(t *testing.T) {
	report := StormReport{ID: "r-1", PlaceName: "AUSTIN", State: strPtr("TX")}

	result := EnrichWithGeocoding(context.Background(), report, nil, discardLogger())

	assert.Empty(t, result.GeoSource)
	assert.False(t, result.HasCoordinates())
}

func TestEnrichWithGeocoding_ForwardGeocode(t *testing.T) {
	geo := &mockGeocoder{
		result: GeocodingResult{
			Lat:              30.2672,
			Lon:              -97.7431,
			FormattedAddress: "Austin, Texas, United States",
			PlaceName:        "Austin",
			Confidence:       0.95,
		},
	}
	report := StormReport{ID: "r-1", PlaceName: "AUSTIN", State: strPtr("TX")}

	result := EnrichWithGeocoding(context.Background(), report, geo, discardLogger())

	require.True(t, result.HasCoordinates())
	assert.Equal(t, 30.2672, *result.Latitude)
	assert.Equal(t, -97.7431, *result.Longitude)
	assert.Equal(t, "Austin, Texas, United States", result.FormattedAddress)
	assert.Equal(t, 0.95, result.GeoConfidence)
	assert.Equal(t, GeoForward, result.GeoSource)
	assert.Equal(t, 1, geo.calls)
}

func TestEnrichWithGeocoding_ExistingCoordinatesSkipLookup(t *testing.T) {
	geo := &mockGeocoder{}
	report := StormReport{ID: "r-2", Latitude: floatPtr(35.1), Longitude: floatPtr(-97.4)}

	result := EnrichWithGeocoding(context.Background(), report, geo, discardLogger())

	assert.Equal(t, GeoOriginal, result.GeoSource)
	assert.Equal(t, 35.1, *result.Latitude)
	assert.Zero(t, geo.calls)
}

func TestEnrichWithGeocoding_ForwardError_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("API timeout")}
	report := StormReport{ID: "r-3", PlaceName: "AUSTIN", State: strPtr("TX")}

	result := EnrichWithGeocoding(context.Background(), report, geo, discardLogger())

	assert.Equal(t, GeoFailed, result.GeoSource)
	assert.False(t, result.HasCoordinates())
}

func TestEnrichWithGeocoding_NoLocationData(t *testing.T) {
	geo := &mockGeocoder{}
	report := StormReport{ID: "r-4"}

	result := EnrichWithGeocoding(context.Background(), report, geo, discardLogger())

	assert.Equal(t, GeoOriginal, result.GeoSource)
	assert.Zero(t, geo.calls)
}

func TestEnrichWithGeocoding_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}
	report := StormReport{ID: "r-5", PlaceName: "NOWHERE", State: strPtr("KS")}

	result := EnrichWithGeocoding(context.Background(), report, geo, discardLogger())

	assert.Equal(t, GeoOriginal, result.GeoSource)
	assert.False(t, result.HasCoordinates())
	assert.Equal(t, 1, geo.calls)
}
