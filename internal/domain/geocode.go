package domain

import (
	"context"
	"log/slog"
)

// Geo sources recorded on a report after enrichment.
const (
	GeoOriginal = "original"
	GeoForward  = "forward"
	GeoFailed   = "failed"
)

// EnrichWithGeocoding fills in coordinates for a report that lacks them by
// forward-geocoding its place name. Reports that already carry coordinates
// are marked "original" and left untouched. Failures degrade gracefully: the
// report is returned unchanged with GeoSource "failed".
func EnrichWithGeocoding(ctx context.Context, report StormReport, geocoder Geocoder, logger *slog.Logger) StormReport {
	if geocoder == nil {
		return report
	}
	if report.HasCoordinates() {
		report.GeoSource = GeoOriginal
		return report
	}
	if report.PlaceName == "" || report.State == nil {
		report.GeoSource = GeoOriginal
		return report
	}

	result, err := geocoder.ForwardGeocode(ctx, report.PlaceName, *report.State)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"report_id", report.ID,
			"location", report.PlaceName,
			"state", *report.State,
			"error", err,
		)
		report.GeoSource = GeoFailed
		return report
	}
	if result.Lat == 0 && result.Lon == 0 {
		report.GeoSource = GeoOriginal
		return report
	}

	lat, lon := result.Lat, result.Lon
	report.Latitude = &lat
	report.Longitude = &lon
	report.FormattedAddress = result.FormattedAddress
	report.GeoConfidence = result.Confidence
	report.GeoSource = GeoForward
	return report
}
