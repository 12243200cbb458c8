package aggregate

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/spc"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

const reportFile = `Time,F_Scale,Location,County,State,Lat,Lon,Comments
1510,EF2,8 ESE Chappel,San Saba,TX,31.02,-98.44,Barn destroyed. (FWD)
Time,Speed,Location,County,State,Lat,Lon,Comments
2045,UNK,2 N Wichita,Sedgwick,KS,37.72,-97.33,Trees down (ICT)
Time,Size,Location,County,State,Lat,Lon,Comments
1800,175,Norman,Cleveland,OK,,,Golf ball hail. (OUN)
`

type fakeReports struct {
	files     map[string]string
	requested []string
}

func (f *fakeReports) FetchDailyReport(_ context.Context, date time.Time) (spc.DailyReport, error) {
	iso := datewindow.FormatISO(date)
	f.requested = append(f.requested, iso)
	text, ok := f.files[iso]
	if !ok {
		return spc.DailyReport{}, fmt.Errorf("storm reports for %s: %w", iso, domain.ErrNotYetPublished)
	}
	return spc.DailyReport{Date: date, URL: "https://spc.test/" + iso + ".csv", Text: text}, nil
}

type fakeGeocoder struct {
	mu    sync.Mutex
	calls []string
}

func (g *fakeGeocoder) ForwardGeocode(_ context.Context, name, state string) (domain.GeocodingResult, error) {
	g.mu.Lock()
	g.calls = append(g.calls, name+"|"+state)
	g.mu.Unlock()
	return domain.GeocodingResult{Lat: 35.22, Lon: -97.44, FormattedAddress: "Norman, Oklahoma", Confidence: 0.9}, nil
}

func TestStormReports_FallsBackToYesterday(t *testing.T) {
	src := &fakeReports{files: map[string]string{"2025-05-19": reportFile}}
	svc := NewStormReports(src, nil, clockAt(2025, time.May, 20, 9), observability.NewMetricsForTesting(), testLogger())

	res, err := svc.Run(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"2025-05-20", "2025-05-19"}, src.requested)
	assert.Equal(t, "2025-05-19", res.Date)
	assert.Equal(t, "2025-05-20", res.RequestedDate)
	assert.Equal(t, "https://spc.test/2025-05-19.csv", res.Source)
	assert.Equal(t, domain.ReportSummary{Tornadoes: 1, Wind: 1, Hail: 1}, res.Summary)
	assert.Equal(t, domain.ReportSummary{Tornadoes: 1, Wind: 1, Hail: 0}, res.MappedCounts)
	assert.Empty(t, res.Reports.Hail)
}

func TestStormReports_PastDateDoesNotFallBack(t *testing.T) {
	src := &fakeReports{files: map[string]string{"2025-05-09": reportFile}}
	svc := NewStormReports(src, nil, clockAt(2025, time.May, 20, 9), observability.NewMetricsForTesting(), testLogger())

	_, err := svc.Run(context.Background(), "2025-05-10")
	var be *domain.BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusNotFound, be.Status)
	assert.Equal(t, "No SPC storm reports were found for the requested date or the previous day.", be.Message)
	assert.Equal(t, []string{"2025-05-10"}, src.requested)
}

func TestStormReports_InvalidDate(t *testing.T) {
	svc := NewStormReports(&fakeReports{}, nil, clockAt(2025, time.May, 20, 9), observability.NewMetricsForTesting(), testLogger())

	for _, date := range []string{"2025-5-1", "yesterday", "2025-02-30"} {
		t.Run(date, func(t *testing.T) {
			_, err := svc.Run(context.Background(), date)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestStormReports_GeocodesReportsWithoutCoordinates(t *testing.T) {
	src := &fakeReports{files: map[string]string{"2025-05-10": reportFile}}
	geo := &fakeGeocoder{}
	svc := NewStormReports(src, geo, clockAt(2025, time.May, 20, 9), observability.NewMetricsForTesting(), testLogger())

	res, err := svc.Run(context.Background(), "2025-05-10")
	require.NoError(t, err)

	assert.Equal(t, []string{"Norman|OK"}, geo.calls)
	assert.Equal(t, domain.ReportSummary{Tornadoes: 1, Wind: 1, Hail: 1}, res.MappedCounts)
	require.Len(t, res.Reports.Hail, 1)
	hail := res.Reports.Hail[0]
	assert.Equal(t, domain.GeoForward, hail.GeoSource)
	assert.Equal(t, 35.22, *hail.Latitude)
	assert.Equal(t, "Norman, Oklahoma", hail.FormattedAddress)
}
