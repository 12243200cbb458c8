package aggregate

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/public-data-proxy/internal/adapter/bls"
	"github.com/couchcryptid/public-data-proxy/internal/domain"
	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

// fakeLabor answers every query with one annual observation per year for the
// first requested series only. Chunks also repeat the year before their
// start with a marker value, which the merge must discard.
type fakeLabor struct {
	queries  []bls.Query
	failFrom int
}

func (f *fakeLabor) Source() string { return bls.DefaultURL }

func (f *fakeLabor) Fetch(_ context.Context, q bls.Query) (bls.Response, error) {
	f.queries = append(f.queries, q)
	if f.failFrom != 0 && q.StartYear >= f.failFrom {
		return bls.Response{}, &domain.StatusError{Provider: "bls", StatusCode: http.StatusServiceUnavailable}
	}
	if q.Latest > 0 {
		rt := 12
		return bls.Response{
			Series:       []bls.Series{{SeriesID: q.SeriesIDs[0], Data: []bls.Observation{{Year: "2025", Period: "M08", Value: "4.3"}}}},
			ResponseTime: &rt,
			Message:      []string{"ok"},
		}, nil
	}
	var data []bls.Observation
	for y := q.EndYear; y >= q.StartYear; y-- {
		data = append(data, bls.Observation{Year: strconv.Itoa(y), Period: "M13", Value: strconv.Itoa(y)})
	}
	data = append(data, bls.Observation{Year: strconv.Itoa(q.StartYear - 1), Period: "M13", Value: "stale"})
	return bls.Response{Series: []bls.Series{{SeriesID: q.SeriesIDs[0], Data: data}}}, nil
}

func TestLaborSeries_ChunksRange(t *testing.T) {
	src := &fakeLabor{}
	metrics := observability.NewMetricsForTesting()
	svc := NewLaborSeries(src, 10, clockAt(2025, time.June, 1, 12), metrics, testLogger())

	res, err := svc.Run(context.Background(), LaborRequest{
		SeriesIDs: []string{" lns14000000 ", "CES0000000001", "LNS14000000"},
		StartYear: 2001,
		EndYear:   2025,
	})
	require.NoError(t, err)

	require.Len(t, src.queries, 3)
	assert.Equal(t, []string{"LNS14000000", "CES0000000001"}, src.queries[0].SeriesIDs)
	assert.Equal(t, [2]int{2001, 2010}, [2]int{src.queries[0].StartYear, src.queries[0].EndYear})
	assert.Equal(t, [2]int{2021, 2025}, [2]int{src.queries[2].StartYear, src.queries[2].EndYear})

	require.Len(t, res.Series, 1, "series the API never returned are omitted")
	data := res.Series[0].Data
	assert.Equal(t, "2025", data[0].Year)
	for _, o := range data {
		if o.Year == "2010" || o.Year == "2020" {
			assert.Equal(t, o.Year, o.Value, "the chunk that owns the year wins")
		}
	}
	assert.Equal(t, "stale", data[len(data)-1].Value, "the year before the range only appears once")
	assert.Empty(t, res.Errors)
	assert.Equal(t, bls.DefaultURL, res.Source)
	assert.Equal(t, 1.0, counterValue(t, metrics.BatchOutcomes.WithLabelValues("bls", "complete")))
}

func TestLaborSeries_Latest(t *testing.T) {
	src := &fakeLabor{}
	svc := NewLaborSeries(src, 0, clockAt(2025, time.June, 1, 12), observability.NewMetricsForTesting(), testLogger())

	res, err := svc.Run(context.Background(), LaborRequest{SeriesIDs: []string{"LNS14000000"}, Latest: 1})
	require.NoError(t, err)
	require.Len(t, src.queries, 1)
	assert.Equal(t, 1, src.queries[0].Latest)
	assert.Equal(t, 12, *res.ResponseTime)
	assert.Equal(t, []string{"ok"}, res.Message)
	assert.Equal(t, bls.DefaultURL, res.Source)
}

func TestLaborSeries_NegativeLatestAsksForOnePeriod(t *testing.T) {
	src := &fakeLabor{}
	svc := NewLaborSeries(src, 10, clockAt(2025, time.June, 1, 12), observability.NewMetricsForTesting(), testLogger())

	res, err := svc.Run(context.Background(), LaborRequest{SeriesIDs: []string{"LNS14000000"}, Latest: -4})
	require.NoError(t, err)
	require.Len(t, src.queries, 1)
	assert.Equal(t, 1, src.queries[0].Latest)
	assert.Zero(t, src.queries[0].StartYear)
	require.Len(t, res.Series, 1)
}

func TestLaborSeries_PartialChunks(t *testing.T) {
	src := &fakeLabor{failFrom: 2011}
	svc := NewLaborSeries(src, 10, clockAt(2025, time.June, 1, 12), observability.NewMetricsForTesting(), testLogger())

	res, err := svc.Run(context.Background(), LaborRequest{SeriesIDs: []string{"LNS14000000"}, StartYear: 2001, EndYear: 2025})
	require.NoError(t, err)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, "2011-2020", res.Errors[0].Unit)
	assert.Equal(t, http.StatusServiceUnavailable, res.Errors[0].Status)
}

func TestLaborSeries_AllChunksFailed(t *testing.T) {
	src := &fakeLabor{failFrom: 1}
	svc := NewLaborSeries(src, 10, clockAt(2025, time.June, 1, 12), observability.NewMetricsForTesting(), testLogger())

	_, err := svc.Run(context.Background(), LaborRequest{SeriesIDs: []string{"LNS14000000"}, StartYear: 2020})
	var be *domain.BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusBadGateway, be.Status)
	require.Len(t, be.Errors, 1)
	assert.Equal(t, "2020-2025", be.Errors[0].Unit)
}

func TestLaborSeries_Validation(t *testing.T) {
	svc := NewLaborSeries(&fakeLabor{}, 10, clockAt(2025, time.June, 1, 12), observability.NewMetricsForTesting(), testLogger())

	tests := []struct {
		name string
		req  LaborRequest
	}{
		{"no ids", LaborRequest{SeriesIDs: []string{" ", ""}}},
		{"reversed range", LaborRequest{SeriesIDs: []string{"X"}, StartYear: 2020, EndYear: 2010}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		})
	}
}

func TestYearChunks(t *testing.T) {
	assert.Equal(t, [][2]int{{2000, 2009}, {2010, 2019}, {2020, 2024}}, yearChunks(2000, 2024, 10))
	assert.Equal(t, [][2]int{{2024, 2024}}, yearChunks(2024, 2024, 10))
}
