package analytics

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailyPoints builds one point per calendar day ending at end.
func dailyPoints(end time.Time, values ...float64) []Point {
	out := make([]Point, len(values))
	start := end.AddDate(0, 0, -(len(values) - 1))
	for i, v := range values {
		out[i] = Point{Date: start.AddDate(0, 0, i), Value: f(v)}
	}
	return out
}

func TestCalendarReturn_FlatSeriesIsZero(t *testing.T) {
	values := make([]float64, 800)
	for i := range values {
		values[i] = 42
	}
	points := dailyPoints(day(2025, time.June, 30), values...)

	for _, w := range DefaultWindows {
		t.Run(w.Name, func(t *testing.T) {
			got := CalendarReturn(points, w)
			require.NotNil(t, got)
			assert.Zero(t, *got)
		})
	}
}

func TestCalendarReturn(t *testing.T) {
	points := []Point{
		{Date: day(2025, time.January, 2), Value: f(100)},
		{Date: day(2025, time.January, 31), Value: f(110)},
		{Date: day(2025, time.February, 28), Value: f(121)},
		{Date: day(2025, time.March, 31), Value: f(133.1)},
	}

	// Mar 31 minus one month clamps to Feb 28.
	oneMonth := CalendarReturn(points, Window{Name: "1m", Months: 1})
	require.NotNil(t, oneMonth)
	assert.InDelta(t, 0.1, *oneMonth, 1e-9)

	ytd := CalendarReturn(points, Window{Name: "ytd", YearStart: true})
	assert.Nil(t, ytd, "no point on or before Jan 1")

	oneDay := CalendarReturn(points, Window{Name: "1d", Days: 1})
	require.NotNil(t, oneDay)
	assert.InDelta(t, 0.1, *oneDay, 1e-9)
}

func TestCalendarReturn_NullCases(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
	}{
		{"empty", nil},
		{"single", []Point{{Date: day(2025, 1, 1), Value: f(1)}}},
		{"latest missing", []Point{{Date: day(2025, 1, 1), Value: f(1)}, {Date: day(2025, 1, 2)}}},
		{"zero reference", []Point{{Date: day(2025, 1, 1), Value: f(0)}, {Date: day(2025, 1, 2), Value: f(5)}}},
		{"missing reference", []Point{{Date: day(2025, 1, 1)}, {Date: day(2025, 1, 2), Value: f(5)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, CalendarReturn(tt.points, Window{Days: 1}))
		})
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   *float64
	}{
		{"strictly increasing", []float64{1, 2, 3, 4}, f(0)},
		{"halves and stays", []float64{10, 20, 15, 10}, f(-0.5)},
		{"recovers", []float64{100, 80, 120, 90}, f(-0.25)},
		{"too short", []float64{5}, nil},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.values)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-12)
		})
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	// Returns alternate +10% / -10%: sample stddev of {0.1, -0.1, 0.1}.
	values := []float64{100, 110, 99, 108.9}
	got := AnnualizedVolatility(values)
	require.NotNil(t, got)

	mean := 0.1 / 3
	ss := math.Pow(0.1-mean, 2)*2 + math.Pow(-0.1-mean, 2)
	want := math.Sqrt(ss/2) * math.Sqrt(252)
	assert.InDelta(t, want, *got, 1e-9)
}

func TestAnnualizedVolatility_NeedsTwoReturns(t *testing.T) {
	assert.Nil(t, AnnualizedVolatility([]float64{100, 101}))
	assert.Nil(t, AnnualizedVolatility([]float64{0, 0, 5}), "non-positive denominators are skipped")
}

func TestMovingAverage(t *testing.T) {
	values := []*float64{f(1), nil, f(3), f(5), nil}
	got := MovingAverage(values, 3)
	require.NotNil(t, got)
	assert.Equal(t, 4.0, *got)

	assert.Nil(t, MovingAverage([]*float64{nil, nil}, 200))
	assert.Nil(t, MovingAverage(nil, 200))
}

func TestRange(t *testing.T) {
	low, high := Range([]float64{3, 1, 2})
	assert.Equal(t, 1.0, *low)
	assert.Equal(t, 3.0, *high)

	low, high = Range(nil)
	assert.Nil(t, low)
	assert.Nil(t, high)
}

func TestValuate_ImpliedReturnAndRule72(t *testing.T) {
	v := Valuate(ValuationInput{
		Price:                f(150),
		BookValuePerShare:    f(120),
		TangibleBookPerShare: f(100),
		ReturnOnEquity:       f(0.12),
		RequiredReturn:       0.11,
	})

	require.NotNil(t, v.PriceToTangibleBook)
	assert.InDelta(t, 1.5, *v.PriceToTangibleBook, 1e-12)
	assert.InDelta(t, 1.25, *v.PriceToBook, 1e-12)
	assert.InDelta(t, 0.08, *v.ImpliedBuybackReturn, 1e-12)
	assert.InDelta(t, 9.0, *v.Rule72PaybackYears, 1e-9)
	assert.InDelta(t, 0.5/0.12, *v.PremiumPaybackYears, 1e-9)
	assert.InDelta(t, 0.12/0.11, *v.RedZoneThresholdPTBV, 1e-12)
	assert.InDelta(t, 1.5/(0.12/0.11)-1, *v.RedZoneDelta, 1e-12)
}

func TestValuate_MissingInputsPropagateNil(t *testing.T) {
	v := Valuate(ValuationInput{Price: f(50), RequiredReturn: 0.12})

	assert.Nil(t, v.PriceToBook)
	assert.Nil(t, v.PriceToTangibleBook)
	assert.Nil(t, v.ImpliedBuybackReturn)
	assert.Nil(t, v.Rule72PaybackYears)
	assert.Nil(t, v.PremiumPaybackYears)
	assert.Nil(t, v.RedZoneThresholdPTBV)
	assert.Nil(t, v.RedZoneDelta)
}

func TestImpliedBuybackReturn_FallsBackToROE(t *testing.T) {
	got := ImpliedBuybackReturn(f(0.1), nil)
	require.NotNil(t, got)
	assert.Equal(t, 0.1, *got)

	got = ImpliedBuybackReturn(f(0.1), f(-2))
	assert.Equal(t, 0.1, *got)
}

func TestPremiumPaybackYears(t *testing.T) {
	assert.Equal(t, 0.0, *PremiumPaybackYears(f(0.9), nil))
	assert.Equal(t, 0.0, *PremiumPaybackYears(f(1), f(0.1)))
	assert.Nil(t, PremiumPaybackYears(f(1.2), f(-0.05)))
	assert.Nil(t, PremiumPaybackYears(nil, f(0.1)))
}

func TestNormalizePriceToBook(t *testing.T) {
	assert.InDelta(t, 1.5, *NormalizePriceToBook(f(150)), 1e-12)
	assert.Equal(t, 1.5, *NormalizePriceToBook(f(1.5)))
	assert.Equal(t, 1200.0, *NormalizePriceToBook(f(1200)))
	assert.Nil(t, NormalizePriceToBook(nil))
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"float", 1.5, f(1.5)},
		{"int", 3, f(3)},
		{"string", " 2.25 ", f(2.25)},
		{"blank", "", nil},
		{"garbage", "n/a", nil},
		{"nan string", "NaN", nil},
		{"raw object", map[string]any{"raw": 0.12, "fmt": "12%"}, f(0.12)},
		{"empty object", map[string]any{}, nil},
		{"json number", json.Number("7"), f(7)},
		{"bool", true, nil},
		{"nil", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Number(tt.in))
		})
	}
}

func TestFirstOf_OrderIsContract(t *testing.T) {
	m := Modules{
		"price":                {"sharesOutstanding": nil},
		"defaultKeyStatistics": {"sharesOutstanding": "1000"},
		"summaryDetail":        {"sharesOutstanding": 2000.0},
	}

	v, src := FirstOf(
		m.Field("price", "sharesOutstanding"),
		m.Field("defaultKeyStatistics", "sharesOutstanding"),
		m.Field("summaryDetail", "sharesOutstanding"),
	)
	require.NotNil(t, v)
	assert.Equal(t, 1000.0, *v)
	assert.Equal(t, "defaultKeyStatistics.sharesOutstanding", src)

	v, src = FirstOf(m.Field("missing", "x"), Derived("fallback", func() *float64 { return f(9) }))
	assert.Equal(t, 9.0, *v)
	assert.Equal(t, "fallback", src)

	assert.Nil(t, Value(m.Field("missing", "x")))
}

func TestRequiredReturns_Lookup(t *testing.T) {
	assert.Equal(t, 0.085, DefaultRequiredReturns.Lookup("BRK-B").RequiredReturn)
	assert.Equal(t, "14%+", DefaultRequiredReturns.Lookup("rnr").Label)
	assert.Equal(t, BaseRequiredReturn, DefaultRequiredReturns.Lookup("ZZZZ"))

	custom := DefaultRequiredReturns.Merge(RequiredReturns{"CS.PA": {Label: "Custom", RequiredReturn: 0.09}})
	assert.Equal(t, 0.09, custom.Lookup("CS.PA").RequiredReturn)
	assert.Equal(t, BaseRequiredReturn, DefaultRequiredReturns.Lookup("CS.PA"), "merge does not mutate the receiver")
}
