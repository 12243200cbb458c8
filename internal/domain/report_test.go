package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyReportFile = `Time,F_Scale,Location,County,State,Lat,Lon,Comments
1510,EF2,8 ESE Chappel,San Saba,TX,31.02,-98.44,Barn destroyed. (FWD)
930,UNK,Moore,Cleveland,OK,35.33,-97.49,
Time,Speed,Location,County,State,Lat,Lon,Comments
2045,UNK,2 N Wichita,Sedgwick,KS,37.72,-97.33,"Trees down, power lines down (ICT)"
Time,Size,Location,County,State,Lat,Lon,Comments
1800,175,Norman,Cleveland,OK,,,Golf ball hail. (OUN)
1805,100,Norman
`

func TestParseStormReports_Sections(t *testing.T) {
	reports := ParseStormReports(dailyReportFile, "2024-05-06")

	require.Len(t, reports.Tornado, 2)
	require.Len(t, reports.Wind, 1)
	require.Len(t, reports.Hail, 1, "short hail row is skipped")

	tor := reports.Tornado[0]
	assert.Equal(t, "2024-05-06-tor-0", tor.ID)
	assert.Equal(t, ReportTornado, tor.Type)
	assert.Equal(t, "15:10", *tor.Time)
	assert.Equal(t, "EF2", *tor.Scale)
	assert.Equal(t, 2.0, *tor.EFRating)
	assert.Equal(t, "moderate", *tor.Severity)
	assert.Equal(t, "FWD", tor.SourceOffice)
	assert.Equal(t, "Chappel", tor.PlaceName)
	assert.Equal(t, 8.0, *tor.PlaceDistance)
	assert.Equal(t, "ESE", *tor.PlaceDirection)
	assert.Equal(t, 31.02, *tor.Latitude)

	second := reports.Tornado[1]
	assert.Equal(t, "09:30", *second.Time)
	assert.Nil(t, second.EFRating)
	assert.Nil(t, second.Severity)
	assert.Nil(t, second.Comments)

	wind := reports.Wind[0]
	assert.Equal(t, "2024-05-06-wind-0", wind.ID)
	assert.Nil(t, wind.SpeedMph)
	assert.Equal(t, "Trees down, power lines down (ICT)", *wind.Comments)
	assert.Equal(t, "ICT", wind.SourceOffice)

	hail := reports.Hail[0]
	assert.InDelta(t, 1.75, *hail.SizeInches, 1e-9)
	assert.Equal(t, "severe", *hail.Severity)
	assert.False(t, hail.HasCoordinates())
}

func TestReports_SummaryAndMapped(t *testing.T) {
	reports := ParseStormReports(dailyReportFile, "2024-05-06")

	assert.Equal(t, ReportSummary{Tornadoes: 2, Wind: 1, Hail: 1}, reports.Summary())
	assert.Equal(t, ReportSummary{Tornadoes: 2, Wind: 1, Hail: 0}, reports.Mapped().Summary())
}

func TestParseStormReports_Empty(t *testing.T) {
	reports := ParseStormReports("", "2024-05-06")
	assert.Empty(t, reports.Tornado)
	assert.NotNil(t, reports.Wind)
}

func TestCountTornadoReports(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"full file", dailyReportFile, 2},
		{"empty", "", 0},
		{"header only", "Time,F_Scale,Location,County,State,Lat,Lon,Comments\n", 0},
		{"no tornado section", "Time,Speed,Location\n1200,60,X\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountTornadoReports(tt.text))
		})
	}
}

func TestDisplayTime(t *testing.T) {
	tests := []struct {
		in   string
		want *string
	}{
		{"1510", strPtr("15:10")},
		{"930", strPtr("09:30")},
		{"5", strPtr("00:05")},
		{"UNK", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, displayTime(tt.in))
		})
	}
}

func TestDeriveSeverity(t *testing.T) {
	tests := []struct {
		kind string
		mag  *float64
		want *string
	}{
		{ReportHail, floatPtr(0.5), strPtr("minor")},
		{ReportHail, floatPtr(2.75), strPtr("extreme")},
		{ReportWind, floatPtr(60), strPtr("moderate")},
		{ReportWind, floatPtr(100), strPtr("extreme")},
		{ReportTornado, floatPtr(0), strPtr("minor")},
		{ReportTornado, floatPtr(4), strPtr("severe")},
		{ReportTornado, floatPtr(5), strPtr("extreme")},
		{ReportTornado, nil, nil},
		{"unknown", floatPtr(3), nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, deriveSeverity(tt.kind, tt.mag))
	}
}

func TestParseLocation(t *testing.T) {
	name, dist, dir := parseLocation("8 ESE Chappel")
	assert.Equal(t, "Chappel", name)
	assert.Equal(t, 8.0, *dist)
	assert.Equal(t, "ESE", *dir)

	name, dist, dir = parseLocation("Moore")
	assert.Equal(t, "Moore", name)
	assert.Nil(t, dist)
	assert.Nil(t, dir)
}

func TestDailyFilenames(t *testing.T) {
	assert.Equal(t,
		[]string{"240506_rpts_filtered.csv", "240506_rpts.csv"},
		DailyFilenames(2024, 5, 6))
}
