package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/public-data-proxy/internal/csvtable"
)

// Report types as they appear in the daily SPC report file.
const (
	ReportTornado = "tornado"
	ReportWind    = "wind"
	ReportHail    = "hail"
)

var (
	sectionHeaders = []struct {
		kind string
		re   *regexp.Regexp
	}{
		{ReportTornado, regexp.MustCompile(`(?i)^Time\s*,\s*F_Scale`)},
		{ReportWind, regexp.MustCompile(`(?i)^Time\s*,\s*Speed`)},
		{ReportHail, regexp.MustCompile(`(?i)^Time\s*,\s*Size`)},
	}

	numericRe = regexp.MustCompile(`-?\d+(\.\d+)?`)
	nonDigit  = regexp.MustCompile(`\D`)

	// sourceOfficeRe matches a 3-5 letter NWS office code in parentheses at the
	// end of a comment, e.g. "Quarter hail reported. (FWD)" -> "FWD".
	sourceOfficeRe = regexp.MustCompile(`\(([A-Z]{3,5})\)\s*$`)

	// locationRe parses NWS-style relative locations: "<distance> <compass> <name>",
	// e.g. "8 ESE Chappel" -> distance=8, direction=ESE, name=Chappel.
	locationRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s+([NSEW]{1,3})\s+(.+)$`)
)

// StormReport is one row of a daily SPC report file.
type StormReport struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Time       *string  `json:"time"`
	RawTime    *string  `json:"rawTime"`
	Scale      *string  `json:"scale,omitempty"`
	EFRating   *float64 `json:"efRating,omitempty"`
	SpeedMph   *float64 `json:"speedMph,omitempty"`
	SizeInches *float64 `json:"sizeInches,omitempty"`
	Severity   *string  `json:"severity,omitempty"`
	Location   *string  `json:"location"`
	County     *string  `json:"county"`
	State      *string  `json:"state"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Comments   *string  `json:"comments"`

	SourceOffice     string   `json:"sourceOffice,omitempty"`
	PlaceName        string   `json:"placeName,omitempty"`
	PlaceDistance    *float64 `json:"placeDistanceMiles,omitempty"`
	PlaceDirection   *string  `json:"placeDirection,omitempty"`
	FormattedAddress string   `json:"formattedAddress,omitempty"`
	GeoConfidence    float64  `json:"geoConfidence,omitempty"`
	GeoSource        string   `json:"geoSource,omitempty"`
}

// HasCoordinates reports whether the report can be placed on a map.
func (r StormReport) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Reports groups one day's reports by section.
type Reports struct {
	Tornado []StormReport `json:"tornado"`
	Wind    []StormReport `json:"wind"`
	Hail    []StormReport `json:"hail"`
}

// ReportSummary counts reports per section.
type ReportSummary struct {
	Tornadoes int `json:"tornadoes"`
	Wind      int `json:"wind"`
	Hail      int `json:"hail"`
}

// Summary counts the reports in each section.
func (r Reports) Summary() ReportSummary {
	return ReportSummary{Tornadoes: len(r.Tornado), Wind: len(r.Wind), Hail: len(r.Hail)}
}

// Mapped returns only the reports that carry both coordinates.
func (r Reports) Mapped() Reports {
	return Reports{
		Tornado: withCoordinates(r.Tornado),
		Wind:    withCoordinates(r.Wind),
		Hail:    withCoordinates(r.Hail),
	}
}

// Each calls fn with a pointer to every report, in section order.
func (r *Reports) Each(fn func(*StormReport)) {
	for _, section := range [][]StormReport{r.Tornado, r.Wind, r.Hail} {
		for i := range section {
			fn(&section[i])
		}
	}
}

func withCoordinates(in []StormReport) []StormReport {
	out := make([]StormReport, 0, len(in))
	for _, r := range in {
		if r.HasCoordinates() {
			out = append(out, r)
		}
	}
	return out
}

func sectionOf(line string) (string, bool) {
	for _, h := range sectionHeaders {
		if h.re.MatchString(line) {
			return h.kind, true
		}
	}
	return "", false
}

// ParseStormReports splits a daily report file into its tornado, wind and
// hail sections. Rows before the first section header, and rows with fewer
// than seven columns, are skipped. isoDate seeds the report IDs.
func ParseStormReports(text, isoDate string) Reports {
	reports := Reports{Tornado: []StormReport{}, Wind: []StormReport{}, Hail: []StormReport{}}
	section := ""

	for _, raw := range csvtable.Lines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if kind, ok := sectionOf(line); ok {
			section = kind
			continue
		}
		if section == "" {
			continue
		}

		cols := csvtable.SplitLine(line)
		if len(cols) < 7 {
			continue
		}

		switch section {
		case ReportTornado:
			r := newReport(cols, fmt.Sprintf("%s-tor-%d", isoDate, len(reports.Tornado)), ReportTornado)
			r.Scale = nonEmpty(cols[1])
			r.EFRating = extractNumeric(cols[1])
			r.Severity = deriveSeverity(ReportTornado, r.EFRating)
			reports.Tornado = append(reports.Tornado, r)
		case ReportWind:
			r := newReport(cols, fmt.Sprintf("%s-wind-%d", isoDate, len(reports.Wind)), ReportWind)
			r.SpeedMph = extractNumeric(cols[1])
			r.Severity = deriveSeverity(ReportWind, r.SpeedMph)
			reports.Wind = append(reports.Wind, r)
		case ReportHail:
			r := newReport(cols, fmt.Sprintf("%s-hail-%d", isoDate, len(reports.Hail)), ReportHail)
			// Size is reported in hundredths of an inch.
			if v := extractNumeric(cols[1]); v != nil {
				in := *v / 100
				r.SizeInches = &in
			}
			r.Severity = deriveSeverity(ReportHail, r.SizeInches)
			reports.Hail = append(reports.Hail, r)
		}
	}
	return reports
}

func newReport(cols []string, id, kind string) StormReport {
	r := StormReport{
		ID:        id,
		Type:      kind,
		Time:      displayTime(cols[0]),
		RawTime:   nonEmpty(cols[0]),
		Location:  nonEmpty(cols[2]),
		County:    nonEmpty(cols[3]),
		State:     nonEmpty(cols[4]),
		Latitude:  parseFloat(cols[5]),
		Longitude: parseFloat(cols[6]),
	}
	if len(cols) > 7 {
		r.Comments = nonEmpty(strings.TrimSpace(strings.Join(cols[7:], ", ")))
	}
	if r.Comments != nil {
		r.SourceOffice = extractSourceOffice(*r.Comments)
	}
	if r.Location != nil {
		r.PlaceName, r.PlaceDistance, r.PlaceDirection = parseLocation(*r.Location)
	}
	return r
}

// CountTornadoReports counts the data rows of the tornado section of a daily
// report file. Rows are counted without column validation.
func CountTornadoReports(text string) int {
	inTornado := false
	count := 0
	for _, raw := range csvtable.Lines(text) {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if kind, ok := sectionOf(line); ok {
			if kind == ReportTornado {
				inTornado = true
				continue
			}
			if inTornado {
				break
			}
			continue
		}
		if inTornado {
			count++
		}
	}
	return count
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// parseFloat parses a finite float, returning nil for blanks and garbage.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// extractNumeric returns the first signed decimal embedded in s ("EF2" -> 2).
func extractNumeric(s string) *float64 {
	m := numericRe.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

// displayTime renders an HHMM field as "HH:MM" ("930" -> "09:30").
func displayTime(raw string) *string {
	digits := nonDigit.ReplaceAllString(raw, "")
	if digits == "" {
		return nil
	}
	for len(digits) < 4 {
		digits = "0" + digits
	}
	s := digits[:2] + ":" + digits[2:4]
	return &s
}

// deriveSeverity maps magnitude to a severity label based on operational thresholds
// informed by NWS Severe Weather Criteria and the Enhanced Fujita Scale:
//   - hail: <0.75in minor, <1.5in moderate, <2.5in severe, else extreme
//   - wind: <50mph minor, <74mph moderate, <96mph severe, else extreme
//   - tornado: EF0-1 minor, EF2 moderate, EF3-4 severe, EF5 extreme
//
// Returns nil when the magnitude is unknown. EF0 is a real rating, so a zero
// tornado magnitude is still classified.
func deriveSeverity(kind string, magnitude *float64) *string {
	if magnitude == nil {
		return nil
	}
	m := *magnitude

	var s string
	switch kind {
	case ReportHail:
		switch {
		case m <= 0:
			return nil
		case m < 0.75:
			s = "minor"
		case m < 1.5:
			s = "moderate"
		case m < 2.5:
			s = "severe"
		default:
			s = "extreme"
		}
	case ReportWind:
		switch {
		case m <= 0:
			return nil
		case m < 50:
			s = "minor"
		case m < 74:
			s = "moderate"
		case m < 96:
			s = "severe"
		default:
			s = "extreme"
		}
	case ReportTornado:
		switch {
		case m <= 1:
			s = "minor"
		case m == 2:
			s = "moderate"
		case m <= 4:
			s = "severe"
		default:
			s = "extreme"
		}
	default:
		return nil
	}
	return &s
}

// extractSourceOffice pulls the NWS Weather Forecast Office (WFO) code from the
// end of a comment string, e.g. "Large hail reported. (OUN)" -> "OUN".
func extractSourceOffice(comments string) string {
	matches := sourceOfficeRe.FindStringSubmatch(strings.TrimSpace(comments))
	if len(matches) == 2 {
		return matches[1]
	}
	return ""
}

// parseLocation splits an NWS relative location string into (name, distance, direction).
// Returns the raw string as name with nil distance/direction if parsing fails.
func parseLocation(location string) (string, *float64, *string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", nil, nil
	}

	matches := locationRe.FindStringSubmatch(location)
	if len(matches) != 4 {
		return location, nil, nil
	}

	distance, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return location, nil, nil
	}
	direction := matches[2]
	return strings.TrimSpace(matches[3]), &distance, &direction
}
