package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/public-data-proxy/internal/csvtable"
	"github.com/couchcryptid/public-data-proxy/internal/datewindow"
)

var requiredTornadoColumns = []string{"yr", "mo", "dy"}

type dayTally struct {
	count, injuries, fatalities int
}

// ParseTornadoYear builds the cumulative series for year from an SPC annual
// tornado dataset. Rows from other years, short rows and rows with
// unparsable dates are skipped. When byState is set, a per-state series is
// built from the "st" column as well.
//
// An empty file yields a series with no points; a header without the yr, mo
// and dy columns is a malformed payload.
func ParseTornadoYear(text string, year int, byState bool) (YearSeries, error) {
	table := csvtable.Parse(text)
	if len(table.Header) == 0 {
		return NewYearSeries(year, nil, true), nil
	}

	idx := make(map[string]int, len(table.Header))
	for i, col := range table.Header {
		idx[strings.ToLower(col)] = i
	}
	var missing []string
	for _, name := range requiredTornadoColumns {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return YearSeries{}, Malformed("spc",
			errors.New("tornado CSV is missing expected columns: "+strings.Join(missing, ", ")))
	}

	injIdx, hasInj := idx["inj"]
	fatIdx, hasFat := idx["fat"]
	stIdx, hasState := idx["st"]

	all := map[int]*dayTally{}
	states := map[string]map[int]*dayTally{}

	for _, row := range table.Rows {
		if len(row) < len(table.Header) {
			continue
		}
		yr, errY := strconv.Atoi(row[idx["yr"]])
		mo, errM := strconv.Atoi(row[idx["mo"]])
		dy, errD := strconv.Atoi(row[idx["dy"]])
		if errY != nil || errM != nil || errD != nil || yr != year {
			continue
		}

		doy := datewindow.DayOfYear(yr, mo, dy)
		var inj, fat int
		if hasInj {
			inj = parseInteger(row[injIdx])
		}
		if hasFat {
			fat = parseInteger(row[fatIdx])
		}
		tally(all, doy, inj, fat)

		if byState && hasState {
			st := strings.ToUpper(strings.TrimSpace(row[stIdx]))
			if st == "" {
				continue
			}
			if states[st] == nil {
				states[st] = map[int]*dayTally{}
			}
			tally(states[st], doy, inj, fat)
		}
	}

	ys := NewYearSeries(year, seriesFromTallies(year, all), true)
	if byState {
		ys.ByState = make(map[string]YearSeries, len(states))
		for st, days := range states {
			ys.ByState[st] = NewYearSeries(year, seriesFromTallies(year, days), true)
		}
	}
	return ys, nil
}

func tally(days map[int]*dayTally, doy, inj, fat int) {
	t, ok := days[doy]
	if !ok {
		t = &dayTally{}
		days[doy] = t
	}
	t.count++
	t.injuries += inj
	t.fatalities += fat
}

func seriesFromTallies(year int, days map[int]*dayTally) []DailyCount {
	keys := make([]int, 0, len(days))
	for k := range days {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]DailyCount, 0, len(keys))
	for _, doy := range keys {
		t := days[doy]
		inj, fat := t.injuries, t.fatalities
		out = append(out, DailyCount{
			DayOfYear:  doy,
			Date:       datewindow.ISOFromDayOfYear(year, doy),
			Daily:      t.count,
			Injuries:   &inj,
			Fatalities: &fat,
		})
	}
	return Cumulate(out)
}

// parseInteger reads a casualty count, treating blanks and garbage as zero.
func parseInteger(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

// EnsembleStats summarizes historical year totals.
type EnsembleStats struct {
	AverageTotal *float64 `json:"averageTotal"`
	MaxTotal     *int     `json:"maxTotal"`
	MinTotal     *int     `json:"minTotal"`
	Count        int      `json:"count"`
}

// ComputeEnsembleStats averages the totals of every year except the current
// and comparison years. comparisonYear of 0 excludes nothing extra.
func ComputeEnsembleStats(years []YearSeries, currentYear, comparisonYear int) EnsembleStats {
	var stats EnsembleStats
	sum := 0
	for _, y := range years {
		if y.Year == currentYear || (comparisonYear != 0 && y.Year == comparisonYear) {
			continue
		}
		t := y.TotalReports
		sum += t
		stats.Count++
		if stats.MaxTotal == nil || t > *stats.MaxTotal {
			v := t
			stats.MaxTotal = &v
		}
		if stats.MinTotal == nil || t < *stats.MinTotal {
			v := t
			stats.MinTotal = &v
		}
	}
	if stats.Count > 0 {
		avg := float64(sum) / float64(stats.Count)
		stats.AverageTotal = &avg
	}
	return stats
}

// DailyFilenames lists the SPC daily report file names tried for a date,
// filtered first.
func DailyFilenames(year int, month int, day int) []string {
	base := fmt.Sprintf("%02d%02d%02d", year%100, month, day)
	return []string{base + "_rpts_filtered.csv", base + "_rpts.csv"}
}
