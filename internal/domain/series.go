package domain

import "time"

// DatedValue is a single observation of a date-keyed numeric series.
type DatedValue struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// DailyCount is one day of a cumulative report-count series.
type DailyCount struct {
	DayOfYear  int    `json:"dayOfYear"`
	Date       string `json:"date"`
	Cumulative int    `json:"cumulative"`
	Daily      int    `json:"daily"`
	Injuries   *int   `json:"injuries"`
	Fatalities *int   `json:"fatalities"`
}

// YearSeries is the cumulative tornado-report series for one calendar year.
type YearSeries struct {
	Year            int                   `json:"year"`
	Series          []DailyCount          `json:"series"`
	TotalReports    int                   `json:"totalReports"`
	Injuries        *int                  `json:"injuries"`
	Fatalities      *int                  `json:"fatalities"`
	FirstReportDate *string               `json:"firstReportDate"`
	LastReportDate  *string               `json:"lastReportDate"`
	Source          string                `json:"source,omitempty"`
	ByState         map[string]YearSeries `json:"byState,omitempty"`
}

// Latest returns the last point of the series, or nil when it is empty.
func (y YearSeries) Latest() *DailyCount {
	if len(y.Series) == 0 {
		return nil
	}
	p := y.Series[len(y.Series)-1]
	return &p
}

// Cumulate rewrites the Cumulative field of counts as a running sum of Daily,
// starting from zero. It returns counts for chaining.
func Cumulate(counts []DailyCount) []DailyCount {
	total := 0
	for i := range counts {
		total += counts[i].Daily
		counts[i].Cumulative = total
	}
	return counts
}

// NewYearSeries derives totals and first/last dates from an already
// cumulated series. Casualty totals are summed only when withCasualties is set;
// otherwise they stay nil (daily report files carry no casualty columns).
func NewYearSeries(year int, counts []DailyCount, withCasualties bool) YearSeries {
	ys := YearSeries{Year: year, Series: counts}
	if counts == nil {
		ys.Series = []DailyCount{}
	}

	if withCasualties {
		var injuries, fatalities int
		for _, c := range counts {
			if c.Injuries != nil {
				injuries += *c.Injuries
			}
			if c.Fatalities != nil {
				fatalities += *c.Fatalities
			}
		}
		ys.Injuries = &injuries
		ys.Fatalities = &fatalities
	}

	if len(counts) > 0 {
		first := counts[0].Date
		last := counts[len(counts)-1].Date
		ys.FirstReportDate = &first
		ys.LastReportDate = &last
		ys.TotalReports = counts[len(counts)-1].Cumulative
	}
	return ys
}

// PriceSeriesPoint is one daily bar of an equity price history.
type PriceSeriesPoint struct {
	Date     time.Time
	AdjClose *float64
	Close    *float64
	Volume   *float64
}

// Snapshot summarizes the current-year tornado series for downstream consumers.
type Snapshot struct {
	Year           int       `json:"year"`
	TotalReports   int       `json:"total_reports"`
	LastReportDate string    `json:"last_report_date"`
	Days           int       `json:"days"`
	GeneratedAt    time.Time `json:"generated_at"`
}
