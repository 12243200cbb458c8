// Package domain models the public datasets this service proxies and the
// derived series it builds from them.
//
// # Data Sources
//
// Tornado history comes from the NOAA Storm Prediction Center (SPC):
//
//	Annual datasets:  https://www.spc.noaa.gov/wcm/data/{year}_torn.csv
//	Daily reports:    https://www.spc.noaa.gov/climo/reports/{yymmdd}_rpts_filtered.csv
//	                  https://www.spc.noaa.gov/climo/reports/{yymmdd}_rpts.csv
//
// The annual dataset for the running year is not published until well after
// it ends, so the current year is rebuilt from daily report files and kept in
// an in-process cache (see package yearcache).
//
// Daily report files concatenate three CSV tables. Each section starts with
// its own header row:
//
//	Time,F_Scale,Location,County,State,Lat,Lon,Comments   (tornado)
//	Time,Speed,Location,County,State,Lat,Lon,Comments     (wind)
//	Time,Size,Location,County,State,Lat,Lon,Comments      (hail)
//
// # NWS Data Conventions
//
// Location format:
//
//	"<distance> <compass> <place>"  →  e.g. "8 ESE Chappel"
//	Reports at the named location omit distance and direction.
//
// Time format:
//
//	HHMM in 24-hour notation. Three-digit values are zero-padded: "930" → "09:30".
//
// Magnitudes:
//
//	Hail "Size" is in hundredths of inches (175 = 1.75").
//	Tornado "F_Scale" is an EF rating, possibly prefixed ("EF2") or "UNK".
//	Wind "Speed" is mph, or "UNK".
//
// Office codes appear in parentheses at the end of comments: "(OUN)".
//
// # Cumulative Series
//
// A [YearSeries] is a per-day count walked forward from the first reported
// day of the year. cumulative[i] always equals the sum of daily[0..i].
// All dates are UTC calendar dates formatted YYYY-MM-DD.
//
// # Nullability
//
// Upstream financial fields are loosely typed and frequently missing. Every
// derived metric is a *float64: absent and invalid inputs both produce nil,
// never NaN or a zero that looks like a real value.
package domain
