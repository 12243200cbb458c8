// Package csvtable parses the small, line-oriented CSV documents served by
// NOAA, Treasury, and FRED into header-indexed rows.
//
// SPC daily report files stack several sections in one document, each with
// its own header line, and rows may be shorter than their header. Callers
// therefore work line by line with Lines and SplitLine rather than reading
// a single rectangular table.
package csvtable

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var lineBreakRe = regexp.MustCompile(`\r?\n`)

// Table is a parsed CSV document: the first non-blank line is the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Parse splits text into a header and rows. Blank lines are skipped and every
// field is trimmed. Empty input yields an empty Table, not an error.
func Parse(text string) Table {
	lines := Lines(text)
	if len(lines) == 0 {
		return Table{Header: []string{}, Rows: [][]string{}}
	}

	t := Table{
		Header: SplitLine(lines[0]),
		Rows:   make([][]string, 0, len(lines)-1),
	}
	for _, line := range lines[1:] {
		t.Rows = append(t.Rows, SplitLine(line))
	}
	return t
}

// Lines returns the non-blank lines of text, tolerating both \r\n and \n.
// Lines are returned untrimmed so callers can split them with SplitLine.
func Lines(text string) []string {
	raw := lineBreakRe.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// SplitLine splits a single CSV line on commas outside double-quoted spans.
// A doubled quote inside a quoted span is an escaped literal quote.
func SplitLine(line string) []string {
	var (
		fields  []string
		current strings.Builder
		quoted  bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"' && quoted && i+1 < len(line) && line[i+1] == '"':
			current.WriteByte('"')
			i++
		case c == '"':
			quoted = !quoted
		case c == ',' && !quoted:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

// Index returns the position of the column whose header equals name exactly,
// or -1. Use it for columns with fixed casing such as Treasury maturities.
func (t Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// IndexFold is Index with case-insensitive comparison.
func (t Table) IndexFold(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	return -1
}

// IndexMatch returns the first column whose header matches re, or -1.
func (t Table) IndexMatch(re *regexp.Regexp) int {
	for i, h := range t.Header {
		if re.MatchString(h) {
			return i
		}
	}
	return -1
}

// Field returns row[i], or "" when i is out of range.
func Field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Number parses a numeric cell. Blank cells, "N/A", FRED's "." placeholder
// and anything else that is not a finite number are absent. Thousands
// separators are stripped.
func Number(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "N/A" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
