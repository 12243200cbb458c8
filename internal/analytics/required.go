package analytics

import (
	"regexp"
	"strings"

	"github.com/couchcryptid/public-data-proxy/internal/domain"
)

var tickerKeyRe = regexp.MustCompile(`[^A-Za-z0-9]`)

// BaseRequiredReturn applies to tickers with no assigned bucket.
var BaseRequiredReturn = domain.RequiredReturn{Label: "Base", RequiredReturn: 0.12}

// RequiredReturns maps a normalized ticker key to its hurdle-rate bucket.
// The assignments are configuration data, not derived.
type RequiredReturns map[string]domain.RequiredReturn

// TickerKey normalizes a ticker for bucket lookup: every character outside
// [A-Za-z0-9] becomes "_" ("BRK-B" -> "BRK_B").
func TickerKey(ticker string) string {
	return strings.ToUpper(tickerKeyRe.ReplaceAllString(ticker, "_"))
}

// Lookup returns the bucket for ticker, or BaseRequiredReturn.
func (r RequiredReturns) Lookup(ticker string) domain.RequiredReturn {
	if rr, ok := r[TickerKey(ticker)]; ok {
		return rr
	}
	return BaseRequiredReturn
}

// Merge returns a copy of r with overrides applied. Override keys are
// normalized the same way lookups are.
func (r RequiredReturns) Merge(overrides RequiredReturns) RequiredReturns {
	out := make(RequiredReturns, len(r)+len(overrides))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range overrides {
		out[TickerKey(k)] = v
	}
	return out
}

func bucket(label string, rate float64, tickers ...string) RequiredReturns {
	out := make(RequiredReturns, len(tickers))
	for _, t := range tickers {
		out[t] = domain.RequiredReturn{Label: label, RequiredReturn: rate}
	}
	return out
}

// DefaultRequiredReturns is the built-in bucket table.
var DefaultRequiredReturns = bucket("7-10%", 0.085,
	"ALL", "AFG", "AMSF", "AIZ", "BRK_B", "CB", "HIG", "PGR", "SAFT", "TRV",
).Merge(bucket("10-12%", 0.11,
	"AIG", "ACGL", "AXS", "BOW", "CINF", "CNA", "EIG", "FFH_T", "THG", "HMN",
	"KMPR", "KNSL", "LMND", "PLMR", "SPNT",
)).Merge(bucket("12-14%", 0.13,
	"MKL", "EG", "JRVR", "MCY", "ORI", "RLI", "SIGI", "UFCS", "WRB",
)).Merge(bucket("14%+", 0.15,
	"RNR", "FIHL", "GLRE", "HG", "HCI", "IGIC", "UVE", "GBLI",
))
