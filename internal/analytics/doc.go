// Package analytics derives scalar metrics from price and fundamentals data:
// calendar-window returns, drawdown, volatility, moving averages and the
// insurer buyback valuation ratios.
//
// Every function returns nil instead of a number when its inputs are absent,
// invalid or too short. Callers never see NaN or Inf.
package analytics
