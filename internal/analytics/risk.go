package analytics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily volatility.
const TradingDaysPerYear = 252

// MaxDrawdown walks a running peak from the first value and returns the most
// negative value/peak - 1 seen, or 0 when the series never dips.
func MaxDrawdown(values []float64) *float64 {
	if len(values) < 2 {
		return nil
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		peak = math.Max(peak, v)
		if peak <= 0 {
			continue
		}
		if dd := v/peak - 1; dd < worst {
			worst = dd
		}
	}
	return &worst
}

// SimpleReturns converts prices to one-period returns, skipping pairs whose
// denominator is not positive.
func SimpleReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev <= 0 {
			continue
		}
		out = append(out, values[i]/prev-1)
	}
	return out
}

// AnnualizedVolatility is the sample standard deviation of simple returns
// scaled by sqrt(252). It needs at least two valid returns.
func AnnualizedVolatility(values []float64) *float64 {
	returns := SimpleReturns(values)
	if len(returns) < 2 {
		return nil
	}
	return finite(stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear))
}

// MovingAverage is the mean of the non-nil values among the last window
// points. It is nil when that set is empty.
func MovingAverage(values []*float64, window int) *float64 {
	if window > 0 && len(values) > window {
		values = values[len(values)-window:]
	}
	return Mean(Present(values))
}

// Mean is the arithmetic mean, or nil for an empty slice.
func Mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	return finite(stat.Mean(values, nil))
}

// Range returns the minimum and maximum of values, both nil when empty.
func Range(values []float64) (low, high *float64) {
	if len(values) == 0 {
		return nil, nil
	}
	return finite(floats.Min(values)), finite(floats.Max(values))
}

// Sum adds values; an empty slice sums to zero.
func Sum(values []float64) float64 {
	return floats.Sum(values)
}

// Present drops nil entries.
func Present(values []*float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// PercentFrom returns value/ref - 1, nil when either is missing or ref is zero.
func PercentFrom(value, ref *float64) *float64 {
	if value == nil || ref == nil || *ref == 0 {
		return nil
	}
	return finite(*value / *ref - 1)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
