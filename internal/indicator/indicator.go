package indicator

import "math"

// The rolling functions pad the warm-up window with NaN, so downstream
// comparisons against unfinished windows are always false.

// SMA computes a rolling simple moving average over the given period.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// StdDev computes a rolling sample standard deviation over the given period.
func StdDev(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 1 || len(values) < period {
		return out
	}
	mean := SMA(values, period)
	for i := period - 1; i < len(values); i++ {
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean[i]
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(period-1))
	}
	return out
}

// TrueRange computes the per-row true range. The first row has no previous
// close, so it falls back to the high-low span.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		hl := math.Abs(high[i] - low[i])
		if i == 0 {
			out[i] = hl
			continue
		}
		hp := math.Abs(high[i] - close[i-1])
		lp := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hp, lp))
	}
	return out
}

// ATR computes the average true range as a rolling mean of the true range.
func ATR(high, low, close []float64, period int) []float64 {
	return SMA(TrueRange(high, low, close), period)
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
