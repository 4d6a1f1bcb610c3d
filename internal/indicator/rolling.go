package indicator

import "math"

// Column helpers. Each takes a full column and returns a same-length
// column, with NaN wherever the warm-up window is not yet satisfied.
// NaN inputs propagate: a window containing any NaN yields NaN.

// rollingMean is the simple arithmetic mean over a trailing window.
// Defined from index window-1 onward.
func rollingMean(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		out[i] = undefined()
	}
	if window > len(vals) {
		return out
	}
	for i := window - 1; i < len(vals); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				ok = false
				break
			}
			sum += vals[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd is the sample standard deviation (ddof=1) over a trailing
// window. Defined from index window-1 onward; windows of length 1 stay
// undefined.
func rollingStd(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		out[i] = undefined()
	}
	if window < 2 || window > len(vals) {
		return out
	}
	for i := window - 1; i < len(vals); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				ok = false
				break
			}
			sum += vals[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := vals[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// runningMax is the cumulative maximum from index 0, defined everywhere.
func runningMax(vals []float64) []float64 {
	out := make([]float64, len(vals))
	max := math.Inf(-1)
	for i, v := range vals {
		if v > max {
			max = v
		}
		out[i] = max
	}
	return out
}

// emaSpan is the exponential average with alpha = 2/(span+1), seeded with
// the first value. Defined from index 0; early values carry seeding bias,
// which is expected.
func emaSpan(vals []float64, span int) []float64 {
	return ewm(vals, 2.0/float64(span+1))
}

// wilderEMA is the exponential average with alpha = 1/period, the smoothing
// Wilder used for ATR. Seeded with the first value like emaSpan.
func wilderEMA(vals []float64, period int) []float64 {
	return ewm(vals, 1.0/float64(period))
}

func ewm(vals []float64, alpha float64) []float64 {
	out := make([]float64, len(vals))
	if len(vals) == 0 {
		return out
	}
	prev := vals[0]
	out[0] = prev
	for i := 1; i < len(vals); i++ {
		prev = alpha*vals[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}
