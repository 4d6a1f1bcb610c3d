package indicator

import "math"

// trueRange computes TR[i] = max(high-low, |high-prevClose|, |low-prevClose|).
// At index 0 there is no prior close, so TR[0] degrades to high[0]-low[0].
func trueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(highs))
	for i := range out {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}
