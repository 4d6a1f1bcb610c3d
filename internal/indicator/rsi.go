package indicator

// rsiEpsilon keeps the RS division finite when the average loss over the
// window is exactly zero.
const rsiEpsilon = 1e-12

// relativeStrength computes RSI over simple rolling means of the positive
// and negative close-to-close deltas. The delta at index 0 is undefined, so
// RSI first becomes defined at index window (not window-1).
//
// RSI is bounded to [0,100]; with the epsilon guard it approaches but never
// quite reaches 100 on an all-gain window.
func relativeStrength(closes []float64, window int) []float64 {
	n := len(closes)
	gains := make([]float64, n)
	losses := make([]float64, n)
	if n > 0 {
		gains[0] = undefined()
		losses[0] = undefined()
	}
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := rollingMean(gains, window)
	avgLoss := rollingMean(losses, window)

	out := make([]float64, n)
	for i := range out {
		if !Defined(avgGain[i]) || !Defined(avgLoss[i]) {
			out[i] = undefined()
			continue
		}
		rs := avgGain[i] / (avgLoss[i] + rsiEpsilon)
		out[i] = 100 - 100/(1+rs)
	}
	return out
}
