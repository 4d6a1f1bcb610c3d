package indicator

// supertrend computes the Supertrend value, the ratcheted working bands,
// and the trend flag.
//
// The recurrence is order-dependent and must run in a single forward pass:
// each final band depends on the previous final band and the previous
// close, and the trend flag depends on the previous flag. Incremental
// updates are only possible by replaying from index 0 unless the previous
// band and trend state is cached.
func supertrend(highs, lows, closes []float64, atrPeriod int, mult float64) (st, finalUpper, finalLower []float64, trend []Trend) {
	n := len(closes)
	st = make([]float64, n)
	finalUpper = make([]float64, n)
	finalLower = make([]float64, n)
	trend = make([]Trend, n)
	if n == 0 {
		return
	}

	atr := wilderEMA(trueRange(highs, lows, closes), atrPeriod)

	// Raw bands around the bar midpoint.
	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := 0; i < n; i++ {
		hl2 := (highs[i] + lows[i]) / 2
		upper[i] = hl2 + mult*atr[i]
		lower[i] = hl2 - mult*atr[i]
	}

	// Final bands ratchet monotonically toward price and reset on breakout
	// through the previous band.
	finalUpper[0] = upper[0]
	finalLower[0] = lower[0]
	for i := 1; i < n; i++ {
		if upper[i] < finalUpper[i-1] || closes[i-1] > finalUpper[i-1] {
			finalUpper[i] = upper[i]
		} else {
			finalUpper[i] = finalUpper[i-1]
		}
		if lower[i] > finalLower[i-1] || closes[i-1] < finalLower[i-1] {
			finalLower[i] = lower[i]
		} else {
			finalLower[i] = finalLower[i-1]
		}
	}

	trend[0] = TrendUp
	st[0] = finalLower[0]
	for i := 1; i < n; i++ {
		if trend[i-1] == TrendUp {
			if closes[i] <= finalUpper[i] {
				trend[i] = TrendDown
				st[i] = finalUpper[i]
			} else {
				trend[i] = TrendUp
				st[i] = finalLower[i]
			}
		} else {
			if closes[i] >= finalLower[i] {
				trend[i] = TrendUp
				st[i] = finalLower[i]
			} else {
				trend[i] = TrendDown
				st[i] = finalUpper[i]
			}
		}
	}
	return
}
