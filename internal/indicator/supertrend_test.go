package indicator

import "testing"

// Five-bar fixture computed by hand with atrPeriod=10 (alpha 0.1) and mult=3.
//
//	i  high  low  close   TR    wATR   hl2   upper   lower
//	0   12    8    10      4    4.00    10    22.00   -2.00
//	1   13    9    12      4    4.00    11    23.00   -1.00
//	2   14   10    13      4    4.00    12    24.00    0.00
//	3   40   30    38     27    6.30    35    53.90   16.10
//	4   42   36    40      6    6.27    39    57.81   20.19
//
// Band ratchet: the upper band holds at 22 until close[3]=38 breaks above
// it, which resets finalUpper[4] to the raw 57.81; the lower band rises
// every bar. The trend flag starts up, flips down at i=1 (close inside the
// held upper band), recovers at i=2, holds through the breakout at i=3,
// and flips down again at i=4 once the reset upper band re-contains price.
func TestSupertrend_HandComputedFixture(t *testing.T) {
	highs := []float64{12, 13, 14, 40, 42}
	lows := []float64{8, 9, 10, 30, 36}
	closes := []float64{10, 12, 13, 38, 40}

	st, fu, fl, trend := supertrend(highs, lows, closes, 10, 3)

	wantST := []float64{-2, 22, 0, 16.1, 57.81}
	wantFU := []float64{22, 22, 22, 22, 57.81}
	wantFL := []float64{-2, -1, 0, 16.1, 20.19}
	wantTrend := []Trend{TrendUp, TrendDown, TrendUp, TrendUp, TrendDown}

	for i := range closes {
		assertClose(t, "supertrend", st[i], wantST[i], 1e-9)
		assertClose(t, "final upper", fu[i], wantFU[i], 1e-9)
		assertClose(t, "final lower", fl[i], wantFL[i], 1e-9)
		if trend[i] != wantTrend[i] {
			t.Errorf("trend at index %d: got %v, want %v", i, trend[i], wantTrend[i])
		}
	}
}

func TestSupertrend_FirstBar(t *testing.T) {
	st, fu, fl, trend := supertrend([]float64{12}, []float64{8}, []float64{10}, 10, 3)

	if trend[0] != TrendUp {
		t.Errorf("trend[0]: got %v, want up", trend[0])
	}
	assertClose(t, "st[0]", st[0], fl[0], 0)
	assertClose(t, "finalUpper[0]", fu[0], 22, 1e-9)
	assertClose(t, "finalLower[0]", fl[0], -2, 1e-9)
}

func TestSupertrend_EmptyInput(t *testing.T) {
	st, fu, fl, trend := supertrend(nil, nil, nil, 10, 3)
	if len(st) != 0 || len(fu) != 0 || len(fl) != 0 || len(trend) != 0 {
		t.Fatal("expected empty outputs for empty input")
	}
}

func TestSupertrend_BandRatchet(t *testing.T) {
	// Monotonically rising market: the lower band may only rise between
	// resets, and the value tracks whichever band the trend selects.
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + 2*float64(i)
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
	}

	st, fu, fl, trend := supertrend(highs, lows, closes, 10, 3)
	for i := 1; i < n; i++ {
		if fl[i] < fl[i-1] {
			t.Errorf("index %d: lower band fell without a breakout (%f -> %f)", i, fl[i-1], fl[i])
		}
		switch trend[i] {
		case TrendUp:
			assertClose(t, "st tracks lower band", st[i], fl[i], 0)
		case TrendDown:
			assertClose(t, "st tracks upper band", st[i], fu[i], 0)
		default:
			t.Errorf("index %d: unexpected trend %v", i, trend[i])
		}
	}
}
