package indicator

import (
	"math"
	"testing"
	"time"

	"backtest-systemv1/internal/model"
)

// ────────────────────────────────────────────────────────────
// Helpers
// ────────────────────────────────────────────────────────────

func seriesFromCloses(closes ...float64) model.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(model.Series, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{
			TS:     start.AddDate(0, 0, i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 100,
		}
	}
	return bars
}

func linearSeries(n int, start float64) model.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)
	}
	return seriesFromCloses(closes...)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (diff=%.6f)", label, got, want, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// Warm-up windows
// ────────────────────────────────────────────────────────────

func TestCompute_WarmupIndices(t *testing.T) {
	seq := newTestEngine(t).Compute(linearSeries(60, 100))

	cases := []struct {
		name      string
		firstIdx  int // first index where the value must be defined
		extractor func(Set) float64
	}{
		{"ma_short", 19, func(s Set) float64 { return s.MAShort }},
		{"ma_long", 49, func(s Set) float64 { return s.MALong }},
		{"ath", 0, func(s Set) float64 { return s.ATH }},
		{"bb_mid", 19, func(s Set) float64 { return s.BBMid }},
		{"bb_upper", 19, func(s Set) float64 { return s.BBUpper }},
		{"bb_lower", 19, func(s Set) float64 { return s.BBLower }},
		{"ema_fast", 0, func(s Set) float64 { return s.EMAFast }},
		{"ema_slow", 0, func(s Set) float64 { return s.EMASlow }},
		{"macd", 0, func(s Set) float64 { return s.MACD }},
		{"macd_signal", 0, func(s Set) float64 { return s.MACDSignal }},
		{"tr", 0, func(s Set) float64 { return s.TR }},
		{"atr", 13, func(s Set) float64 { return s.ATR }},
		{"rsi", 14, func(s Set) float64 { return s.RSI }},
		{"supertrend", 0, func(s Set) float64 { return s.Supertrend }},
	}

	for _, tc := range cases {
		for i, row := range seq {
			defined := Defined(tc.extractor(row.Ind))
			want := i >= tc.firstIdx
			if defined != want {
				t.Errorf("%s at index %d: defined=%v, want %v", tc.name, i, defined, want)
			}
		}
	}
}

func TestCompute_WindowLargerThanData(t *testing.T) {
	// 10 bars against a 20/50 config: both MAs stay undefined throughout,
	// and nothing errors.
	seq := newTestEngine(t).Compute(linearSeries(10, 100))
	for i, row := range seq {
		if Defined(row.Ind.MAShort) || Defined(row.Ind.MALong) {
			t.Errorf("index %d: moving averages should be undefined on a short series", i)
		}
	}
}

func TestCompute_EmptyInput(t *testing.T) {
	seq := newTestEngine(t).Compute(nil)
	if len(seq) != 0 {
		t.Fatalf("expected empty sequence, got %d rows", len(seq))
	}
}

// ────────────────────────────────────────────────────────────
// Correctness on hand-computed fixtures
// ────────────────────────────────────────────────────────────

func TestCompute_MovingAverages(t *testing.T) {
	// SMA(3) over 100, 102, 104, 103, 105:
	// idx 2: (100+102+104)/3 = 102, idx 3: 103, idx 4: 104
	cfg := DefaultConfig()
	cfg.ShortWindow = 3
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	seq := e.Compute(seriesFromCloses(100, 102, 104, 103, 105))

	want := []float64{math.NaN(), math.NaN(), 102, 103, 104}
	for i, row := range seq {
		if math.IsNaN(want[i]) {
			if Defined(row.Ind.MAShort) {
				t.Errorf("index %d: MA(3) should be undefined", i)
			}
			continue
		}
		assertClose(t, "MA(3)", row.Ind.MAShort, want[i], 1e-9)
	}
}

func TestCompute_ATHTracksRisingClose(t *testing.T) {
	seq := newTestEngine(t).Compute(linearSeries(60, 100))
	for i, row := range seq {
		assertClose(t, "ATH", row.Ind.ATH, row.Close, 0)
		if i > 0 && row.Ind.ATH < seq[i-1].Ind.ATH {
			t.Errorf("index %d: ATH decreased", i)
		}
	}
}

func TestCompute_ATHHoldsPeakThroughDecline(t *testing.T) {
	seq := newTestEngine(t).Compute(seriesFromCloses(100, 110, 105, 90, 120, 115))
	want := []float64{100, 110, 110, 110, 120, 120}
	for i, row := range seq {
		assertClose(t, "ATH", row.Ind.ATH, want[i], 0)
	}
}

func TestCompute_BollingerBands(t *testing.T) {
	// Window 3 over 10, 12, 14: mid = 12, sample std = 2, bands = 12 ± 4.
	cfg := DefaultConfig()
	cfg.BollWindow = 3
	e, err := NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	seq := e.Compute(seriesFromCloses(10, 12, 14))

	last := seq[2].Ind
	assertClose(t, "bb_mid", last.BBMid, 12, 1e-9)
	assertClose(t, "bb_upper", last.BBUpper, 16, 1e-9)
	assertClose(t, "bb_lower", last.BBLower, 8, 1e-9)
}

func TestCompute_MACDSeeding(t *testing.T) {
	// Both EMAs seed with close[0], so MACD and its signal start at 0.
	seq := newTestEngine(t).Compute(linearSeries(30, 100))

	first := seq[0].Ind
	assertClose(t, "ema_fast[0]", first.EMAFast, 100, 0)
	assertClose(t, "ema_slow[0]", first.EMASlow, 100, 0)
	assertClose(t, "macd[0]", first.MACD, 0, 0)
	assertClose(t, "macd_signal[0]", first.MACDSignal, 0, 0)

	// On a rising series the fast EMA leads the slow one.
	for i := 1; i < len(seq); i++ {
		if seq[i].Ind.MACD <= 0 {
			t.Errorf("index %d: MACD should be positive on a rising series, got %f", i, seq[i].Ind.MACD)
		}
	}
}

func TestCompute_RSIBounds(t *testing.T) {
	inputs := []model.Series{
		linearSeries(40, 100),
		seriesFromCloses(100, 90, 95, 80, 85, 70, 75, 60, 65, 50, 55, 40, 45, 30, 35, 20, 25, 10),
		seriesFromCloses(50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50),
	}
	for n, bars := range inputs {
		seq := newTestEngine(t).Compute(bars)
		for i, row := range seq {
			rsi := row.Ind.RSI
			if !Defined(rsi) {
				continue
			}
			if rsi < 0 || rsi > 100 {
				t.Errorf("input %d index %d: RSI %f out of [0,100]", n, i, rsi)
			}
		}
	}
}

func TestCompute_RSIAllGains(t *testing.T) {
	// Strictly rising closes: avgLoss is exactly 0, so the epsilon guard
	// keeps RSI just below 100.
	seq := newTestEngine(t).Compute(linearSeries(30, 100))
	for i := 14; i < len(seq); i++ {
		rsi := seq[i].Ind.RSI
		if rsi >= 100 {
			t.Errorf("index %d: RSI should stay below 100 with the epsilon guard, got %f", i, rsi)
		}
		if rsi < 99.9 {
			t.Errorf("index %d: RSI should approach 100 on all-gain input, got %f", i, rsi)
		}
	}
}

func TestCompute_TrueRange(t *testing.T) {
	bars := model.Series{
		{TS: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Open: 10, High: 12, Low: 8, Close: 10},
		{TS: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 11},
		// Gap up: high-prevClose dominates.
		{TS: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 15, High: 16, Low: 14, Close: 15},
		// Gap down: prevClose-low dominates.
		{TS: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Open: 9, High: 10, Low: 8, Close: 9},
	}
	seq := newTestEngine(t).Compute(bars)

	want := []float64{4, 2, 5, 7}
	for i, row := range seq {
		assertClose(t, "TR", row.Ind.TR, want[i], 1e-9)
	}
}

// ────────────────────────────────────────────────────────────
// Determinism and degenerate inputs
// ────────────────────────────────────────────────────────────

func TestCompute_Idempotent(t *testing.T) {
	bars := seriesFromCloses(100, 102, 101, 105, 103, 108, 104, 110, 109, 112,
		111, 115, 113, 118, 116, 120, 119, 122, 121, 125, 124, 128)
	e := newTestEngine(t)

	a := e.Compute(bars)
	b := e.Compute(bars)

	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !setsIdentical(a[i].Ind, b[i].Ind) {
			t.Errorf("index %d: repeated compute diverged: %+v vs %+v", i, a[i].Ind, b[i].Ind)
		}
	}
}

// setsIdentical compares bit-for-bit, treating NaN as equal to NaN.
func setsIdentical(a, b Set) bool {
	eq := func(x, y float64) bool {
		return math.Float64bits(x) == math.Float64bits(y)
	}
	return eq(a.MAShort, b.MAShort) && eq(a.MALong, b.MALong) && eq(a.ATH, b.ATH) &&
		eq(a.BBMid, b.BBMid) && eq(a.BBUpper, b.BBUpper) && eq(a.BBLower, b.BBLower) &&
		eq(a.EMAFast, b.EMAFast) && eq(a.EMASlow, b.EMASlow) &&
		eq(a.MACD, b.MACD) && eq(a.MACDSignal, b.MACDSignal) &&
		eq(a.TR, b.TR) && eq(a.ATR, b.ATR) && eq(a.RSI, b.RSI) &&
		eq(a.Supertrend, b.Supertrend) && eq(a.SupertrendUpper, b.SupertrendUpper) &&
		eq(a.SupertrendLower, b.SupertrendLower) && a.SupertrendTrend == b.SupertrendTrend
}

func TestCompute_FlatSeries(t *testing.T) {
	// Constant closes for 60 bars: every denominator degrades to zero, but
	// nothing may panic and every guarded value must be finite.
	seq := newTestEngine(t).Compute(seriesFromCloses(repeat(100, 60)...))

	for i, row := range seq {
		ind := row.Ind
		for _, v := range []struct {
			name string
			val  float64
		}{
			{"ma_short", ind.MAShort}, {"ma_long", ind.MALong}, {"ath", ind.ATH},
			{"bb_upper", ind.BBUpper}, {"bb_lower", ind.BBLower},
			{"macd", ind.MACD}, {"tr", ind.TR}, {"atr", ind.ATR}, {"rsi", ind.RSI},
			{"supertrend", ind.Supertrend},
		} {
			if math.IsInf(v.val, 0) {
				t.Errorf("index %d: %s is infinite on flat input", i, v.name)
			}
		}
		if Defined(ind.RSI) {
			// avgGain = avgLoss = 0 → RS = 0 → RSI = 0 under the guard.
			assertClose(t, "flat RSI", ind.RSI, 0, 1e-9)
		}
		if Defined(ind.BBUpper) && Defined(ind.BBLower) {
			// Zero variance collapses the bands onto the mid.
			assertClose(t, "flat bands", ind.BBUpper-ind.BBLower, 0, 1e-9)
		}
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// ────────────────────────────────────────────────────────────
// Config validation
// ────────────────────────────────────────────────────────────

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.ShortWindow = 0 },
		func(c *Config) { c.LongWindow = -1 },
		func(c *Config) { c.BollMult = 0 },
		func(c *Config) { c.RSIWindow = 0 },
		func(c *Config) { c.STATRPeriod = -5 },
		func(c *Config) { c.STMult = -1 },
	}
	for i, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, err := NewEngine(cfg, nil); err == nil {
			t.Errorf("case %d: expected config error, got nil", i)
		}
	}
}
