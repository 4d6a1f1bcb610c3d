// Package indicator computes technical indicators over full bar sequences.
//
// Compute is a pure batch pass: same-length output, no side effects, no
// hidden state. Every indicator value is NaN until its warm-up window is
// satisfied; NaN propagates, and downstream consumers must treat it as
// "no decision", never as zero.
package indicator

import (
	"math"

	"backtest-systemv1/internal/model"
)

// Trend is the Supertrend direction flag.
type Trend int8

const (
	// TrendNone marks bars where the flag is not yet defined.
	TrendNone Trend = 0
	// TrendUp means price is above the ratcheted lower band.
	TrendUp Trend = 1
	// TrendDown means price is below the ratcheted upper band.
	TrendDown Trend = -1
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "UP"
	case TrendDown:
		return "DOWN"
	default:
		return "NONE"
	}
}

// Set holds the per-bar indicator values attached to one Bar.
// NaN means the value is still inside its warm-up window.
type Set struct {
	MAShort float64 `json:"ma_short"`
	MALong  float64 `json:"ma_long"`
	ATH     float64 `json:"ath"`

	BBMid   float64 `json:"bb_mid"`
	BBUpper float64 `json:"bb_upper"`
	BBLower float64 `json:"bb_lower"`

	EMAFast    float64 `json:"ema_fast"`
	EMASlow    float64 `json:"ema_slow"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`

	TR  float64 `json:"tr"`
	ATR float64 `json:"atr"` // rolling-mean ATR, distinct from the Wilder ATR inside Supertrend
	RSI float64 `json:"rsi"`

	Supertrend      float64 `json:"supertrend"`
	SupertrendUpper float64 `json:"supertrend_upper"`
	SupertrendLower float64 `json:"supertrend_lower"`
	SupertrendTrend Trend   `json:"supertrend_trend"`
}

// Row is one bar enriched with its computed indicators.
type Row struct {
	model.Bar
	Ind Set
}

// Sequence is an enriched bar sequence, same length and order as the input
// Series it was computed from.
type Sequence []Row

// Bars strips the indicator columns back off.
func (s Sequence) Bars() model.Series {
	out := make(model.Series, len(s))
	for i, r := range s {
		out[i] = r.Bar
	}
	return out
}

// Defined reports whether an indicator value is outside its warm-up window.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

func undefined() float64 { return math.NaN() }
