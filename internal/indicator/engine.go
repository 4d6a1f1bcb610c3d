package indicator

import (
	"fmt"
	"log/slog"

	"backtest-systemv1/internal/model"
)

// Engine computes the full indicator set over a bar sequence in one batch
// pass. It carries no mutable state between calls: Compute on the same
// input always produces identical output.
type Engine struct {
	cfg Config
	log *slog.Logger
}

// NewEngine validates the config and returns a ready engine.
// The logger is owned by the caller.
func NewEngine(cfg Config, log *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new indicator engine: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, log: log}, nil
}

// Compute enriches bars with the full indicator set. It is total on
// well-formed input: an empty series yields an empty sequence, and windows
// longer than the series yield all-undefined columns, never an error.
func (e *Engine) Compute(bars model.Series) Sequence {
	n := len(bars)
	out := make(Sequence, n)
	if n == 0 {
		return out
	}

	closes := bars.Closes()
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	maShort := rollingMean(closes, e.cfg.ShortWindow)
	maLong := rollingMean(closes, e.cfg.LongWindow)
	ath := runningMax(closes)

	bbMid := rollingMean(closes, e.cfg.BollWindow)
	bbStd := rollingStd(closes, e.cfg.BollWindow)

	emaFast := emaSpan(closes, e.cfg.FastSpan)
	emaSlow := emaSpan(closes, e.cfg.SlowSpan)
	macd := make([]float64, n)
	for i := range macd {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	macdSignal := emaSpan(macd, e.cfg.SignalSpan)

	tr := trueRange(highs, lows, closes)
	atr := rollingMean(tr, e.cfg.ATRWindow)
	rsi := relativeStrength(closes, e.cfg.RSIWindow)

	st, stUpper, stLower, stTrend := supertrend(highs, lows, closes, e.cfg.STATRPeriod, e.cfg.STMult)

	for i := range out {
		out[i] = Row{
			Bar: bars[i],
			Ind: Set{
				MAShort:         maShort[i],
				MALong:          maLong[i],
				ATH:             ath[i],
				BBMid:           bbMid[i],
				BBUpper:         bbMid[i] + e.cfg.BollMult*bbStd[i],
				BBLower:         bbMid[i] - e.cfg.BollMult*bbStd[i],
				EMAFast:         emaFast[i],
				EMASlow:         emaSlow[i],
				MACD:            macd[i],
				MACDSignal:      macdSignal[i],
				TR:              tr[i],
				ATR:             atr[i],
				RSI:             rsi[i],
				Supertrend:      st[i],
				SupertrendUpper: stUpper[i],
				SupertrendLower: stLower[i],
				SupertrendTrend: stTrend[i],
			},
		}
	}

	e.log.Debug("indicators computed", slog.Int("bars", n))
	return out
}
