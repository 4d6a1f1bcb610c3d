package strategy

import (
	"log/slog"

	"backtest-systemv1/internal/indicator"
)

// ATHBreakout buys when the close breaks above the previous bar's all-time
// high by more than a buffer fraction, and stops out when the close falls
// more than a buffer fraction below the current all-time high.
//
// It tracks its own in-position latch, independent of the simulator's
// exposure state.
type ATHBreakout struct {
	breakoutBuffer float64
	stopBuffer     float64
	log            *slog.Logger

	inPosition bool
}

// NewATHBreakout builds the strategy. Params: "breakout_buffer" (default
// 0.01), "stop_buffer" (default 0.05).
func NewATHBreakout(p Params, log *slog.Logger) *ATHBreakout {
	return &ATHBreakout{
		breakoutBuffer: p.Get("breakout_buffer", 0.01),
		stopBuffer:     p.Get("stop_buffer", 0.05),
		log:            log,
	}
}

func (s *ATHBreakout) Name() string { return "ath_breakout" }

func (s *ATHBreakout) OnBar(i int, history indicator.Sequence) Signal {
	if i == 0 {
		// Breakout needs the previous bar's ATH.
		return SignalNone
	}
	row := history[i]
	prevATH := history[i-1].Ind.ATH
	if !indicator.Defined(row.Ind.ATH) || !indicator.Defined(prevATH) {
		return SignalNone
	}

	if !s.inPosition && row.Close > prevATH*(1+s.breakoutBuffer) {
		s.inPosition = true
		s.log.Info("ath breakout",
			slog.Time("ts", row.TS),
			slog.Float64("close", row.Close),
			slog.Float64("prev_ath", prevATH))
		return SignalBuy
	}
	if s.inPosition && row.Close < row.Ind.ATH*(1-s.stopBuffer) {
		s.inPosition = false
		s.log.Info("ath stop",
			slog.Time("ts", row.TS),
			slog.Float64("close", row.Close),
			slog.Float64("ath", row.Ind.ATH))
		return SignalSell
	}
	return SignalNone
}
