package strategy

import (
	"log/slog"

	"backtest-systemv1/internal/indicator"
)

// MACross buys when the short moving average crosses above the long one
// (golden cross) and sells on the reverse (death cross). Edge-triggered:
// it fires only on the bar where the relation flips, never while it merely
// holds.
type MACross struct {
	log *slog.Logger

	// prevAbove latches "short > long on the previous defined bar".
	prevAbove bool
	latched   bool
}

// NewMACross builds the crossover strategy. Params are informational here:
// the engine's ShortWindow/LongWindow config decides the actual windows.
func NewMACross(p Params, log *slog.Logger) *MACross {
	return &MACross{log: log}
}

func (s *MACross) Name() string { return "ma_cross" }

func (s *MACross) OnBar(i int, history indicator.Sequence) Signal {
	ind := history[i].Ind
	if !indicator.Defined(ind.MAShort) || !indicator.Defined(ind.MALong) {
		return SignalNone
	}

	above := ind.MAShort > ind.MALong
	defer func() {
		s.prevAbove = above
		s.latched = true
	}()

	// First defined bar only seeds the latch.
	if !s.latched {
		return SignalNone
	}

	if above && !s.prevAbove {
		s.log.Info("golden cross",
			slog.Time("ts", history[i].TS),
			slog.Float64("ma_short", ind.MAShort),
			slog.Float64("ma_long", ind.MALong))
		return SignalBuy
	}
	if !above && s.prevAbove {
		s.log.Info("death cross",
			slog.Time("ts", history[i].TS),
			slog.Float64("ma_short", ind.MAShort),
			slog.Float64("ma_long", ind.MALong))
		return SignalSell
	}
	return SignalNone
}
