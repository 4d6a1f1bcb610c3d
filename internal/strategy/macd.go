package strategy

import (
	"log/slog"

	"backtest-systemv1/internal/indicator"
)

// MACDCross buys when the MACD line crosses above its signal line and sells
// on the reverse cross. Edge-triggered like MACross.
type MACDCross struct {
	log *slog.Logger

	prevAbove bool
	latched   bool
}

// NewMACDCross builds the strategy. EMA spans come from the indicator
// engine config.
func NewMACDCross(log *slog.Logger) *MACDCross {
	return &MACDCross{log: log}
}

func (s *MACDCross) Name() string { return "macd" }

func (s *MACDCross) OnBar(i int, history indicator.Sequence) Signal {
	ind := history[i].Ind
	if !indicator.Defined(ind.MACD) || !indicator.Defined(ind.MACDSignal) {
		return SignalNone
	}

	above := ind.MACD > ind.MACDSignal
	defer func() {
		s.prevAbove = above
		s.latched = true
	}()

	if !s.latched {
		return SignalNone
	}

	if above && !s.prevAbove {
		s.log.Info("macd bullish cross",
			slog.Time("ts", history[i].TS),
			slog.Float64("macd", ind.MACD),
			slog.Float64("signal", ind.MACDSignal))
		return SignalBuy
	}
	if !above && s.prevAbove {
		s.log.Info("macd bearish cross",
			slog.Time("ts", history[i].TS),
			slog.Float64("macd", ind.MACD),
			slog.Float64("signal", ind.MACDSignal))
		return SignalSell
	}
	return SignalNone
}
