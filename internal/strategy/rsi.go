package strategy

import (
	"log/slog"

	"backtest-systemv1/internal/indicator"
)

// RSIThreshold is the classic oversold/overbought rule: buy below the lower
// threshold, sell above the upper one. Level-triggered — it fires on every
// bar the condition holds, unlike the cross strategies.
type RSIThreshold struct {
	lower float64
	upper float64
	log   *slog.Logger
}

// NewRSIThreshold builds the strategy. Params: "lower" (default 30),
// "upper" (default 70).
func NewRSIThreshold(p Params, log *slog.Logger) *RSIThreshold {
	return &RSIThreshold{
		lower: p.Get("lower", 30),
		upper: p.Get("upper", 70),
		log:   log,
	}
}

func (s *RSIThreshold) Name() string { return "rsi" }

func (s *RSIThreshold) OnBar(i int, history indicator.Sequence) Signal {
	rsi := history[i].Ind.RSI
	if !indicator.Defined(rsi) {
		return SignalNone
	}
	if rsi < s.lower {
		s.log.Info("rsi oversold", slog.Time("ts", history[i].TS), slog.Float64("rsi", rsi))
		return SignalBuy
	}
	if rsi > s.upper {
		s.log.Info("rsi overbought", slog.Time("ts", history[i].TS), slog.Float64("rsi", rsi))
		return SignalSell
	}
	return SignalNone
}
