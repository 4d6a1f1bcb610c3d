package strategy

import (
	"log/slog"

	"backtest-systemv1/internal/indicator"
)

// SupertrendFlip buys when the Supertrend trend flag flips down→up and
// sells on up→down. Edge-triggered on the flag itself, not on price.
type SupertrendFlip struct {
	log *slog.Logger
}

// NewSupertrendFlip builds the strategy. ATR period and multiplier come
// from the indicator engine config.
func NewSupertrendFlip(log *slog.Logger) *SupertrendFlip {
	return &SupertrendFlip{log: log}
}

func (s *SupertrendFlip) Name() string { return "supertrend" }

func (s *SupertrendFlip) OnBar(i int, history indicator.Sequence) Signal {
	if i == 0 {
		return SignalNone
	}
	curr := history[i].Ind.SupertrendTrend
	prev := history[i-1].Ind.SupertrendTrend
	if curr == indicator.TrendNone || prev == indicator.TrendNone {
		return SignalNone
	}

	if prev == indicator.TrendDown && curr == indicator.TrendUp {
		s.log.Info("supertrend flipped up", slog.Time("ts", history[i].TS))
		return SignalBuy
	}
	if prev == indicator.TrendUp && curr == indicator.TrendDown {
		s.log.Info("supertrend flipped down", slog.Time("ts", history[i].TS))
		return SignalSell
	}
	return SignalNone
}
