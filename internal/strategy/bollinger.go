package strategy

import (
	"log/slog"

	"backtest-systemv1/internal/indicator"
)

// Bollinger is a mean-reversion rule: buy when the close pierces the lower
// band, sell when it pierces the upper band. Level-triggered.
type Bollinger struct {
	log *slog.Logger
}

// NewBollinger builds the strategy. Band width and window come from the
// indicator engine config.
func NewBollinger(log *slog.Logger) *Bollinger {
	return &Bollinger{log: log}
}

func (s *Bollinger) Name() string { return "bollinger" }

func (s *Bollinger) OnBar(i int, history indicator.Sequence) Signal {
	row := history[i]
	if !indicator.Defined(row.Ind.BBLower) || !indicator.Defined(row.Ind.BBUpper) {
		return SignalNone
	}
	if row.Close < row.Ind.BBLower {
		s.log.Info("close below lower band",
			slog.Time("ts", row.TS),
			slog.Float64("close", row.Close),
			slog.Float64("lower", row.Ind.BBLower))
		return SignalBuy
	}
	if row.Close > row.Ind.BBUpper {
		s.log.Info("close above upper band",
			slog.Time("ts", row.TS),
			slog.Float64("close", row.Close),
			slog.Float64("upper", row.Ind.BBUpper))
		return SignalSell
	}
	return SignalNone
}
