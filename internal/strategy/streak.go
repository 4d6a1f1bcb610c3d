package strategy

import (
	"log/slog"

	"backtest-systemv1/internal/indicator"
)

// Streak buys after a run of consecutive down closes and sells after a run
// of consecutive up closes. It needs no indicators, only raw closes, and
// resets the fired streak counter after each signal.
type Streak struct {
	buyStreak  int
	sellStreak int
	log        *slog.Logger

	upStreak   int
	downStreak int
}

// NewStreak builds the strategy. Params: "buy_streak" (default 3),
// "sell_streak" (default 5).
func NewStreak(p Params, log *slog.Logger) *Streak {
	return &Streak{
		buyStreak:  int(p.Get("buy_streak", 3)),
		sellStreak: int(p.Get("sell_streak", 5)),
		log:        log,
	}
}

func (s *Streak) Name() string { return "streak" }

func (s *Streak) OnBar(i int, history indicator.Sequence) Signal {
	if i == 0 {
		return SignalNone
	}
	curr := history[i].Close
	prev := history[i-1].Close

	switch {
	case curr > prev:
		s.upStreak++
		s.downStreak = 0
	case curr < prev:
		s.downStreak++
		s.upStreak = 0
	}

	if s.downStreak >= s.buyStreak {
		s.downStreak = 0
		s.log.Info("down streak buy", slog.Time("ts", history[i].TS), slog.Float64("close", curr))
		return SignalBuy
	}
	if s.upStreak >= s.sellStreak {
		s.upStreak = 0
		s.log.Info("up streak sell", slog.Time("ts", history[i].TS), slog.Float64("close", curr))
		return SignalSell
	}
	return SignalNone
}
