package backtest

import (
	"fmt"
	"log/slog"

	"backtest-systemv1/internal/indicator"
	"backtest-systemv1/internal/strategy"
)

// Simulator steps one strategy over one enriched sequence. A fresh strategy
// instance is expected per run; the simulator itself holds no state between
// runs.
//
// Return-lag convention: the exposure decided from bar i's signal earns
// returns from bar i+1 onward. A fill happens at bar i's close, so bar i's
// own close-to-close return is never attributed to a decision made with
// bar i's data. Discrete-share mode gets the same semantics for free by
// executing at the close.
type Simulator struct {
	cfg Config
	log *slog.Logger
}

// NewSimulator validates the config and returns a ready simulator.
func NewSimulator(cfg Config, log *slog.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new simulator: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{cfg: cfg, log: log}, nil
}

// Run iterates the sequence strictly in order, never skipping bars, and
// returns the per-bar position/return table plus the trade list. The
// summary is attached separately by the performance analyzer.
//
// Bars with undefined indicators are fine: the strategy withholds its
// signal and the run continues.
func (s *Simulator) Run(seq indicator.Sequence, strat strategy.Strategy) (*Result, error) {
	n := len(seq)
	if n == 0 {
		return nil, fmt.Errorf("simulator run: %w: need at least one bar", ErrInsufficientData)
	}

	res := &Result{
		Mode:      s.cfg.Mode,
		Positions: make([]float64, n),
		Returns:   make([]float64, n),
		Equity:    make([]float64, n),
		Benchmark: make([]float64, n),
	}

	firstClose := seq[0].Close
	for i := range seq {
		res.Benchmark[i] = s.cfg.InitialCash * (seq[i].Close / firstClose)
	}

	switch s.cfg.Mode {
	case ModeFractional:
		s.runFractional(seq, strat, res)
	case ModeShares:
		s.runShares(seq, strat, res)
	}

	s.log.Info("run complete",
		slog.String("strategy", strat.Name()),
		slog.String("mode", string(s.cfg.Mode)),
		slog.Int("bars", n),
		slog.Int("trades", len(res.Trades)))
	return res, nil
}

func (s *Simulator) runFractional(seq indicator.Sequence, strat strategy.Strategy, res *Result) {
	exposure := 0.0
	res.Equity[0] = s.cfg.InitialCash

	for i := range seq {
		// Return earned on this bar comes from the exposure decided on
		// the previous bar.
		if i > 0 {
			priceRet := seq[i].Close/seq[i-1].Close - 1
			res.Returns[i] = res.Positions[i-1] * priceRet
			res.Equity[i] = res.Equity[i-1] * (1 + res.Returns[i])
		}

		switch strat.OnBar(i, seq[:i+1]) {
		case strategy.SignalBuy:
			if exposure == 0 {
				res.Trades = append(res.Trades, TradeRecord{
					TS: seq[i].TS, Action: "BUY", Qty: 1, Price: seq[i].Close,
				})
			}
			exposure = 1
		case strategy.SignalSell:
			if exposure == 1 {
				res.Trades = append(res.Trades, TradeRecord{
					TS: seq[i].TS, Action: "SELL", Qty: 1, Price: seq[i].Close,
				})
			}
			exposure = 0
		}
		// SignalNone carries the previous exposure forward unchanged.
		res.Positions[i] = exposure
	}
}

func (s *Simulator) runShares(seq indicator.Sequence, strat strategy.Strategy, res *Result) {
	port := newPortfolio(s.cfg.InitialCash, s.log)

	for i := range seq {
		close := seq[i].Close

		switch strat.OnBar(i, seq[:i+1]) {
		case strategy.SignalBuy:
			port.buy(seq[i].TS, close, s.cfg.Quantity)
		case strategy.SignalSell:
			port.sellAll(seq[i].TS, close)
		}

		res.Positions[i] = port.shares
		res.Equity[i] = port.value(close)
		if i > 0 {
			res.Returns[i] = res.Equity[i]/res.Equity[i-1] - 1
		}
	}
	res.Trades = port.trades
}
