// Package strategy defines the signal-generating strategy interface and its
// built-in implementations.
//
// A Strategy sees one bar at a time, strictly in ascending order, with the
// enriched history up to and including that bar. It emits advisory signals;
// the backtest simulator owns all position state. Strategy instances are
// single-run: the registry builds a fresh instance for every run, so no
// latch state leaks across runs.
package strategy

import "backtest-systemv1/internal/indicator"

// Signal is the advisory trading signal for one bar.
type Signal int8

const (
	SignalNone Signal = iota
	SignalBuy
	SignalSell
)

func (s Signal) String() string {
	switch s {
	case SignalBuy:
		return "BUY"
	case SignalSell:
		return "SELL"
	default:
		return "NONE"
	}
}

// Strategy is the interface all strategies implement.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string

	// OnBar is called exactly once per bar, in ascending index order.
	// history is the enriched sequence truncated at the current bar:
	// history[i] is the bar being decided, and nothing beyond it is
	// visible. Undefined indicator values must yield SignalNone.
	OnBar(i int, history indicator.Sequence) Signal
}

// Params carries strategy-specific numeric parameters from the CLI/config
// layer into a strategy constructor.
type Params map[string]float64

// Get returns the parameter value, or def if unset.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}
