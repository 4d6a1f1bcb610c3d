// Package backtest drives a strategy bar-by-bar over an enriched bar
// sequence and reports performance against a buy-and-hold benchmark.
//
// The simulator owns all position state. Strategies only ever see history
// up to the bar being decided, so a completed run is free of lookahead by
// construction.
package backtest

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientData is returned when a run or an analysis is asked for
// fewer bars than it needs. Checked with errors.Is.
var ErrInsufficientData = errors.New("insufficient data")

// Mode selects how the simulator carries exposure.
type Mode string

const (
	// ModeFractional holds a 0/1 exposure fraction per bar; returns are
	// position-weighted close-to-close returns.
	ModeFractional Mode = "fractional"
	// ModeShares holds whole shares against a cash balance; buys and
	// sells execute at the bar's close.
	ModeShares Mode = "shares"
)

// Config configures one simulator run.
type Config struct {
	Mode        Mode
	InitialCash float64 // starting capital, also the fractional equity base
	Quantity    float64 // shares bought per BUY signal in ModeShares
}

// DefaultConfig returns a fractional-mode run with the conventional base.
func DefaultConfig() Config {
	return Config{Mode: ModeFractional, InitialCash: 10000, Quantity: 1}
}

// Validate rejects unusable run parameters before any work starts.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeFractional, ModeShares:
	default:
		return fmt.Errorf("backtest config: unknown mode %q", c.Mode)
	}
	if c.InitialCash <= 0 {
		return fmt.Errorf("backtest config: initial cash must be positive, got %g", c.InitialCash)
	}
	if c.Mode == ModeShares && c.Quantity <= 0 {
		return fmt.Errorf("backtest config: quantity must be positive, got %g", c.Quantity)
	}
	return nil
}

// TradeRecord is one executed state transition.
type TradeRecord struct {
	TS     time.Time `json:"ts"`
	Action string    `json:"action"` // BUY or SELL
	Qty    float64   `json:"qty"`
	Price  float64   `json:"price"`
}

// Result is the per-bar output of one completed run.
type Result struct {
	Mode Mode `json:"mode"`

	// Positions is the exposure held per bar: 0/1 fraction in
	// ModeFractional, share count in ModeShares.
	Positions []float64 `json:"positions"`

	// Returns is the per-bar strategy return; Returns[0] is always 0.
	Returns []float64 `json:"returns"`

	// Equity is the strategy value series, based at InitialCash.
	Equity []float64 `json:"equity"`

	// Benchmark is the buy-and-hold value series on the same base.
	Benchmark []float64 `json:"benchmark"`

	Trades  []TradeRecord `json:"trades"`
	Summary Summary       `json:"summary"`
}
