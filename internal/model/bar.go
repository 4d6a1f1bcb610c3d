// Package model defines the market-data types shared across the system.
//
// A Bar is one OHLCV observation; a Series is a timestamp-ascending bar
// sequence. Bars are immutable once produced: the indicator engine and the
// backtest simulator only ever read them.
package model

import (
	"fmt"
	"time"
)

// Bar represents one OHLCV observation for a single instrument at a fixed
// resolution. Prices are in the instrument's quote currency.
type Bar struct {
	TS     time.Time `json:"ts"` // bar start time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered bar sequence. The ordering contract (ascending,
// unique timestamps) is checked once at the boundary with Validate; all
// downstream passes assume it holds.
type Series []Bar

// Validate checks the Series ordering contract: timestamps strictly
// ascending, therefore unique. An empty series is valid.
func (s Series) Validate() error {
	for i := 1; i < len(s); i++ {
		if !s[i].TS.After(s[i-1].TS) {
			return fmt.Errorf("series not strictly ascending at index %d: %s !> %s",
				i, s[i].TS.Format(time.RFC3339), s[i-1].TS.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes extracts the close column.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Span returns the elapsed calendar time between the first and last bar.
// Zero for series shorter than two bars.
func (s Series) Span() time.Duration {
	if len(s) < 2 {
		return 0
	}
	return s[len(s)-1].TS.Sub(s[0].TS)
}
