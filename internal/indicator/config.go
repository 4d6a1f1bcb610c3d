package indicator

import "fmt"

// Config holds every window length and multiplier the engine uses.
// Windows larger than the available data are not an error: the affected
// columns simply stay undefined for the whole sequence.
type Config struct {
	ShortWindow int // short moving average (default 20)
	LongWindow  int // long moving average (default 50)

	BollWindow int     // Bollinger window (default 20)
	BollMult   float64 // band width in stddevs (default 2)

	FastSpan   int // MACD fast EMA span (default 12)
	SlowSpan   int // MACD slow EMA span (default 26)
	SignalSpan int // MACD signal EMA span (default 9)

	ATRWindow int // rolling-mean ATR window (default 14)
	RSIWindow int // RSI window (default 14)

	STATRPeriod int     // Wilder ATR period for Supertrend (default 10)
	STMult      float64 // Supertrend band multiplier (default 3)
}

// DefaultConfig returns the conventional parameter set.
func DefaultConfig() Config {
	return Config{
		ShortWindow: 20,
		LongWindow:  50,
		BollWindow:  20,
		BollMult:    2,
		FastSpan:    12,
		SlowSpan:    26,
		SignalSpan:  9,
		ATRWindow:   14,
		RSIWindow:   14,
		STATRPeriod: 10,
		STMult:      3,
	}
}

// Validate rejects non-positive windows and multipliers up front, before
// any computation starts.
func (c Config) Validate() error {
	for _, w := range []struct {
		name string
		val  int
	}{
		{"short window", c.ShortWindow},
		{"long window", c.LongWindow},
		{"bollinger window", c.BollWindow},
		{"macd fast span", c.FastSpan},
		{"macd slow span", c.SlowSpan},
		{"macd signal span", c.SignalSpan},
		{"atr window", c.ATRWindow},
		{"rsi window", c.RSIWindow},
		{"supertrend atr period", c.STATRPeriod},
	} {
		if w.val <= 0 {
			return fmt.Errorf("indicator config: %s must be positive, got %d", w.name, w.val)
		}
	}
	if c.BollMult <= 0 {
		return fmt.Errorf("indicator config: bollinger multiplier must be positive, got %g", c.BollMult)
	}
	if c.STMult <= 0 {
		return fmt.Errorf("indicator config: supertrend multiplier must be positive, got %g", c.STMult)
	}
	return nil
}
