package strategy

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// ErrUnknownStrategy is returned when a requested strategy name is not in
// the registry. Checked with errors.Is.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Factory builds a fresh, zero-state strategy instance for one run.
type Factory func(p Params, log *slog.Logger) Strategy

// registry is the closed, compile-time set of available strategies.
// No dynamic discovery: adding a strategy means adding an entry here.
var registry = map[string]Factory{
	"ma_cross":     func(p Params, log *slog.Logger) Strategy { return NewMACross(p, log) },
	"rsi":          func(p Params, log *slog.Logger) Strategy { return NewRSIThreshold(p, log) },
	"bollinger":    func(p Params, log *slog.Logger) Strategy { return NewBollinger(log) },
	"macd":         func(p Params, log *slog.Logger) Strategy { return NewMACDCross(log) },
	"supertrend":   func(p Params, log *slog.Logger) Strategy { return NewSupertrendFlip(log) },
	"ath_breakout": func(p Params, log *slog.Logger) Strategy { return NewATHBreakout(p, log) },
	"streak":       func(p Params, log *slog.Logger) Strategy { return NewStreak(p, log) },
}

// New builds a strategy by registry name. Fails fast with ErrUnknownStrategy
// before any simulation work begins.
func New(name string, p Params, log *slog.Logger) (Strategy, error) {
	if log == nil {
		log = slog.Default()
	}
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownStrategy, name, strings.Join(Names(), ", "))
	}
	return f(p, log), nil
}

// Names lists the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
