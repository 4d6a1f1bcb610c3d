package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"backtest-systemv1/internal/indicator"
	"backtest-systemv1/internal/metrics"
	"backtest-systemv1/internal/model"
	"backtest-systemv1/internal/strategy"
)

// BarLoader supplies ordered bar sequences. Implemented by the data
// service; the runner treats it as an opaque, already-resolved input.
type BarLoader interface {
	Load(ctx context.Context, symbol, resolution string) (model.Series, error)
}

// RunConfig selects what one backtest run executes.
type RunConfig struct {
	Symbol     string
	Resolution string
	Strategy   string
	Params     strategy.Params
	Sim        Config
}

// Runner wires data loading, indicator computation, simulation, and
// performance analysis into one run. Runs are independent: each owns its
// strategy instance and simulation state, so callers may run different
// symbols concurrently.
type Runner struct {
	loader BarLoader
	engine *indicator.Engine
	prom   *metrics.Metrics // optional
	log    *slog.Logger
}

// NewRunner builds a runner. prom may be nil when no metrics endpoint is
// wanted (tests, one-shot CLI runs).
func NewRunner(loader BarLoader, engine *indicator.Engine, prom *metrics.Metrics, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{loader: loader, engine: engine, prom: prom, log: log}
}

// Run executes one backtest end to end and returns the completed result
// with its performance summary attached.
func (r *Runner) Run(ctx context.Context, rc RunConfig) (*Result, error) {
	start := time.Now()

	// Strategy selection fails fast, before any data is touched.
	strat, err := strategy.New(rc.Strategy, rc.Params, r.log)
	if err != nil {
		return nil, err
	}

	bars, err := r.loader.Load(ctx, rc.Symbol, rc.Resolution)
	if err != nil {
		return nil, fmt.Errorf("load bars for %s@%s: %w", rc.Symbol, rc.Resolution, err)
	}
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("bars for %s@%s: %w", rc.Symbol, rc.Resolution, err)
	}

	seq := r.engine.Compute(bars)

	sim, err := NewSimulator(rc.Sim, r.log)
	if err != nil {
		return nil, err
	}
	res, err := sim.Run(seq, strat)
	if err != nil {
		return nil, err
	}

	res.Summary, err = Analyze(res.Equity, res.Benchmark, bars.Span())
	if err != nil {
		return nil, err
	}

	if r.prom != nil {
		r.prom.RunsTotal.WithLabelValues(strat.Name(), string(rc.Sim.Mode)).Inc()
		r.prom.RunDuration.Observe(time.Since(start).Seconds())
		r.prom.BarsProcessed.Add(float64(len(bars)))
		r.prom.TradesTotal.Add(float64(len(res.Trades)))
	}

	r.log.Info("backtest finished",
		slog.String("symbol", rc.Symbol),
		slog.String("resolution", rc.Resolution),
		slog.String("strategy", strat.Name()),
		slog.Int("bars", len(bars)),
		slog.Float64("total_return", res.Summary.TotalReturn),
		slog.Float64("benchmark_return", res.Summary.BenchmarkReturn),
		slog.Float64("sharpe", res.Summary.Sharpe),
		slog.Float64("max_drawdown", res.Summary.MaxDrawdown),
		slog.Float64("alpha", res.Summary.Alpha),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}
