// Package data resolves bar sequences for the backtest core: Redis cache
// first, then SQLite, then (when auto-fetch is enabled) the broker feed.
// The core only ever sees the resulting ordered Series.
package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"backtest-systemv1/internal/metrics"
	"backtest-systemv1/internal/model"
)

// ErrNoData is returned when no source can produce bars for the requested
// symbol and resolution.
var ErrNoData = errors.New("no data available")

// resolutionIntervals maps CLI resolutions to broker intervals. Unknown
// resolutions fail fast before any fetch.
var resolutionIntervals = map[string]string{
	"1d": "ONE_DAY",
	"1h": "ONE_HOUR",
	"1w": "ONE_WEEK",
	"5m": "FIVE_MINUTE",
}

// BarStore is the persistence boundary (implemented by store/sqlite).
type BarStore interface {
	ReadBars(ctx context.Context, symbol, resolution string) (model.Series, error)
	WriteBars(ctx context.Context, symbol, resolution string, bars model.Series) (int, error)
}

// BarCache is the optional cache boundary (implemented by store/redis).
type BarCache interface {
	GetBars(ctx context.Context, symbol, resolution string) (model.Series, error)
	SetBars(ctx context.Context, symbol, resolution string, bars model.Series) error
}

// Fetcher is the optional broker boundary (implemented by brokerfeed).
type Fetcher interface {
	FetchCandles(ctx context.Context, symbol, interval string, from, to time.Time) (model.Series, error)
}

// Config configures the data service.
type Config struct {
	AutoFetch   bool          // fetch from the broker when the store is empty
	FetchWindow time.Duration // how far back an auto-fetch reaches (default 1y)
}

// Service loads bar sequences through the cache/store/broker chain.
type Service struct {
	store   BarStore
	cache   BarCache // nil = no caching
	fetcher Fetcher  // nil = no auto-fetch
	cfg     Config
	prom    *metrics.Metrics // nil = no metrics
	log     *slog.Logger
}

// NewService wires the chain. cache, fetcher, and prom may each be nil.
func NewService(store BarStore, cache BarCache, fetcher Fetcher, cfg Config, prom *metrics.Metrics, log *slog.Logger) *Service {
	if cfg.FetchWindow == 0 {
		cfg.FetchWindow = 365 * 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, cache: cache, fetcher: fetcher, cfg: cfg, prom: prom, log: log}
}

// Load returns the full ordered bar sequence for symbol@resolution.
func (s *Service) Load(ctx context.Context, symbol, resolution string) (model.Series, error) {
	if s.cache != nil {
		bars, err := s.cache.GetBars(ctx, symbol, resolution)
		if err != nil {
			// Cache trouble is not fatal; fall through to the store.
			s.log.Warn("bar cache read failed", slog.String("err", err.Error()))
		} else if len(bars) > 0 {
			s.count("cache")
			return bars, nil
		}
	}

	bars, err := s.store.ReadBars(ctx, symbol, resolution)
	if err != nil {
		return nil, fmt.Errorf("data service: %w", err)
	}
	if len(bars) == 0 && s.cfg.AutoFetch && s.fetcher != nil {
		bars, err = s.fetchAndPersist(ctx, symbol, resolution)
		if err != nil {
			return nil, err
		}
		s.count("broker")
	} else if len(bars) > 0 {
		s.count("sqlite")
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("data service: %w: %s@%s", ErrNoData, symbol, resolution)
	}

	if s.cache != nil {
		if err := s.cache.SetBars(ctx, symbol, resolution, bars); err != nil {
			s.log.Warn("bar cache write failed", slog.String("err", err.Error()))
		}
	}
	return bars, nil
}

func (s *Service) fetchAndPersist(ctx context.Context, symbol, resolution string) (model.Series, error) {
	interval, ok := resolutionIntervals[resolution]
	if !ok {
		return nil, fmt.Errorf("data service: unsupported resolution %q", resolution)
	}

	to := time.Now().UTC()
	from := to.Add(-s.cfg.FetchWindow)
	s.log.Info("auto-fetching bars from broker",
		slog.String("symbol", symbol),
		slog.String("resolution", resolution),
		slog.Time("from", from))

	bars, err := s.fetcher.FetchCandles(ctx, symbol, interval, from, to)
	if err != nil {
		return nil, fmt.Errorf("data service: broker fetch: %w", err)
	}
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("data service: broker bars: %w", err)
	}
	if _, err := s.store.WriteBars(ctx, symbol, resolution, bars); err != nil {
		return nil, fmt.Errorf("data service: persist fetched bars: %w", err)
	}
	return bars, nil
}

func (s *Service) count(source string) {
	if s.prom != nil {
		s.prom.FetchesTotal.WithLabelValues(source).Inc()
	}
}
