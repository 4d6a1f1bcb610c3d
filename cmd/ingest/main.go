// cmd/ingest fetches historical bars from the broker, persists them to
// SQLite, and recomputes the stored indicator columns — the full
// fetch + persist + recompute pipeline. With --live it then stays
// attached to the broker's candle stream and appends bars as they close,
// until interrupted.
//
// Usage:
//
//	go run ./cmd/ingest --symbol=SPY --resolution=1d --window=8760h
//	go run ./cmd/ingest --symbol=SPY --resolution=5m --interval=FIVE_MINUTE --live
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"backtest-systemv1/config"
	"backtest-systemv1/internal/indicator"
	"backtest-systemv1/internal/logger"
	"backtest-systemv1/internal/metrics"
	"backtest-systemv1/internal/model"
	redisstore "backtest-systemv1/internal/store/redis"
	sqlitestore "backtest-systemv1/internal/store/sqlite"
	"backtest-systemv1/pkg/brokerfeed"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	symbol := flag.String("symbol", "SPY", "Instrument symbol")
	resolution := flag.String("resolution", "1d", "Bar resolution (1d, 1h, ...)")
	interval := flag.String("interval", "ONE_DAY", "Broker candle interval")
	window := flag.Duration("window", 365*24*time.Hour, "How far back to fetch")
	live := flag.Bool("live", false, "Stay on the candle stream after the historical fetch")
	flag.Parse()

	cfg := config.Load()
	cfg.RequireBroker()
	slogger := logger.Init("ingest", logger.ParseLevel(cfg.LogLevel))

	var prom *metrics.Metrics
	if cfg.MetricsAddr != "" {
		prom = metrics.NewMetrics()
		metrics.NewServer(cfg.MetricsAddr).Start()
	}

	store, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[ingest] sqlite open failed: %v", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	start := time.Now()

	client := brokerfeed.NewClient(brokerfeed.Config{
		APIKey:     cfg.BrokerAPIKey,
		ClientCode: cfg.BrokerClientCode,
		Password:   cfg.BrokerPassword,
		TOTPSecret: cfg.BrokerTOTPSecret,
	})
	if err := client.Login(ctx); err != nil {
		log.Fatalf("[ingest] broker login failed: %v", err)
	}

	to := time.Now().UTC()
	bars, err := client.FetchCandles(ctx, *symbol, *interval, to.Add(-*window), to)
	if err != nil {
		log.Fatalf("[ingest] fetch failed: %v", err)
	}
	if err := bars.Validate(); err != nil {
		log.Fatalf("[ingest] broker returned malformed series: %v", err)
	}
	log.Printf("[ingest] fetched %d bars for %s@%s", len(bars), *symbol, *resolution)

	inserted, err := store.WriteBars(ctx, *symbol, *resolution, bars)
	if err != nil {
		log.Fatalf("[ingest] persist failed: %v", err)
	}

	if *live {
		appended, err := streamLive(ctx, client, store, *symbol, *resolution)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[ingest] live stream ended: %v", err)
		}
		inserted += appended

		// The interrupt consumed ctx; finish the write-back on a fresh one.
		stop()
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
	}

	// Recompute indicators over the complete stored sequence, not just the
	// newly fetched slice: the recurrences depend on the full history.
	full, err := store.ReadBars(ctx, *symbol, *resolution)
	if err != nil {
		log.Fatalf("[ingest] reload failed: %v", err)
	}
	engine, err := indicator.NewEngine(indicator.DefaultConfig(), slogger)
	if err != nil {
		log.Fatalf("[ingest] %v", err)
	}
	updated, err := store.WriteIndicators(ctx, *symbol, *resolution, engine.Compute(full))
	if err != nil {
		log.Fatalf("[ingest] indicator write-back failed: %v", err)
	}

	// Drop any stale cached sequence.
	if cfg.RedisAddr != "" {
		cache, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[ingest] redis unavailable, skipping cache invalidation: %v", err)
		} else {
			defer cache.Close()
			if err := cache.Invalidate(ctx, *symbol, *resolution); err != nil {
				log.Printf("[ingest] cache invalidation failed: %v", err)
			}
		}
	}

	if prom != nil {
		prom.IngestRows.Add(float64(inserted))
		prom.IngestDuration.Observe(time.Since(start).Seconds())
	}

	total, err := store.CountBars(ctx, *symbol, *resolution)
	if err != nil {
		log.Fatalf("[ingest] count failed: %v", err)
	}
	log.Printf("[ingest] complete: %d bars written, %d indicator rows updated, %d bars stored total in %v",
		inserted, updated, total, time.Since(start))
}

// streamLive attaches to the broker candle stream and appends each closed
// bar to the store until ctx is cancelled. Duplicate timestamps are
// deduplicated by the store's insert-or-ignore key.
func streamLive(ctx context.Context, client *brokerfeed.Client, store *sqlitestore.Store, symbol, resolution string) (int, error) {
	stream := brokerfeed.NewStream(client, "")
	if err := stream.Connect(ctx); err != nil {
		return 0, err
	}
	defer stream.Close()
	if err := stream.Subscribe([]string{symbol}); err != nil {
		return 0, err
	}
	log.Printf("[ingest] live: streaming %s candles, interrupt to stop", symbol)

	barCh := make(chan model.Bar, 64)
	runErr := make(chan error, 1)
	go func() { runErr <- stream.Run(ctx, barCh) }()

	appended := 0
	for {
		select {
		case <-ctx.Done():
			log.Printf("[ingest] live: stopped after %d bars", appended)
			return appended, ctx.Err()
		case err := <-runErr:
			return appended, err
		case bar := <-barCh:
			if _, err := store.WriteBars(ctx, symbol, resolution, model.Series{bar}); err != nil {
				return appended, err
			}
			appended++
		}
	}
}
