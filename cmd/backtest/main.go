// cmd/backtest runs one strategy over stored historical bars and prints
// the performance summary against buy-and-hold.
//
// Usage:
//
//	go run ./cmd/backtest --symbol=SPY --strategy=ma_cross --mode=fractional
//	go run ./cmd/backtest --symbol=SPY --strategy=rsi --params=lower=25,upper=75 --mode=shares --cash=10000
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"backtest-systemv1/config"
	"backtest-systemv1/internal/backtest"
	"backtest-systemv1/internal/data"
	"backtest-systemv1/internal/indicator"
	"backtest-systemv1/internal/logger"
	"backtest-systemv1/internal/metrics"
	redisstore "backtest-systemv1/internal/store/redis"
	sqlitestore "backtest-systemv1/internal/store/sqlite"
	"backtest-systemv1/internal/strategy"
	"backtest-systemv1/pkg/brokerfeed"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	symbol := flag.String("symbol", "SPY", "Instrument symbol")
	resolution := flag.String("resolution", "1d", "Bar resolution (1d, 1h, ...)")
	stratName := flag.String("strategy", "ma_cross", "Strategy name: "+strings.Join(strategy.Names(), ", "))
	paramStr := flag.String("params", "", "Strategy params: key=value,key=value")
	mode := flag.String("mode", "fractional", "Simulation mode: fractional or shares")
	cash := flag.Float64("cash", 10000, "Starting cash")
	qty := flag.Float64("qty", 1, "Shares per BUY (shares mode)")
	shortW := flag.Int("short", 20, "Short moving average window")
	longW := flag.Int("long", 50, "Long moving average window")
	showTrades := flag.Bool("trades", false, "Print the trade list")
	flag.Parse()

	cfg := config.Load()
	slogger := logger.Init("backtest", logger.ParseLevel(cfg.LogLevel))

	// Persistence
	store, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer store.Close()

	// Optional bar cache
	var cache data.BarCache
	if cfg.RedisAddr != "" {
		c, err := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[backtest] redis unavailable, continuing without cache: %v", err)
		} else {
			defer c.Close()
			cache = c
		}
	}

	ctx := context.Background()

	// Optional broker auto-fetch
	var fetcher data.Fetcher
	if cfg.AutoFetch {
		cfg.RequireBroker()
		client := brokerfeed.NewClient(brokerfeed.Config{
			APIKey:     cfg.BrokerAPIKey,
			ClientCode: cfg.BrokerClientCode,
			Password:   cfg.BrokerPassword,
			TOTPSecret: cfg.BrokerTOTPSecret,
		})
		if err := client.Login(ctx); err != nil {
			log.Fatalf("[backtest] broker login failed: %v", err)
		}
		fetcher = client
	}

	// Optional metrics endpoint
	var prom *metrics.Metrics
	if cfg.MetricsAddr != "" {
		prom = metrics.NewMetrics()
		metrics.NewServer(cfg.MetricsAddr).Start()
	}

	svc := data.NewService(store, cache, fetcher, data.Config{
		AutoFetch:   cfg.AutoFetch,
		FetchWindow: cfg.FetchWindow,
	}, prom, slogger)

	indCfg := indicator.DefaultConfig()
	indCfg.ShortWindow = *shortW
	indCfg.LongWindow = *longW
	engine, err := indicator.NewEngine(indCfg, slogger)
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	runner := backtest.NewRunner(svc, engine, prom, slogger)
	res, err := runner.Run(ctx, backtest.RunConfig{
		Symbol:     *symbol,
		Resolution: *resolution,
		Strategy:   *stratName,
		Params:     parseParams(*paramStr),
		Sim: backtest.Config{
			Mode:        backtest.Mode(*mode),
			InitialCash: *cash,
			Quantity:    *qty,
		},
	})
	if err != nil {
		log.Fatalf("[backtest] run failed: %v", err)
	}

	printSummary(*symbol, *stratName, res)
	if *showTrades {
		printTrades(res)
	}
}

func printSummary(symbol, stratName string, res *backtest.Result) {
	s := res.Summary
	fmt.Println()
	fmt.Println("╔══════════════════════════════════════════╗")
	fmt.Println("║           BACKTEST COMPLETE              ║")
	fmt.Println("╠══════════════════════════════════════════╣")
	fmt.Printf("║  Symbol:            %-20s ║\n", symbol)
	fmt.Printf("║  Strategy:          %-20s ║\n", stratName)
	fmt.Printf("║  Mode:              %-20s ║\n", res.Mode)
	fmt.Printf("║  Bars:              %-20d ║\n", len(res.Positions))
	fmt.Printf("║  Trades:            %-20d ║\n", len(res.Trades))
	fmt.Printf("║  Total return:      %19.2f%% ║\n", s.TotalReturn*100)
	fmt.Printf("║  CAGR:              %19.2f%% ║\n", s.CAGR*100)
	fmt.Printf("║  Sharpe:            %20.2f ║\n", s.Sharpe)
	fmt.Printf("║  Max drawdown:      %19.2f%% ║\n", s.MaxDrawdown*100)
	fmt.Printf("║  Benchmark return:  %19.2f%% ║\n", s.BenchmarkReturn*100)
	fmt.Printf("║  Alpha:             %19.2f%% ║\n", s.Alpha*100)
	fmt.Println("╚══════════════════════════════════════════╝")
}

func printTrades(res *backtest.Result) {
	fmt.Println()
	for _, t := range res.Trades {
		fmt.Printf("  %s  %-4s  qty=%-8.2f @ %.2f\n",
			t.TS.Format("2006-01-02"), t.Action, t.Qty, t.Price)
	}
}

// parseParams parses "key=value,key=value" into strategy params.
func parseParams(s string) strategy.Params {
	p := strategy.Params{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			log.Printf("[backtest] skipping malformed param %q", part)
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
		if err != nil {
			log.Printf("[backtest] skipping non-numeric param %q", part)
			continue
		}
		p[strings.TrimSpace(kv[0])] = v
	}
	if len(p) == 0 {
		return nil
	}
	return p
}
