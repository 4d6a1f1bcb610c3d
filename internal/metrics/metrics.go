// Package metrics exposes Prometheus metrics for backtest runs and data
// ingestion, plus a small HTTP server for /metrics.
package metrics

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the backtest engine.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec // labels: strategy, mode
	RunDuration   prometheus.Histogram
	BarsProcessed prometheus.Counter
	TradesTotal   prometheus.Counter

	IngestRows     prometheus.Counter
	IngestDuration prometheus.Histogram
	FetchesTotal   *prometheus.CounterVec // labels: source (cache, sqlite, broker)
}

// NewMetrics creates and registers all metrics on the default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Completed backtest runs (by strategy and mode)",
		}, []string{"strategy", "mode"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "End-to-end backtest run latency",
			Buckets: prometheus.DefBuckets,
		}),
		BarsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_bars_processed_total",
			Help: "Bars driven through the simulator",
		}),
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "backtest_trades_total",
			Help: "Trade records produced by completed runs",
		}),
		IngestRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Bars written to SQLite by the ingest pipeline",
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Full fetch+persist+recompute pipeline latency",
			Buckets: prometheus.DefBuckets,
		}),
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "data_fetches_total",
			Help: "Bar sequence loads (by source)",
		}, []string{"source"}),
	}

	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.BarsProcessed,
		m.TradesTotal,
		m.IngestRows,
		m.IngestDuration,
		m.FetchesTotal,
	)
	return m
}

// Server runs an HTTP server exposing /metrics.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates the metrics HTTP server.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) {
	_ = s.srv.Shutdown(ctx)
}
