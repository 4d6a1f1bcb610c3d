// Package sqlite persists bar sequences and computed indicator columns.
//
// One table keyed by (symbol, resolution, ts). Indicator columns are
// nullable: NULL marks values inside their warm-up window, mirroring the
// in-memory NaN convention.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	"backtest-systemv1/internal/indicator"
	"backtest-systemv1/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const batchSize = 500

// Config configures the SQLite store.
type Config struct {
	DBPath string // e.g. "data/market.db"
}

// Store is a single-writer SQLite store for bars and indicators.
type Store struct {
	db *sql.DB
}

// New opens the database in WAL mode and ensures the schema exists.
func New(cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS market_prices (
			symbol     TEXT    NOT NULL,
			resolution TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			open       REAL    NOT NULL,
			high       REAL    NOT NULL,
			low        REAL    NOT NULL,
			close      REAL    NOT NULL,
			volume     REAL,

			ma_short    REAL,
			ma_long     REAL,
			ath         REAL,
			bb_mid      REAL,
			bb_upper    REAL,
			bb_lower    REAL,
			ema_fast    REAL,
			ema_slow    REAL,
			macd        REAL,
			macd_signal REAL,
			tr          REAL,
			atr         REAL,
			rsi         REAL,
			supertrend       REAL,
			supertrend_upper REAL,
			supertrend_lower REAL,
			supertrend_trend INTEGER,

			PRIMARY KEY (symbol, resolution, ts)
		);
	`)
	return err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CountBars returns the number of stored bars for symbol@resolution.
func (s *Store) CountBars(ctx context.Context, symbol, resolution string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM market_prices WHERE symbol = ? AND resolution = ?
	`, symbol, resolution).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite count bars: %w", err)
	}
	return n, nil
}

// ReadBars reads the full bar sequence for symbol@resolution, ordered by
// timestamp ascending.
func (s *Store) ReadBars(ctx context.Context, symbol, resolution string) (model.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM market_prices
		WHERE symbol = ? AND resolution = ?
		ORDER BY ts ASC
	`, symbol, resolution)
	if err != nil {
		return nil, fmt.Errorf("sqlite query bars: %w", err)
	}
	defer rows.Close()

	var bars model.Series
	for rows.Next() {
		var b model.Bar
		var tsUnix int64
		var volume sql.NullFloat64
		if err := rows.Scan(&tsUnix, &b.Open, &b.High, &b.Low, &b.Close, &volume); err != nil {
			return nil, fmt.Errorf("sqlite scan bar: %w", err)
		}
		b.TS = time.Unix(tsUnix, 0).UTC()
		b.Volume = volume.Float64
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// WriteBars inserts bars in batched transactions, ignoring duplicates on
// the (symbol, resolution, ts) key. Returns the number of rows attempted.
func (s *Store) WriteBars(ctx context.Context, symbol, resolution string, bars model.Series) (int, error) {
	written := 0
	for start := 0; start < len(bars); start += batchSize {
		end := start + batchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := s.insertBatch(ctx, symbol, resolution, bars[start:end]); err != nil {
			return written, err
		}
		written += end - start
	}
	log.Printf("[sqlite] wrote %d bars for %s@%s", written, symbol, resolution)
	return written, nil
}

func (s *Store) insertBatch(ctx context.Context, symbol, resolution string, bars model.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO market_prices (symbol, resolution, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, symbol, resolution, b.TS.Unix(),
			b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert bar: %w", err)
		}
	}
	return tx.Commit()
}

// WriteIndicators updates the indicator columns for an enriched sequence.
// Undefined (NaN) values are stored as NULL.
func (s *Store) WriteIndicators(ctx context.Context, symbol, resolution string, seq indicator.Sequence) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite begin: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		UPDATE market_prices SET
			ma_short = ?, ma_long = ?, ath = ?,
			bb_mid = ?, bb_upper = ?, bb_lower = ?,
			ema_fast = ?, ema_slow = ?, macd = ?, macd_signal = ?,
			tr = ?, atr = ?, rsi = ?,
			supertrend = ?, supertrend_upper = ?, supertrend_lower = ?, supertrend_trend = ?
		WHERE symbol = ? AND resolution = ? AND ts = ?
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("sqlite prepare indicators: %w", err)
	}
	defer stmt.Close()

	updated := 0
	for _, r := range seq {
		ind := r.Ind
		var trend sql.NullInt64
		if ind.SupertrendTrend != indicator.TrendNone {
			trend = sql.NullInt64{Int64: int64(ind.SupertrendTrend), Valid: true}
		}
		res, err := stmt.ExecContext(ctx,
			nullable(ind.MAShort), nullable(ind.MALong), nullable(ind.ATH),
			nullable(ind.BBMid), nullable(ind.BBUpper), nullable(ind.BBLower),
			nullable(ind.EMAFast), nullable(ind.EMASlow), nullable(ind.MACD), nullable(ind.MACDSignal),
			nullable(ind.TR), nullable(ind.ATR), nullable(ind.RSI),
			nullable(ind.Supertrend), nullable(ind.SupertrendUpper), nullable(ind.SupertrendLower), trend,
			symbol, resolution, r.TS.Unix())
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("sqlite update indicators: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Printf("[sqlite] updated indicators for %d rows (%s@%s)", updated, symbol, resolution)
	return updated, nil
}

// nullable converts NaN to NULL for DB writes.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
