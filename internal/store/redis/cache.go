// Package redis caches bar sequences in front of the SQLite store and the
// broker feed, so repeated backtest runs over the same symbol skip the
// slower sources.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backtest-systemv1/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const defaultTTL = 30 * time.Minute

// Config configures the Redis bar cache.
type Config struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // 0 = defaultTTL
}

// Cache is a read-through bar-sequence cache backed by Redis.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

// New creates the cache and pings the server.
func New(cfg Config) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = defaultTTL
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Cache{client: client, ttl: ttl}, nil
}

func key(symbol, resolution string) string {
	return "bars:" + symbol + ":" + resolution
}

// GetBars returns the cached sequence, or (nil, nil) on a cache miss.
func (c *Cache) GetBars(ctx context.Context, symbol, resolution string) (model.Series, error) {
	data, err := c.client.Get(ctx, key(symbol, resolution)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get bars: %w", err)
	}
	var bars model.Series
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("redis decode bars: %w", err)
	}
	return bars, nil
}

// SetBars stores the sequence with the configured TTL.
func (c *Cache) SetBars(ctx context.Context, symbol, resolution string, bars model.Series) error {
	data, err := json.Marshal(bars)
	if err != nil {
		return fmt.Errorf("redis encode bars: %w", err)
	}
	if err := c.client.Set(ctx, key(symbol, resolution), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set bars: %w", err)
	}
	return nil
}

// Invalidate drops the cached sequence, used after fresh ingests.
func (c *Cache) Invalidate(ctx context.Context, symbol, resolution string) error {
	if err := c.client.Del(ctx, key(symbol, resolution)).Err(); err != nil {
		return fmt.Errorf("redis invalidate bars: %w", err)
	}
	return nil
}

// Close releases the client.
func (c *Cache) Close() error { return c.client.Close() }
