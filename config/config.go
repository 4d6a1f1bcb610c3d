package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment
// variables. Run-specific knobs (symbol, strategy, mode) live on the CLI
// flags of each cmd instead.
type Config struct {
	// Infrastructure
	SQLitePath    string
	RedisAddr     string // empty = no bar cache
	RedisPassword string
	MetricsAddr   string // empty = no metrics server
	LogLevel      string

	// Broker credentials (required only when auto-fetch is on)
	BrokerAPIKey     string
	BrokerClientCode string
	BrokerPassword   string
	BrokerTOTPSecret string

	// Data acquisition
	AutoFetch   bool
	FetchWindow time.Duration
}

// Load reads configuration from environment variables with sensible
// defaults.
func Load() *Config {
	return &Config{
		SQLitePath:    getEnv("SQLITE_PATH", "data/market.db"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		BrokerAPIKey:     getEnv("BROKER_API_KEY", ""),
		BrokerClientCode: getEnv("BROKER_CLIENT_CODE", ""),
		BrokerPassword:   getEnv("BROKER_PASSWORD", ""),
		BrokerTOTPSecret: getEnv("BROKER_TOTP_SECRET", ""),

		AutoFetch:   getBool("AUTO_FETCH", false),
		FetchWindow: getDuration("FETCH_WINDOW", 365*24*time.Hour),
	}
}

// RequireBroker aborts unless all broker credentials are set. Called by
// cmds before enabling auto-fetch or live ingest.
func (c *Config) RequireBroker() {
	for _, kv := range []struct{ key, val string }{
		{"BROKER_API_KEY", c.BrokerAPIKey},
		{"BROKER_CLIENT_CODE", c.BrokerClientCode},
		{"BROKER_PASSWORD", c.BrokerPassword},
		{"BROKER_TOTP_SECRET", c.BrokerTOTPSecret},
	} {
		if kv.val == "" {
			log.Fatalf("[config] required env var %s not set", kv.key)
		}
	}
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid bool for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("[config] invalid duration for %s: %q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
