package config

import "time"

// Config represents the complete application configuration, assembled
// from defaults, an optional YAML file, and environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Bitcoind  BitcoindConfig  `mapstructure:"bitcoind"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Network   string          `mapstructure:"network"`
	Mempool   MempoolConfig   `mapstructure:"mempool"`
	Market    MarketConfig    `mapstructure:"market"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BitcoindConfig contains the Bitcoin Core RPC connection settings
type BitcoindConfig struct {
	URL         string        `mapstructure:"url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxAttempts int           `mapstructure:"max_attempts"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// RateLimitConfig bounds outbound node RPC traffic
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MempoolConfig contains the mempool.space API settings
type MempoolConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// MarketConfig contains the market data API settings
type MarketConfig struct {
	CoinGeckoURL string `mapstructure:"coingecko_url"`
	FearGreedURL string `mapstructure:"feargreed_url"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: debug, info, warn, error
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether /metrics is exposed
	Enabled bool `mapstructure:"enabled"`
}
