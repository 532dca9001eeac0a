// Package config provides centralized configuration management for the
// gateway. Settings are layered: built-in defaults, then an optional
// YAML file, then BTCLENS_* environment variables.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment variable prefix, e.g. BTCLENS_NETWORK.
const EnvPrefix = "BTCLENS"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// setDefaults registers the built-in defaults on v.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("bitcoind.url", "http://127.0.0.1:8332")
	v.SetDefault("bitcoind.username", "")
	v.SetDefault("bitcoind.password", "")
	v.SetDefault("bitcoind.timeout", "30s")
	v.SetDefault("bitcoind.max_attempts", 3)
	v.SetDefault("bitcoind.backoff_base", "1s")

	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("network", "mainnet")

	v.SetDefault("mempool.base_url", "https://mempool.space/api")
	v.SetDefault("market.coingecko_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.feargreed_url", "https://api.alternative.me/fng/")

	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.enabled", true)
}

// Load builds the configuration. configFile may be empty, in which case
// only defaults and environment variables apply.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("create config decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// validate rejects configurations the gateway cannot run with.
func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	nodeURL := strings.TrimSpace(cfg.Bitcoind.URL)
	if !strings.HasPrefix(nodeURL, "http://") && !strings.HasPrefix(nodeURL, "https://") {
		return fmt.Errorf("bitcoind url must start with http:// or https://, got %q", cfg.Bitcoind.URL)
	}

	switch cfg.Network {
	case "mainnet", "testnet", "regtest":
	default:
		return fmt.Errorf("unknown network %q (want mainnet, testnet, or regtest)", cfg.Network)
	}

	if cfg.RateLimit.Requests < 1 {
		return fmt.Errorf("rate_limit.requests must be positive, got %d", cfg.RateLimit.Requests)
	}
	if cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("rate_limit.window must be positive, got %s", cfg.RateLimit.Window)
	}
	if cfg.Bitcoind.MaxAttempts < 1 {
		return fmt.Errorf("bitcoind.max_attempts must be positive, got %d", cfg.Bitcoind.MaxAttempts)
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	return nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
