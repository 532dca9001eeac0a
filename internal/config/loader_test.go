package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "http://127.0.0.1:8332", cfg.Bitcoind.URL)
	require.Equal(t, 3, cfg.Bitcoind.MaxAttempts)
	require.Equal(t, time.Second, cfg.Bitcoind.BackoffBase)
	require.Equal(t, 60, cfg.RateLimit.Requests)
	require.Equal(t, time.Minute, cfg.RateLimit.Window)
	require.Equal(t, "mainnet", cfg.Network)
	require.Equal(t, "https://mempool.space/api", cfg.Mempool.BaseURL)
	require.Equal(t, "info", cfg.Logging.Level)
	require.True(t, cfg.Metrics.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
bitcoind:
  url: http://node.internal:8332
  username: rpcuser
  password: rpcpass
  timeout: 10s
network: testnet
rate_limit:
  requests: 10
  window: 30s
logging:
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "http://node.internal:8332", cfg.Bitcoind.URL)
	require.Equal(t, "rpcuser", cfg.Bitcoind.Username)
	require.Equal(t, 10*time.Second, cfg.Bitcoind.Timeout)
	require.Equal(t, "testnet", cfg.Network)
	require.Equal(t, 10, cfg.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	require.Equal(t, "debug", cfg.Logging.Level)

	// Untouched keys keep their defaults.
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 3, cfg.Bitcoind.MaxAttempts)
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("BTCLENS_NETWORK", "regtest")
	t.Setenv("BTCLENS_BITCOIND_URL", "https://node.example:8332")
	t.Setenv("BTCLENS_SERVER_PORT", "3000")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "regtest", cfg.Network)
	require.Equal(t, "https://node.example:8332", cfg.Bitcoind.URL)
	require.Equal(t, 3000, cfg.Server.Port)
}

func TestLoadRejectsBadNodeURL(t *testing.T) {
	t.Setenv("BTCLENS_BITCOIND_URL", "node.internal:8332")

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bitcoind url")
}

func TestLoadRejectsUnknownNetwork(t *testing.T) {
	t.Setenv("BTCLENS_NETWORK", "signet")

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown network")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestGetConfigReturnsLastLoaded(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Same(t, cfg, GetConfig())
}
