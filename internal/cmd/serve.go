package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/btclens/btclens/internal/bitcoind"
	"github.com/btclens/btclens/internal/config"
	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/marketapi"
	"github.com/btclens/btclens/internal/mempoolapi"
	"github.com/btclens/btclens/internal/observability"
	"github.com/btclens/btclens/internal/ratelimit"
	"github.com/btclens/btclens/internal/server"
	"github.com/btclens/btclens/internal/server/handlers"
	"github.com/btclens/btclens/internal/tools"
)

var (
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the JSON-RPC gateway with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown

The server drains in-flight requests and flushes logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("host") {
			cfg.Server.Host = serverHost
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = serverPort
		}

		logLevel := cfg.Logging.Level
		if verbose {
			logLevel = "debug"
		}
		observability.InitServerLogger("btclens", logLevel)
		logger := observability.ServerLogger
		defer observability.Sync()

		logger.Info("Initializing gateway",
			zap.String("version", versionInfo.Version),
			zap.String("network", cfg.Network),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port))

		limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		node := bitcoind.New(bitcoind.Config{
			URL:         cfg.Bitcoind.URL,
			Username:    cfg.Bitcoind.Username,
			Password:    cfg.Bitcoind.Password,
			Timeout:     cfg.Bitcoind.Timeout,
			MaxAttempts: cfg.Bitcoind.MaxAttempts,
			BackoffBase: cfg.Bitcoind.BackoffBase,
		}, limiter, bitcoind.WithLogger(logger))

		mempoolClient := mempoolapi.NewClient(cfg.Mempool.BaseURL)
		mempoolClient.Logger = logger
		marketClient := marketapi.NewClient(cfg.Market.CoinGeckoURL, cfg.Market.FearGreedURL)
		marketClient.Logger = logger

		registry, err := tools.NewRegistry(tools.Deps{
			Node:      node,
			Address:   mempoolClient,
			Market:    marketClient,
			Network:   cfg.Network,
			Limiter:   limiter,
			Version:   versionInfo.Version,
			StartedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		dispatcher := jsonrpc.NewDispatcher(registry, logger)

		health := handlers.NewHealthManager(versionInfo.Version)
		health.RegisterChecker("bitcoind", node)

		srv := server.New(cfg.Server, dispatcher, health, cfg.Network, cfg.Metrics.Enabled)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errChan := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		select {
		case err := <-errChan:
			return err
		case <-ctx.Done():
		}

		logger.Info("Shutdown signal received, draining requests",
			zap.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown did not complete cleanly", zap.Error(err))
			return err
		}

		logger.Info("HTTP server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "127.0.0.1", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")
}
