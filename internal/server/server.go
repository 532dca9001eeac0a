// Package server wires the chi HTTP surface: the JSON-RPC endpoint,
// health probes, version, and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/btclens/btclens/internal/config"
	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/observability"
	"github.com/btclens/btclens/internal/server/handlers"
	servermw "github.com/btclens/btclens/internal/server/middleware"
)

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	cfg            config.ServerConfig
	dispatcher     *jsonrpc.Dispatcher
	health         *handlers.HealthManager
	metricsEnabled bool
	network        string
}

// New creates a new HTTP server instance
func New(cfg config.ServerConfig, dispatcher *jsonrpc.Dispatcher, health *handlers.HealthManager, network string, metricsEnabled bool) *Server {
	r := chi.NewRouter()

	// Standard chi middleware
	r.Use(middleware.RealIP)

	// Custom middleware in order: RequestID → Metrics → Recovery
	r.Use(servermw.RequestID)
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		writeJSONError(w, http.StatusNotFound, "NOT_FOUND", "the requested resource was not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "the requested method is not allowed for this resource")
	})

	s := &Server{
		router:         r,
		cfg:            cfg,
		dispatcher:     dispatcher,
		health:         health,
		metricsEnabled: metricsEnabled,
		network:        network,
	}
	s.registerRoutes()
	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	observability.ServerLogger.Info("Starting HTTP server",
		zap.String("addr", addr),
		zap.String("network", s.network))

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	observability.ServerLogger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}
