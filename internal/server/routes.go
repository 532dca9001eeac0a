package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/btclens/btclens/internal/server/handlers"
)

// registerRoutes registers all HTTP routes
func (s *Server) registerRoutes() {
	// JSON-RPC endpoint
	s.router.Post("/", s.rpcHandler)

	// Server info for GET on the RPC endpoint
	s.router.Get("/", s.infoHandler)

	// Health endpoints
	s.router.Get("/health", s.health.HealthHandler)
	s.router.Get("/health/live", s.health.LivenessHandler)
	s.router.Get("/health/ready", s.health.ReadinessHandler)

	// Version endpoint
	s.router.Get("/version", handlers.VersionHandler)

	if s.metricsEnabled {
		s.router.Get("/metrics", promhttp.Handler().ServeHTTP)
	}
}

// infoHandler describes the service for GET requests on the RPC root.
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"name":    "btclens",
		"version": handlers.AppVersion,
		"network": s.network,
		"jsonrpc": "2.0",
		"methods": s.dispatcher.Methods(),
		"endpoints": map[string]string{
			"rpc":     "POST /",
			"health":  "GET /health",
			"version": "GET /version",
		},
	}
	if s.metricsEnabled {
		info["endpoints"].(map[string]string)["metrics"] = "GET /metrics"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(info)
}

// writeJSONError writes a plain (non-JSON-RPC) error body for the REST
// surface.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
