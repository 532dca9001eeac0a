// Package metrics defines the Prometheus collectors for the gateway.
// All collectors register on the default registry; the server exposes
// them at /metrics via promhttp.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCRequests counts dispatched JSON-RPC methods by outcome.
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btclens_rpc_requests_total",
		Help: "JSON-RPC requests dispatched, by method and outcome.",
	}, []string{"method", "outcome"})

	// RPCDuration observes end-to-end handler latency per method.
	RPCDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "btclens_rpc_request_duration_seconds",
		Help:    "JSON-RPC handler latency in seconds, by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// UpstreamAttempts counts outbound attempts per upstream target.
	UpstreamAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btclens_upstream_attempts_total",
		Help: "Outbound HTTP attempts, by upstream target and outcome.",
	}, []string{"target", "outcome"})

	// RateLimitRejections counts calls refused by the node rate limiter.
	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "btclens_rate_limit_rejections_total",
		Help: "Node RPC calls rejected by the sliding-window rate limiter.",
	})

	// HTTPRequests counts HTTP requests by method, route, and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btclens_http_requests_total",
		Help: "HTTP requests served, by method, endpoint, and status.",
	}, []string{"method", "endpoint", "status"})

	// HTTPDuration observes HTTP request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "btclens_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds, by method and endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
)

// ObserveRPC records one dispatched JSON-RPC method call.
func ObserveRPC(method, outcome string, elapsed time.Duration) {
	RPCRequests.WithLabelValues(method, outcome).Inc()
	RPCDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served HTTP request.
func ObserveHTTP(method, endpoint string, status int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// ObserveUpstream records one outbound attempt.
func ObserveUpstream(target, outcome string) {
	UpstreamAttempts.WithLabelValues(target, outcome).Inc()
}
