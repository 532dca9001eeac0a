package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/metrics"
	"github.com/btclens/btclens/internal/rpcerr"
)

// maxRequestBytes bounds the JSON-RPC request body.
const maxRequestBytes = 1 << 20

// rpcHandler serves the JSON-RPC 2.0 endpoint. Protocol-level failures
// travel inside the envelope: the HTTP status is 200 for every
// dispatched request.
func (s *Server) rpcHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		resp := jsonrpc.NewError(nil,
			rpcerr.NewInvalidRequestError("request body unreadable or too large"))
		writeRPCResponse(w, resp)
		metrics.ObserveRPC("unknown", "invalid_request", time.Since(start))
		return
	}

	resp := s.dispatcher.Handle(r.Context(), body)
	writeRPCResponse(w, resp)

	method := probeMethod(body)
	outcome := "ok"
	if resp.Error != nil {
		outcome = "error"
	}
	metrics.ObserveRPC(method, outcome, time.Since(start))
}

func writeRPCResponse(w http.ResponseWriter, resp jsonrpc.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// probeMethod extracts the method name for metric labels without
// trusting the body to be a valid request.
func probeMethod(body []byte) string {
	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.Method == "" {
		return "unknown"
	}
	return probe.Method
}
