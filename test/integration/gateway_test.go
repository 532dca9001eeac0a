// Package integration exercises the fully wired gateway: real
// dispatcher, real node RPC client, real rate limiter, against a fake
// Bitcoin Core served by httptest.
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/btclens/btclens/internal/bitcoind"
	"github.com/btclens/btclens/internal/config"
	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/ratelimit"
	"github.com/btclens/btclens/internal/server"
	"github.com/btclens/btclens/internal/server/handlers"
	"github.com/btclens/btclens/internal/tools"
)

// fakeCore answers JSON-RPC 1.0 like Bitcoin Core would.
func fakeCore(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "rpcuser", user)
		require.Equal(t, "rpcpass", pass)

		var req struct {
			ID     string `json:"id"`
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		var result string
		switch req.Method {
		case "getblockchaininfo":
			result = `{"chain": "main", "blocks": 850000, "headers": 850000, "verificationprogress": 0.9999}`
		case "getmininginfo":
			result = `{"difficulty": 90000000000000, "networkhashps": 6.5e20}`
		default:
			w.Write([]byte(`{"result": null, "error": {"code": -32601, "message": "Method not found"}, "id": "` + req.ID + `"}`))
			return
		}
		w.Write([]byte(`{"result": ` + result + `, "error": null, "id": "` + req.ID + `"}`))
	}))
}

// wireGateway builds the production object graph against the fake node.
func wireGateway(t *testing.T, nodeURL string, rateLimit int) http.Handler {
	t.Helper()

	limiter := ratelimit.New(rateLimit, time.Minute)
	node := bitcoind.New(bitcoind.Config{
		URL:      nodeURL,
		Username: "rpcuser",
		Password: "rpcpass",
	}, limiter)

	registry, err := tools.NewRegistry(tools.Deps{
		Node:      node,
		Address:   nil,
		Market:    nil,
		Network:   "mainnet",
		Limiter:   limiter,
		Version:   "integration",
		StartedAt: time.Now(),
	})
	require.NoError(t, err)

	dispatcher := jsonrpc.NewDispatcher(registry, nil)
	health := handlers.NewHealthManager("integration")
	health.RegisterChecker("bitcoind", node)

	srv := server.New(config.ServerConfig{Host: "127.0.0.1", Port: 0}, dispatcher, health, "mainnet", false)
	return srv.Handler()
}

func rpc(t *testing.T, h http.Handler, body string) map[string]any {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestEndToEndBlockchainInfo(t *testing.T) {
	core := fakeCore(t)
	defer core.Close()

	h := wireGateway(t, core.URL, 60)
	resp := rpc(t, h, `{"jsonrpc": "2.0", "method": "get_blockchain_info", "id": "e2e-1"}`)

	require.Equal(t, "2.0", resp["jsonrpc"])
	require.Equal(t, "e2e-1", resp["id"])
	result := resp["result"].(map[string]any)
	require.Equal(t, "main", result["chain"])
	require.Equal(t, float64(850000), result["blocks"])
}

func TestEndToEndNodeRejectionBecomesTypedError(t *testing.T) {
	core := fakeCore(t)
	defer core.Close()

	h := wireGateway(t, core.URL, 60)
	resp := rpc(t, h, `{"jsonrpc": "2.0", "method": "get_peer_info", "id": 2}`)

	errObj := resp["error"].(map[string]any)
	require.Equal(t, float64(-32001), errObj["code"])
	require.Equal(t, float64(-32601), errObj["data"].(map[string]any)["node_code"])
}

func TestEndToEndRateLimit(t *testing.T) {
	core := fakeCore(t)
	defer core.Close()

	h := wireGateway(t, core.URL, 2)

	for i := 0; i < 2; i++ {
		resp := rpc(t, h, `{"jsonrpc": "2.0", "method": "get_blockchain_info", "id": 1}`)
		require.Contains(t, resp, "result")
	}

	resp := rpc(t, h, `{"jsonrpc": "2.0", "method": "get_blockchain_info", "id": 1}`)
	require.Equal(t, float64(-32004), resp["error"].(map[string]any)["code"])
}

func TestEndToEndHealthReflectsNode(t *testing.T) {
	core := fakeCore(t)
	h := wireGateway(t, core.URL, 60)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Kill the node; readiness must flip.
	core.Close()
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
