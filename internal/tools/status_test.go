package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/btclens/btclens/internal/ratelimit"
	"github.com/btclens/btclens/internal/rpcerr"
)

func TestGetServerStatusReportsHealthyNode(t *testing.T) {
	node := &fakeNode{blockchainInfo: json.RawMessage(
		`{"chain": "main", "blocks": 850000, "headers": 850000, "verificationprogress": 0.9999}`)}

	started := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return started.Add(90 * time.Second) }

	st := NewStatusTools(node, nil, "1.2.3", "mainnet", started, clock)
	st.SetMethodLister(func() []string { return []string{"get_blockchain_info", "get_server_status"} })

	result, err := st.GetServerStatus(context.Background(), nil)
	require.NoError(t, err)

	res := result.(map[string]any)
	server := res["server"].(map[string]any)
	require.Equal(t, "1.2.3", server["version"])
	require.Equal(t, "mainnet", server["network"])
	require.Equal(t, int64(90), server["uptime_seconds"])

	nodeView := res["node"].(map[string]any)
	require.Equal(t, true, nodeView["reachable"])
	require.Equal(t, "main", nodeView["chain"])
	require.Equal(t, float64(850000), nodeView["blocks"])

	require.Equal(t, []string{"get_blockchain_info", "get_server_status"}, res["methods"])
}

func TestGetServerStatusReportsUnreachableNode(t *testing.T) {
	node := &fakeNode{err: rpcerr.NewBitcoinRPCError("connection refused")}

	st := NewStatusTools(node, nil, "1.2.3", "regtest", time.Now(), time.Now)
	result, err := st.GetServerStatus(context.Background(), nil)
	require.NoError(t, err)

	nodeView := result.(map[string]any)["node"].(map[string]any)
	require.Equal(t, false, nodeView["reachable"])
	require.Contains(t, nodeView["error"], "connection refused")
}

func TestGetServerStatusReportsRateLimitOccupancy(t *testing.T) {
	node := &fakeNode{blockchainInfo: json.RawMessage(`{"chain": "main"}`)}

	limiter := ratelimit.New(60, time.Minute)
	require.True(t, limiter.Admit(ratelimit.DefaultKey))
	require.True(t, limiter.Admit(ratelimit.DefaultKey))

	st := NewStatusTools(node, limiter, "1.2.3", "mainnet", time.Now(), time.Now)
	result, err := st.GetServerStatus(context.Background(), nil)
	require.NoError(t, err)

	rl := result.(map[string]any)["rate_limit"].(map[string]any)
	require.Equal(t, 2, rl["in_flight"])
	require.Equal(t, 60, rl["limit"])
	require.Equal(t, int64(60), rl["window_seconds"])
}

func TestGetServerStatusNeverEchoesCredentials(t *testing.T) {
	node := &fakeNode{blockchainInfo: json.RawMessage(`{"chain": "main"}`)}

	st := NewStatusTools(node, nil, "1.2.3", "mainnet", time.Now(), time.Now)
	result, err := st.GetServerStatus(context.Background(), nil)
	require.NoError(t, err)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)
	require.NotContains(t, string(encoded), "password")
	require.NotContains(t, string(encoded), "username")
}
