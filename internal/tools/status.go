package tools

import (
	"context"
	"time"

	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/ratelimit"
)

// nodeProbeTimeout bounds the connectivity check inside
// get_server_status so a dead node cannot stall the whole call.
const nodeProbeTimeout = 5 * time.Second

// StatusTools answers the gateway's own status query.
type StatusTools struct {
	node      Node
	limiter   *ratelimit.Limiter
	version   string
	network   string
	startedAt time.Time
	clock     func() time.Time

	listMethods func() []string
}

func NewStatusTools(node Node, limiter *ratelimit.Limiter, version, network string, startedAt time.Time, clock func() time.Time) *StatusTools {
	return &StatusTools{
		node:      node,
		limiter:   limiter,
		version:   version,
		network:   network,
		startedAt: startedAt,
		clock:     clock,
	}
}

// SetMethodLister injects the registry's method list. Set after the
// registry is assembled to avoid a construction cycle.
func (t *StatusTools) SetMethodLister(fn func() []string) {
	t.listMethods = fn
}

// GetServerStatus reports server info, node connectivity, and the
// available method list. RPC credentials are never included.
func (t *StatusTools) GetServerStatus(ctx context.Context, _ jsonrpc.Params) (any, error) {
	result := map[string]any{
		"server": map[string]any{
			"version":        t.version,
			"network":        t.network,
			"uptime_seconds": int64(t.clock().Sub(t.startedAt).Seconds()),
		},
	}

	probeCtx, cancel := context.WithTimeout(ctx, nodeProbeTimeout)
	defer cancel()

	node := map[string]any{}
	if raw, err := t.node.GetBlockchainInfo(probeCtx); err != nil {
		node["reachable"] = false
		node["error"] = err.Error()
	} else if info, err := decodeObject(raw); err != nil {
		node["reachable"] = false
		node["error"] = err.Error()
	} else {
		node["reachable"] = true
		node["chain"] = info["chain"]
		node["blocks"] = info["blocks"]
		node["headers"] = info["headers"]
		node["verification_progress"] = info["verificationprogress"]
	}
	result["node"] = node

	if t.limiter != nil {
		result["rate_limit"] = map[string]any{
			"in_flight":      t.limiter.InFlight(ratelimit.DefaultKey),
			"limit":          t.limiter.Limit,
			"window_seconds": int64(t.limiter.Window.Seconds()),
		}
	}

	if t.listMethods != nil {
		result["methods"] = t.listMethods()
	}

	return result, nil
}
