package tools

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/btclens/btclens/internal/jsonrpc"
)

// feeTargets are the confirmation targets probed by get_mempool_stats,
// in blocks.
var feeTargets = []int{1, 3, 6, 12, 24, 144}

// NetworkTools answers node and network state queries.
type NetworkTools struct {
	node Node
}

func NewNetworkTools(node Node) *NetworkTools {
	return &NetworkTools{node: node}
}

// GetNetworkStatus merges the node's network, chain, and mempool views
// into one snapshot. The three RPCs run concurrently.
func (t *NetworkTools) GetNetworkStatus(ctx context.Context, _ jsonrpc.Params) (any, error) {
	var network, chain, mempool map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := t.node.GetNetworkInfo(gctx)
		if err != nil {
			return err
		}
		network, err = decodeObject(raw)
		return err
	})
	g.Go(func() error {
		raw, err := t.node.GetBlockchainInfo(gctx)
		if err != nil {
			return err
		}
		chain, err = decodeObject(raw)
		return err
	})
	g.Go(func() error {
		raw, err := t.node.GetMempoolInfo(gctx)
		if err != nil {
			return err
		}
		mempool, err = decodeObject(raw)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return map[string]any{
		"network":    network,
		"blockchain": chain,
		"mempool":    mempool,
	}, nil
}

// GetMempoolStats returns mempool state plus smart fee estimates at the
// standard confirmation targets. Targets the node cannot estimate are
// skipped rather than failing the whole call.
func (t *NetworkTools) GetMempoolStats(ctx context.Context, _ jsonrpc.Params) (any, error) {
	raw, err := t.node.GetMempoolInfo(ctx)
	if err != nil {
		return nil, err
	}
	mempool, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	estimates := make(map[string]any, len(feeTargets))
	for _, target := range feeTargets {
		feeRaw, err := t.node.EstimateSmartFee(ctx, target)
		if err != nil {
			continue
		}
		fee, err := decodeObject(feeRaw)
		if err != nil {
			continue
		}
		// estimatesmartfee reports failure inside a 200 result.
		if _, failed := fee["errors"]; failed {
			continue
		}
		if _, ok := fee["feerate"]; !ok {
			continue
		}
		estimates[strconv.Itoa(target)] = map[string]any{
			"feerate_btc_per_kvb": fee["feerate"],
			"blocks":              fee["blocks"],
		}
	}

	return map[string]any{
		"mempool":       mempool,
		"fee_estimates": estimates,
	}, nil
}

func (t *NetworkTools) GetMiningInfo(ctx context.Context, _ jsonrpc.Params) (any, error) {
	raw, err := t.node.GetMiningInfo(ctx)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (t *NetworkTools) GetPeerInfo(ctx context.Context, _ jsonrpc.Params) (any, error) {
	raw, err := t.node.GetPeerInfo(ctx)
	if err != nil {
		return nil, err
	}
	peers, err := decodeList(raw)
	if err != nil {
		return nil, err
	}

	var inbound, outbound int
	for _, peer := range peers {
		if in, ok := peer["inbound"].(bool); ok && in {
			inbound++
		} else {
			outbound++
		}
	}

	return map[string]any{
		"peer_count": len(peers),
		"inbound":    inbound,
		"outbound":   outbound,
		"peers":      peers,
	}, nil
}
