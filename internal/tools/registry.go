// Package tools implements the JSON-RPC method handlers. Each handler
// module owns one slice of the method surface (blockchain, network,
// address, market, status) and depends on upstream clients through
// narrow interfaces so tests can stub them.
package tools

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/marketapi"
	"github.com/btclens/btclens/internal/mempoolapi"
	"github.com/btclens/btclens/internal/ratelimit"
	"github.com/btclens/btclens/internal/validate"
)

// Node is the slice of the bitcoind client the handlers consume.
type Node interface {
	GetBlockchainInfo(ctx context.Context) (json.RawMessage, error)
	GetNetworkInfo(ctx context.Context) (json.RawMessage, error)
	GetMempoolInfo(ctx context.Context) (json.RawMessage, error)
	GetMiningInfo(ctx context.Context) (json.RawMessage, error)
	GetPeerInfo(ctx context.Context) (json.RawMessage, error)
	GetBlockCount(ctx context.Context) (int64, error)
	GetBlockHash(ctx context.Context, height int64) (string, error)
	GetBlock(ctx context.Context, hash string, verbosity int) (json.RawMessage, error)
	GetBlockHeader(ctx context.Context, hash string) (json.RawMessage, error)
	GetRawTransaction(ctx context.Context, txid string) (json.RawMessage, error)
	GetTxOut(ctx context.Context, txid string, vout int64, includeMempool bool) (json.RawMessage, error)
	ValidateAddress(ctx context.Context, address string) (json.RawMessage, error)
	EstimateSmartFee(ctx context.Context, confTarget int) (json.RawMessage, error)
}

// AddressAPI is the slice of the mempool.space client the address
// handlers consume.
type AddressAPI interface {
	Address(ctx context.Context, address string) (*mempoolapi.AddressStats, error)
	AddressTxs(ctx context.Context, address string) ([]mempoolapi.Tx, error)
	AddressUTXOs(ctx context.Context, address string) ([]mempoolapi.UTXO, error)
}

// MarketAPI is the slice of the market data client the market handlers
// consume.
type MarketAPI interface {
	Price(ctx context.Context, currency string) (*marketapi.SimplePrice, error)
	Chart(ctx context.Context, days int, currency string) (*marketapi.MarketChart, error)
	Coin(ctx context.Context) (*marketapi.CoinData, error)
	FearGreedIndex(ctx context.Context, limit int) (*marketapi.FearGreed, error)
}

// Deps carries everything the handler modules need.
type Deps struct {
	Node    Node
	Address AddressAPI
	Market  MarketAPI

	// Network selects the chain params for address validation:
	// mainnet, testnet, or regtest.
	Network string

	// Limiter, when set, lets the status handler report rate-limit
	// occupancy.
	Limiter *ratelimit.Limiter

	Version   string
	StartedAt time.Time
	Clock     func() time.Time
}

// NewRegistry wires all handler modules into one method registry.
func NewRegistry(deps Deps) (jsonrpc.Registry, error) {
	netParams, err := validate.NetParams(deps.Network)
	if err != nil {
		return nil, err
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	registry := jsonrpc.Registry{}

	blockchain := NewBlockchainTools(deps.Node)
	registry["get_blockchain_info"] = blockchain.GetBlockchainInfo
	registry["get_block_by_height"] = blockchain.GetBlockByHeight
	registry["get_block_by_hash"] = blockchain.GetBlockByHash
	registry["get_transaction"] = blockchain.GetTransaction
	registry["get_transaction_output"] = blockchain.GetTransactionOutput
	registry["get_latest_blocks"] = blockchain.GetLatestBlocks
	registry["search_blocks"] = blockchain.SearchBlocks

	network := NewNetworkTools(deps.Node)
	registry["get_network_status"] = network.GetNetworkStatus
	registry["get_mempool_stats"] = network.GetMempoolStats
	registry["get_mining_info"] = network.GetMiningInfo
	registry["get_peer_info"] = network.GetPeerInfo

	address := NewAddressTools(deps.Node, deps.Address, netParams)
	registry["validate_address"] = address.ValidateAddress
	registry["get_address_balance"] = address.GetAddressBalance
	registry["get_address_transactions"] = address.GetAddressTransactions
	registry["get_address_utxos"] = address.GetAddressUTXOs
	registry["analyze_address_activity"] = address.AnalyzeAddressActivity

	market := NewMarketTools(deps.Market)
	registry["get_current_price"] = market.GetCurrentPrice
	registry["get_price_history"] = market.GetPriceHistory
	registry["get_market_stats"] = market.GetMarketStats
	registry["get_fear_greed_index"] = market.GetFearGreedIndex

	status := NewStatusTools(deps.Node, deps.Limiter, deps.Version, deps.Network, deps.StartedAt, clock)
	status.SetMethodLister(func() []string {
		names := make([]string, 0, len(registry))
		for name := range registry {
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	})
	registry["get_server_status"] = status.GetServerStatus

	// The MCP surface wraps a snapshot of the methods above; taking it
	// before registration keeps tools/call from reaching itself.
	snapshot := make(jsonrpc.Registry, len(registry))
	for name, handler := range registry {
		snapshot[name] = handler
	}
	mcp := NewMCPTools(snapshot, deps.Version)
	registry["initialize"] = mcp.Initialize
	registry["tools/list"] = mcp.ListTools
	registry["tools/call"] = mcp.CallTool
	registry["resources/list"] = mcp.ListResources
	registry["resources/read"] = mcp.ReadResource

	return registry, nil
}
