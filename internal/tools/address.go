package tools

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/sync/errgroup"

	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/mempoolapi"
	"github.com/btclens/btclens/internal/rpcerr"
	"github.com/btclens/btclens/internal/validate"
)

const (
	// defaultTxLimit is the number of transactions returned when the
	// caller does not ask for a specific limit.
	defaultTxLimit = 25

	// maxTxLimit bounds get_address_transactions.
	maxTxLimit = 50

	// recentActivitySample is how many transactions the activity
	// analysis summarizes.
	recentActivitySample = 10
)

// AddressTools answers address queries. Balance and history come from
// mempool.space; validation combines the node's view with local
// decoding against the configured chain params.
type AddressTools struct {
	node      Node
	api       AddressAPI
	netParams *chaincfg.Params
}

func NewAddressTools(node Node, api AddressAPI, netParams *chaincfg.Params) *AddressTools {
	return &AddressTools{node: node, api: api, netParams: netParams}
}

// requireAddress extracts and locally validates the address param.
func (t *AddressTools) requireAddress(p jsonrpc.Params) (string, error) {
	address, err := p.String("address")
	if err != nil {
		return "", err
	}
	if _, err := validate.Address(address, t.netParams); err != nil {
		return "", err
	}
	return address, nil
}

// ValidateAddress reports whether an address is valid, combining local
// decoding (type classification) with the node's validateaddress.
func (t *AddressTools) ValidateAddress(ctx context.Context, p jsonrpc.Params) (any, error) {
	address, err := p.String("address")
	if err != nil {
		return nil, err
	}

	decoded, err := validate.Address(address, t.netParams)
	if err != nil {
		// Invalid is a result here, not an error: the caller asked
		// whether the address is valid.
		return map[string]any{
			"address":  address,
			"is_valid": false,
			"network":  t.netParams.Name,
		}, nil
	}

	result := map[string]any{
		"address":      address,
		"is_valid":     true,
		"network":      t.netParams.Name,
		"address_type": validate.AddressType(decoded),
	}

	// The node's view adds script details; its absence should not fail
	// a locally decodable address.
	if raw, err := t.node.ValidateAddress(ctx, address); err == nil {
		if nodeView, err := decodeObject(raw); err == nil {
			result["node"] = nodeView
		}
	}

	return result, nil
}

func (t *AddressTools) GetAddressBalance(ctx context.Context, p jsonrpc.Params) (any, error) {
	address, err := t.requireAddress(p)
	if err != nil {
		return nil, err
	}

	stats, err := t.api.Address(ctx, address)
	if err != nil {
		return nil, err
	}
	return balanceResult(address, stats), nil
}

func balanceResult(address string, stats *mempoolapi.AddressStats) map[string]any {
	confirmed := stats.ChainStats.FundedTxoSum - stats.ChainStats.SpentTxoSum
	pending := stats.MempoolStats.FundedTxoSum - stats.MempoolStats.SpentTxoSum

	return map[string]any{
		"address":                address,
		"confirmed_balance_sats": confirmed,
		"confirmed_balance_btc":  satsToBTC(confirmed),
		"pending_balance_sats":   pending,
		"total_received_sats":    stats.ChainStats.FundedTxoSum,
		"total_sent_sats":        stats.ChainStats.SpentTxoSum,
		"confirmed_tx_count":     stats.ChainStats.TxCount,
		"unconfirmed_tx_count":   stats.MempoolStats.TxCount,
	}
}

func (t *AddressTools) GetAddressTransactions(ctx context.Context, p jsonrpc.Params) (any, error) {
	address, err := t.requireAddress(p)
	if err != nil {
		return nil, err
	}
	limit, err := p.IntOr("limit", defaultTxLimit)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > maxTxLimit {
		return nil, rpcerr.NewValidationError("limit must be between 1 and 50").WithField("limit")
	}

	txs, err := t.api.AddressTxs(ctx, address)
	if err != nil {
		return nil, err
	}
	if int64(len(txs)) > limit {
		txs = txs[:limit]
	}

	summaries := make([]map[string]any, 0, len(txs))
	for _, tx := range txs {
		summaries = append(summaries, txSummary(address, tx))
	}

	return map[string]any{
		"address":      address,
		"count":        len(summaries),
		"transactions": summaries,
	}, nil
}

// txSummary reshapes one mempool.space transaction into the address's
// perspective: how much it received, how much it spent.
func txSummary(address string, tx mempoolapi.Tx) map[string]any {
	var received, sent int64
	for _, vout := range tx.Vout {
		if vout.ScriptPubKeyAddress == address {
			received += vout.Value
		}
	}
	for _, vin := range tx.Vin {
		if vin.Prevout != nil && vin.Prevout.ScriptPubKeyAddress == address {
			sent += vin.Prevout.Value
		}
	}

	summary := map[string]any{
		"txid":          tx.TxID,
		"fee_sats":      tx.Fee,
		"size":          tx.Size,
		"weight":        tx.Weight,
		"confirmed":     tx.Status.Confirmed,
		"received_sats": received,
		"sent_sats":     sent,
		"net_sats":      received - sent,
	}
	if tx.Status.Confirmed {
		summary["block_height"] = tx.Status.BlockHeight
		summary["block_time"] = tx.Status.BlockTime
	}
	return summary
}

func (t *AddressTools) GetAddressUTXOs(ctx context.Context, p jsonrpc.Params) (any, error) {
	address, err := t.requireAddress(p)
	if err != nil {
		return nil, err
	}

	utxos, err := t.api.AddressUTXOs(ctx, address)
	if err != nil {
		return nil, err
	}
	return utxoResult(address, utxos), nil
}

func utxoResult(address string, utxos []mempoolapi.UTXO) map[string]any {
	var total int64
	entries := make([]map[string]any, 0, len(utxos))
	for _, u := range utxos {
		total += u.Value
		entry := map[string]any{
			"txid":       u.TxID,
			"vout":       u.Vout,
			"value_sats": u.Value,
			"confirmed":  u.Status.Confirmed,
		}
		if u.Status.Confirmed {
			entry["block_height"] = u.Status.BlockHeight
		}
		entries = append(entries, entry)
	}

	return map[string]any{
		"address":          address,
		"utxo_count":       len(entries),
		"total_value_sats": total,
		"total_value_btc":  satsToBTC(total),
		"utxos":            entries,
	}
}

// AnalyzeAddressActivity aggregates balance, history, and UTXO data
// into one report. The three upstream fetches run concurrently.
func (t *AddressTools) AnalyzeAddressActivity(ctx context.Context, p jsonrpc.Params) (any, error) {
	address, err := p.String("address")
	if err != nil {
		return nil, err
	}
	decoded, err := validate.Address(address, t.netParams)
	if err != nil {
		return nil, err
	}

	var (
		stats *mempoolapi.AddressStats
		txs   []mempoolapi.Tx
		utxos []mempoolapi.UTXO
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = t.api.Address(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = t.api.AddressTxs(gctx, address)
		return err
	})
	g.Go(func() error {
		var err error
		utxos, err = t.api.AddressUTXOs(gctx, address)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recent := txs
	if len(recent) > recentActivitySample {
		recent = recent[:recentActivitySample]
	}
	summaries := make([]map[string]any, 0, len(recent))
	var firstSeen, lastSeen int64
	for _, tx := range recent {
		summaries = append(summaries, txSummary(address, tx))
		if !tx.Status.Confirmed {
			continue
		}
		if firstSeen == 0 || tx.Status.BlockTime < firstSeen {
			firstSeen = tx.Status.BlockTime
		}
		if tx.Status.BlockTime > lastSeen {
			lastSeen = tx.Status.BlockTime
		}
	}

	activity := map[string]any{
		"recent_transactions": summaries,
	}
	if lastSeen > 0 {
		activity["earliest_sampled_block_time"] = firstSeen
		activity["latest_sampled_block_time"] = lastSeen
	}

	return map[string]any{
		"address":      address,
		"address_type": validate.AddressType(decoded),
		"network":      t.netParams.Name,
		"balance":      balanceResult(address, stats),
		"utxos":        utxoResult(address, utxos),
		"activity":     activity,
	}, nil
}
