package tools

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/rpcerr"
	"github.com/btclens/btclens/internal/validate"
)

const (
	// defaultLatestCount is the number of blocks returned when the
	// caller does not ask for a specific count.
	defaultLatestCount = 10

	// maxBlockBatch bounds both get_latest_blocks and search_blocks.
	maxBlockBatch = 50

	// maxSearchRange bounds the height span of search_blocks.
	maxSearchRange = 100

	// fetchConcurrency bounds parallel header fetches against the node.
	fetchConcurrency = 8
)

// BlockchainTools answers block and transaction queries.
type BlockchainTools struct {
	node Node
}

func NewBlockchainTools(node Node) *BlockchainTools {
	return &BlockchainTools{node: node}
}

func (t *BlockchainTools) GetBlockchainInfo(ctx context.Context, _ jsonrpc.Params) (any, error) {
	raw, err := t.node.GetBlockchainInfo(ctx)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (t *BlockchainTools) GetBlockByHeight(ctx context.Context, p jsonrpc.Params) (any, error) {
	height, err := p.Int("height")
	if err != nil {
		return nil, err
	}
	if err := validate.BlockHeight(height); err != nil {
		return nil, err
	}

	hash, err := t.node.GetBlockHash(ctx, height)
	if err != nil {
		return nil, err
	}
	return t.fetchBlock(ctx, hash, p)
}

func (t *BlockchainTools) GetBlockByHash(ctx context.Context, p jsonrpc.Params) (any, error) {
	hash, err := p.String("hash")
	if err != nil {
		return nil, err
	}
	if err := validate.BlockHash(hash); err != nil {
		return nil, err
	}
	return t.fetchBlock(ctx, hash, p)
}

// fetchBlock retrieves a block at verbosity 1, or 2 when the caller
// asks for full transaction objects.
func (t *BlockchainTools) fetchBlock(ctx context.Context, hash string, p jsonrpc.Params) (any, error) {
	includeTxs, err := p.BoolOr("include_transactions", false)
	if err != nil {
		return nil, err
	}
	verbosity := 1
	if includeTxs {
		verbosity = 2
	}
	raw, err := t.node.GetBlock(ctx, hash, verbosity)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (t *BlockchainTools) GetTransaction(ctx context.Context, p jsonrpc.Params) (any, error) {
	txid, err := p.String("txid")
	if err != nil {
		return nil, err
	}
	if err := validate.TxHash(txid); err != nil {
		return nil, err
	}

	raw, err := t.node.GetRawTransaction(ctx, txid)
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (t *BlockchainTools) GetLatestBlocks(ctx context.Context, p jsonrpc.Params) (any, error) {
	count, err := p.IntOr("count", defaultLatestCount)
	if err != nil {
		return nil, err
	}
	if count < 1 || count > maxBlockBatch {
		return nil, rpcerr.NewValidationError("count must be between 1 and 50").WithField("count")
	}

	tip, err := t.node.GetBlockCount(ctx)
	if err != nil {
		return nil, err
	}

	start := tip - count + 1
	if start < 0 {
		start = 0
	}

	headers, err := t.fetchHeaderRange(ctx, start, tip)
	if err != nil {
		return nil, err
	}

	// Newest first.
	for i, j := 0, len(headers)-1; i < j; i, j = i+1, j-1 {
		headers[i], headers[j] = headers[j], headers[i]
	}

	return map[string]any{
		"tip_height": tip,
		"count":      len(headers),
		"blocks":     headers,
	}, nil
}

func (t *BlockchainTools) SearchBlocks(ctx context.Context, p jsonrpc.Params) (any, error) {
	start, err := p.Int("start_height")
	if err != nil {
		return nil, err
	}
	end, err := p.Int("end_height")
	if err != nil {
		return nil, err
	}
	if err := validate.BlockHeight(start); err != nil {
		return nil, err
	}
	if err := validate.BlockHeight(end); err != nil {
		return nil, err
	}
	if end < start {
		return nil, rpcerr.NewValidationError("end_height must not be below start_height").WithField("end_height")
	}
	if end-start+1 > maxSearchRange {
		return nil, rpcerr.NewValidationError("height range must not exceed 100 blocks").WithField("end_height")
	}

	headers, err := t.fetchHeaderRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"start_height": start,
		"end_height":   end,
		"count":        len(headers),
		"blocks":       headers,
	}, nil
}

// GetTransactionOutput reports whether a specific output is still
// unspent. The node answers null for spent or unknown outputs; that is
// a result here, not an error.
func (t *BlockchainTools) GetTransactionOutput(ctx context.Context, p jsonrpc.Params) (any, error) {
	txid, err := p.String("txid")
	if err != nil {
		return nil, err
	}
	if err := validate.TxHash(txid); err != nil {
		return nil, err
	}
	vout, err := p.Int("vout")
	if err != nil {
		return nil, err
	}
	if vout < 0 {
		return nil, rpcerr.NewValidationError("vout must not be negative").WithField("vout")
	}
	includeMempool, err := p.BoolOr("include_mempool", true)
	if err != nil {
		return nil, err
	}

	raw, err := t.node.GetTxOut(ctx, txid, vout, includeMempool)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]any{"txid": txid, "vout": vout, "found": false}, nil
	}

	output, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	return map[string]any{"txid": txid, "vout": vout, "found": true, "output": output}, nil
}

// fetchHeaderRange fetches block headers for [start, end] ascending,
// with bounded concurrency.
func (t *BlockchainTools) fetchHeaderRange(ctx context.Context, start, end int64) ([]map[string]any, error) {
	n := int(end - start + 1)
	headers := make([]map[string]any, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			height := start + int64(i)
			hash, err := t.node.GetBlockHash(gctx, height)
			if err != nil {
				return err
			}
			raw, err := t.node.GetBlockHeader(gctx, hash)
			if err != nil {
				return err
			}
			var header map[string]any
			if err := json.Unmarshal(raw, &header); err != nil {
				return rpcerr.Wrap(rpcerr.KindBitcoinRPC, err, "decode block header")
			}
			headers[i] = header
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return headers, nil
}
