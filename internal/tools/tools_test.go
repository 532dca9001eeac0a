package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/btclens/btclens/internal/marketapi"
	"github.com/btclens/btclens/internal/mempoolapi"
	"github.com/btclens/btclens/internal/rpcerr"
)

// genesisAddr is a well-known valid mainnet P2PKH address.
const genesisAddr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

// fakeNode is an in-memory Node with canned responses.
type fakeNode struct {
	blockchainInfo json.RawMessage
	networkInfo    json.RawMessage
	mempoolInfo    json.RawMessage
	miningInfo     json.RawMessage
	peerInfo       json.RawMessage
	blockCount     int64
	hashByHeight   map[int64]string
	blockByHash    map[string]json.RawMessage
	headerByHash   map[string]json.RawMessage
	txByID         map[string]json.RawMessage
	txOutByKey     map[string]json.RawMessage
	validateResult json.RawMessage
	feeByTarget    map[int]json.RawMessage

	err error // when set, every call fails with it
}

func (f *fakeNode) raw(v json.RawMessage, what string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v == nil {
		return nil, rpcerr.NewBitcoinRPCError(fmt.Sprintf("no canned %s", what))
	}
	return v, nil
}

func (f *fakeNode) GetBlockchainInfo(ctx context.Context) (json.RawMessage, error) {
	return f.raw(f.blockchainInfo, "blockchaininfo")
}

func (f *fakeNode) GetNetworkInfo(ctx context.Context) (json.RawMessage, error) {
	return f.raw(f.networkInfo, "networkinfo")
}

func (f *fakeNode) GetMempoolInfo(ctx context.Context) (json.RawMessage, error) {
	return f.raw(f.mempoolInfo, "mempoolinfo")
}

func (f *fakeNode) GetMiningInfo(ctx context.Context) (json.RawMessage, error) {
	return f.raw(f.miningInfo, "mininginfo")
}

func (f *fakeNode) GetPeerInfo(ctx context.Context) (json.RawMessage, error) {
	return f.raw(f.peerInfo, "peerinfo")
}

func (f *fakeNode) GetBlockCount(ctx context.Context) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.blockCount, nil
}

func (f *fakeNode) GetBlockHash(ctx context.Context, height int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	hash, ok := f.hashByHeight[height]
	if !ok {
		return "", rpcerr.NewBitcoinRPCError(fmt.Sprintf("no block at height %d", height))
	}
	return hash, nil
}

func (f *fakeNode) GetBlock(ctx context.Context, hash string, verbosity int) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raw(f.blockByHash[hash], "block")
}

func (f *fakeNode) GetBlockHeader(ctx context.Context, hash string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raw(f.headerByHash[hash], "blockheader")
}

func (f *fakeNode) GetRawTransaction(ctx context.Context, txid string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raw(f.txByID[txid], "rawtransaction")
}

func (f *fakeNode) GetTxOut(ctx context.Context, txid string, vout int64, includeMempool bool) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.txOutByKey[fmt.Sprintf("%s:%d", txid, vout)]
	if !ok {
		// The node answers null for spent or unknown outputs.
		return json.RawMessage("null"), nil
	}
	return raw, nil
}

func (f *fakeNode) ValidateAddress(ctx context.Context, address string) (json.RawMessage, error) {
	return f.raw(f.validateResult, "validateaddress")
}

func (f *fakeNode) EstimateSmartFee(ctx context.Context, confTarget int) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raw(f.feeByTarget[confTarget], "estimatesmartfee")
}

// fakeAddressAPI is an in-memory AddressAPI.
type fakeAddressAPI struct {
	stats *mempoolapi.AddressStats
	txs   []mempoolapi.Tx
	utxos []mempoolapi.UTXO
	err   error
}

func (f *fakeAddressAPI) Address(ctx context.Context, address string) (*mempoolapi.AddressStats, error) {
	return f.stats, f.err
}

func (f *fakeAddressAPI) AddressTxs(ctx context.Context, address string) ([]mempoolapi.Tx, error) {
	return f.txs, f.err
}

func (f *fakeAddressAPI) AddressUTXOs(ctx context.Context, address string) ([]mempoolapi.UTXO, error) {
	return f.utxos, f.err
}

// fakeMarketAPI is an in-memory MarketAPI.
type fakeMarketAPI struct {
	price *marketapi.SimplePrice
	chart *marketapi.MarketChart
	coin  *marketapi.CoinData
	fng   *marketapi.FearGreed
	err   error

	chartDays int
}

func (f *fakeMarketAPI) Price(ctx context.Context, currency string) (*marketapi.SimplePrice, error) {
	return f.price, f.err
}

func (f *fakeMarketAPI) Chart(ctx context.Context, days int, currency string) (*marketapi.MarketChart, error) {
	f.chartDays = days
	return f.chart, f.err
}

func (f *fakeMarketAPI) Coin(ctx context.Context) (*marketapi.CoinData, error) {
	return f.coin, f.err
}

func (f *fakeMarketAPI) FearGreedIndex(ctx context.Context, limit int) (*marketapi.FearGreed, error) {
	return f.fng, f.err
}
