package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/mempoolapi"
	"github.com/btclens/btclens/internal/rpcerr"
)

func newAddressTools(node Node, api AddressAPI) *AddressTools {
	return NewAddressTools(node, api, &chaincfg.MainNetParams)
}

func TestValidateAddressValid(t *testing.T) {
	node := &fakeNode{validateResult: json.RawMessage(`{"isvalid": true, "isscript": false}`)}

	result, err := newAddressTools(node, &fakeAddressAPI{}).ValidateAddress(context.Background(),
		jsonrpc.Params{"address": genesisAddr})
	require.NoError(t, err)

	res := result.(map[string]any)
	require.Equal(t, true, res["is_valid"])
	require.Equal(t, "P2PKH", res["address_type"])
	require.Equal(t, "mainnet", res["network"])
	require.Equal(t, true, res["node"].(map[string]any)["isvalid"])
}

func TestValidateAddressInvalidIsResultNotError(t *testing.T) {
	result, err := newAddressTools(&fakeNode{}, &fakeAddressAPI{}).ValidateAddress(context.Background(),
		jsonrpc.Params{"address": "not-an-address"})
	require.NoError(t, err)

	res := result.(map[string]any)
	require.Equal(t, false, res["is_valid"])
	require.NotContains(t, res, "address_type")
}

func TestValidateAddressSurvivesNodeOutage(t *testing.T) {
	node := &fakeNode{err: rpcerr.NewBitcoinRPCError("node down")}

	result, err := newAddressTools(node, &fakeAddressAPI{}).ValidateAddress(context.Background(),
		jsonrpc.Params{"address": genesisAddr})
	require.NoError(t, err)

	res := result.(map[string]any)
	require.Equal(t, true, res["is_valid"])
	require.NotContains(t, res, "node")
}

func TestGetAddressBalance(t *testing.T) {
	api := &fakeAddressAPI{stats: &mempoolapi.AddressStats{
		Address:      genesisAddr,
		ChainStats:   mempoolapi.ChainStats{FundedTxoSum: 150000, SpentTxoSum: 50000, TxCount: 12},
		MempoolStats: mempoolapi.ChainStats{FundedTxoSum: 1000, TxCount: 1},
	}}

	result, err := newAddressTools(&fakeNode{}, api).GetAddressBalance(context.Background(),
		jsonrpc.Params{"address": genesisAddr})
	require.NoError(t, err)

	res := result.(map[string]any)
	require.Equal(t, int64(100000), res["confirmed_balance_sats"])
	require.InDelta(t, 0.001, res["confirmed_balance_btc"], 1e-9)
	require.Equal(t, int64(1000), res["pending_balance_sats"])
	require.Equal(t, int64(12), res["confirmed_tx_count"])
}

func TestGetAddressBalanceRejectsInvalidAddress(t *testing.T) {
	_, err := newAddressTools(&fakeNode{}, &fakeAddressAPI{}).GetAddressBalance(context.Background(),
		jsonrpc.Params{"address": "bogus"})
	require.True(t, rpcerr.IsKind(err, rpcerr.KindValidation))
}

func makeTxs(n int) []mempoolapi.Tx {
	txs := make([]mempoolapi.Tx, 0, n)
	for i := 0; i < n; i++ {
		txs = append(txs, mempoolapi.Tx{
			TxID: fmt.Sprintf("%064x", i+1),
			Fee:  100,
			Status: mempoolapi.TxStatus{
				Confirmed:   true,
				BlockHeight: int64(850000 - i),
				BlockTime:   int64(1700000000 - i*600),
			},
			Vout: []mempoolapi.TxVout{{ScriptPubKeyAddress: genesisAddr, Value: 5000}},
		})
	}
	return txs
}

func TestGetAddressTransactionsAppliesLimit(t *testing.T) {
	api := &fakeAddressAPI{txs: makeTxs(30)}

	result, err := newAddressTools(&fakeNode{}, api).GetAddressTransactions(context.Background(),
		jsonrpc.Params{"address": genesisAddr, "limit": float64(5)})
	require.NoError(t, err)

	res := result.(map[string]any)
	require.Equal(t, 5, res["count"])
	require.Len(t, res["transactions"].([]map[string]any), 5)
}

func TestGetAddressTransactionsDefaultLimit(t *testing.T) {
	api := &fakeAddressAPI{txs: makeTxs(30)}

	result, err := newAddressTools(&fakeNode{}, api).GetAddressTransactions(context.Background(),
		jsonrpc.Params{"address": genesisAddr})
	require.NoError(t, err)
	require.Equal(t, 25, result.(map[string]any)["count"])
}

func TestGetAddressTransactionsRejectsOversizedLimit(t *testing.T) {
	_, err := newAddressTools(&fakeNode{}, &fakeAddressAPI{}).GetAddressTransactions(context.Background(),
		jsonrpc.Params{"address": genesisAddr, "limit": float64(51)})
	require.True(t, rpcerr.IsKind(err, rpcerr.KindValidation))
}

func TestGetAddressTransactionsRejectsNonIntegerLimit(t *testing.T) {
	_, err := newAddressTools(&fakeNode{}, &fakeAddressAPI{}).GetAddressTransactions(context.Background(),
		jsonrpc.Params{"address": genesisAddr, "limit": "five"})
	require.True(t, rpcerr.IsKind(err, rpcerr.KindValidation))
}

func TestTxSummaryComputesNetFlow(t *testing.T) {
	tx := mempoolapi.Tx{
		TxID: "aa",
		Vin: []mempoolapi.TxVin{
			{Prevout: &mempoolapi.TxVout{ScriptPubKeyAddress: genesisAddr, Value: 10000}},
			{Prevout: &mempoolapi.TxVout{ScriptPubKeyAddress: "other", Value: 7000}},
		},
		Vout: []mempoolapi.TxVout{
			{ScriptPubKeyAddress: genesisAddr, Value: 2000},
			{ScriptPubKeyAddress: "other", Value: 14500},
		},
	}

	summary := txSummary(genesisAddr, tx)
	require.Equal(t, int64(2000), summary["received_sats"])
	require.Equal(t, int64(10000), summary["sent_sats"])
	require.Equal(t, int64(-8000), summary["net_sats"])
}

func TestGetAddressUTXOs(t *testing.T) {
	api := &fakeAddressAPI{utxos: []mempoolapi.UTXO{
		{TxID: "aa", Vout: 0, Value: 98580, Status: mempoolapi.TxStatus{Confirmed: true, BlockHeight: 850000}},
		{TxID: "bb", Vout: 1, Value: 1000},
	}}

	result, err := newAddressTools(&fakeNode{}, api).GetAddressUTXOs(context.Background(),
		jsonrpc.Params{"address": genesisAddr})
	require.NoError(t, err)

	res := result.(map[string]any)
	require.Equal(t, 2, res["utxo_count"])
	require.Equal(t, int64(99580), res["total_value_sats"])
}

func TestAnalyzeAddressActivityAggregates(t *testing.T) {
	api := &fakeAddressAPI{
		stats: &mempoolapi.AddressStats{
			ChainStats: mempoolapi.ChainStats{FundedTxoSum: 200000, SpentTxoSum: 50000, TxCount: 20},
		},
		txs: makeTxs(15),
		utxos: []mempoolapi.UTXO{
			{TxID: "aa", Value: 150000, Status: mempoolapi.TxStatus{Confirmed: true}},
		},
	}

	result, err := newAddressTools(&fakeNode{}, api).AnalyzeAddressActivity(context.Background(),
		jsonrpc.Params{"address": genesisAddr})
	require.NoError(t, err)

	res := result.(map[string]any)
	require.Equal(t, "P2PKH", res["address_type"])
	require.Equal(t, int64(150000), res["balance"].(map[string]any)["confirmed_balance_sats"])
	require.Equal(t, 1, res["utxos"].(map[string]any)["utxo_count"])

	activity := res["activity"].(map[string]any)
	// Sample is capped at 10 even with more history available.
	require.Len(t, activity["recent_transactions"].([]map[string]any), 10)
	require.Equal(t, int64(1700000000), activity["latest_sampled_block_time"])
}

func TestAnalyzeAddressActivityPropagatesUpstreamFailure(t *testing.T) {
	api := &fakeAddressAPI{err: rpcerr.NewNetworkError("mempool api down")}

	_, err := newAddressTools(&fakeNode{}, api).AnalyzeAddressActivity(context.Background(),
		jsonrpc.Params{"address": genesisAddr})
	require.True(t, rpcerr.IsKind(err, rpcerr.KindNetwork))
}
