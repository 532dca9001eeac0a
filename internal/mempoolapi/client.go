// Package mempoolapi is the REST client for the mempool.space API,
// which answers the address queries a pruned or wallet-less node cannot.
// Transport failures surface as NetworkError after the shared backoff
// policy is exhausted.
package mempoolapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/btclens/btclens/internal/backoff"
	"github.com/btclens/btclens/internal/metrics"
	"github.com/btclens/btclens/internal/rpcerr"
)

// DefaultBaseURL is the public mempool.space instance.
const DefaultBaseURL = "https://mempool.space/api"

const defaultMaxAttempts = 3

// Client talks to a mempool.space compatible API.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	Policy      backoff.Policy
	MaxAttempts int
	Logger      *zap.Logger
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL string) *Client {
	value := strings.TrimSpace(baseURL)
	if value == "" {
		value = DefaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(value, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     zap.NewNop(),
	}
}

// ChainStats aggregates funded/spent totals for an address.
type ChainStats struct {
	FundedTxoSum int64 `json:"funded_txo_sum"`
	SpentTxoSum  int64 `json:"spent_txo_sum"`
	TxCount      int64 `json:"tx_count"`
}

// AddressStats is the /address/{addr} response.
type AddressStats struct {
	Address      string     `json:"address"`
	ChainStats   ChainStats `json:"chain_stats"`
	MempoolStats ChainStats `json:"mempool_stats"`
}

// TxStatus describes a transaction's confirmation state.
type TxStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight int64  `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   int64  `json:"block_time"`
}

// TxVin is a transaction input with its previous output.
type TxVin struct {
	Prevout *TxVout `json:"prevout"`
}

// TxVout is a transaction output.
type TxVout struct {
	ScriptPubKeyAddress string `json:"scriptpubkey_address"`
	Value               int64  `json:"value"`
}

// Tx is one entry of the /address/{addr}/txs response.
type Tx struct {
	TxID   string   `json:"txid"`
	Fee    int64    `json:"fee"`
	Size   int64    `json:"size"`
	Weight int64    `json:"weight"`
	Status TxStatus `json:"status"`
	Vin    []TxVin  `json:"vin"`
	Vout   []TxVout `json:"vout"`
}

// UTXO is one entry of the /address/{addr}/utxo response.
type UTXO struct {
	TxID   string   `json:"txid"`
	Vout   int64    `json:"vout"`
	Value  int64    `json:"value"`
	Status TxStatus `json:"status"`
}

// Address fetches confirmed and mempool stats for an address.
func (c *Client) Address(ctx context.Context, address string) (*AddressStats, error) {
	var stats AddressStats
	if err := c.get(ctx, "/address/"+url.PathEscape(address), &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// AddressTxs fetches recent transaction history for an address.
func (c *Client) AddressTxs(ctx context.Context, address string) ([]Tx, error) {
	var txs []Tx
	if err := c.get(ctx, "/address/"+url.PathEscape(address)+"/txs", &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// AddressUTXOs fetches unspent outputs for an address.
func (c *Client) AddressUTXOs(ctx context.Context, address string) ([]UTXO, error) {
	var utxos []UTXO
	if err := c.get(ctx, "/address/"+url.PathEscape(address)+"/utxo", &utxos); err != nil {
		return nil, err
	}
	return utxos, nil
}

// get performs a GET with retries on transient failures, decoding the
// body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	maxAttempts := c.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	reqURL := c.BaseURL + path

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return rpcerr.Wrap(rpcerr.KindNetwork, ctx.Err(),
					fmt.Sprintf("mempool request abandoned: %v", ctx.Err()))
			case <-time.After(c.Policy.Delay(attempt - 1)):
			}
		}

		retryable, err := c.attempt(ctx, client, reqURL, out)
		if err == nil {
			metrics.ObserveUpstream("mempool", "ok")
			return nil
		}
		if !retryable {
			metrics.ObserveUpstream("mempool", "error")
			return err
		}
		metrics.ObserveUpstream("mempool", "retry")
		logger.Debug("mempool api attempt failed",
			zap.String("url", reqURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		lastErr = err
	}

	return rpcerr.Wrap(rpcerr.KindNetwork, lastErr,
		fmt.Sprintf("mempool api unavailable after %d attempts: %v", maxAttempts, lastErr))
}

func (c *Client) attempt(ctx context.Context, client *http.Client, reqURL string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, rpcerr.Wrap(rpcerr.KindNetwork, err, "build mempool request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return true, rpcerr.Wrap(rpcerr.KindNetwork, err, fmt.Sprintf("mempool api unreachable: %v", err))
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, rpcerr.Wrap(rpcerr.KindNetwork, err, "read mempool response")
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return true, rpcerr.NewNetworkError(fmt.Sprintf("mempool api returned HTTP %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		// Client-side rejections (unknown address shapes etc) do not
		// improve with retries.
		return false, rpcerr.NewNetworkError(
			fmt.Sprintf("mempool api rejected request: HTTP %d %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, rpcerr.Wrap(rpcerr.KindNetwork, err, "decode mempool response")
	}
	return false, nil
}
