// Package bitcoind provides the authenticated, rate-limited, retried
// JSON-RPC 1.0 client for the Bitcoin Core node. Every failure path
// resolves to a taxonomy error before returning: the caller sees
// BitcoinRPCError or RateLimitError, never a raw transport error.
package bitcoind

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/btclens/btclens/internal/backoff"
	"github.com/btclens/btclens/internal/metrics"
	"github.com/btclens/btclens/internal/ratelimit"
	"github.com/btclens/btclens/internal/rpcerr"
)

const (
	// DefaultTimeout bounds a single HTTP attempt, not the whole retry
	// sequence.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts is the total attempt budget per logical call.
	DefaultMaxAttempts = 3
)

// Config carries the node connection settings.
type Config struct {
	URL         string
	Username    string
	Password    string
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
}

// Client is the outbound RPC client. One instance owns one HTTP
// connection pool and is safe for concurrent use.
type Client struct {
	baseURL     string
	username    string
	password    string
	timeout     time.Duration
	maxAttempts int
	policy      backoff.Policy

	limiter    *ratelimit.Limiter
	httpClient *http.Client
	logger     *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient substitutes the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a client from cfg. The limiter is shared across all calls
// through this client; pass the process-wide instance.
func New(cfg Config, limiter *ratelimit.Limiter, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	c := &Client{
		baseURL:     strings.TrimSpace(cfg.URL),
		username:    cfg.Username,
		password:    cfg.Password,
		timeout:     timeout,
		maxAttempts: attempts,
		policy:      backoff.Policy{Base: cfg.BackoffBase},
		limiter:     limiter,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 32,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest is the JSON-RPC 1.0 body sent to the node.
type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// NodeError is the error object returned by the node itself.
type NodeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *NodeError      `json:"error"`
}

// Call performs one rate-limited, retried JSON-RPC call. The rate-limit
// gate is consulted once per logical call, not per retry, so one
// caller's retries cannot drain another caller's quota.
func (c *Client) Call(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	if c.limiter != nil && !c.limiter.Admit(ratelimit.DefaultKey) {
		c.logger.Warn("node call rejected by rate limiter", zap.String("method", method))
		metrics.RateLimitRejections.Inc()
		return nil, rpcerr.NewRateLimitError(
			fmt.Sprintf("rate limit of %d requests per %s exceeded", c.limiter.Limit, c.limiter.Window))
	}

	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		Jsonrpc: "1.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.KindInternal, err, "encode rpc request")
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.policy.Delay(attempt - 1)
			c.logger.Debug("retrying node call",
				zap.String("method", method),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, rpcerr.Wrap(rpcerr.KindBitcoinRPC, ctx.Err(),
					fmt.Sprintf("call %s abandoned: %v", method, ctx.Err()))
			case <-time.After(delay):
			}
		}

		result, retryable, attemptErr := c.attempt(ctx, method, body)
		if attemptErr == nil {
			metrics.ObserveUpstream("bitcoind", "ok")
			return result, nil
		}
		if !retryable {
			metrics.ObserveUpstream("bitcoind", "error")
			return nil, attemptErr
		}
		metrics.ObserveUpstream("bitcoind", "retry")
		lastErr = attemptErr
	}

	c.logger.Error("node call failed after all attempts",
		zap.String("method", method),
		zap.Int("attempts", c.maxAttempts),
		zap.Error(lastErr))
	return nil, rpcerr.Wrap(rpcerr.KindBitcoinRPC, lastErr,
		fmt.Sprintf("call %s failed after %d attempts: %v", method, c.maxAttempts, lastErr))
}

// attempt performs a single HTTP round trip. retryable reports whether
// the failure is transient.
func (c *Client) attempt(ctx context.Context, method string, body []byte) (json.RawMessage, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, rpcerr.Wrap(rpcerr.KindBitcoinRPC, err, "build node request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts, refused connections, DNS failures: transient.
		return nil, true, rpcerr.Wrap(rpcerr.KindNetwork, err, fmt.Sprintf("node unreachable: %v", err))
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, rpcerr.Wrap(rpcerr.KindNetwork, err, "read node response")
	}

	var parsed rpcResponse
	decodeErr := json.Unmarshal(respBody, &parsed)

	// A well-formed JSON-RPC error body is a semantic rejection from the
	// node regardless of HTTP status. Retrying cannot change the outcome.
	if decodeErr == nil && parsed.Error != nil {
		return nil, false, rpcerr.NewBitcoinRPCError(
			fmt.Sprintf("node rejected %s: %s", method, parsed.Error.Message)).
			WithData(map[string]any{
				"node_code":    parsed.Error.Code,
				"node_message": parsed.Error.Message,
			})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, true, rpcerr.NewNetworkError(
			fmt.Sprintf("node returned HTTP %d for %s", resp.StatusCode, method))
	}

	if decodeErr != nil {
		return nil, false, rpcerr.Wrap(rpcerr.KindBitcoinRPC, decodeErr,
			fmt.Sprintf("invalid JSON response for %s", method))
	}

	return parsed.Result, false, nil
}

// CheckHealth probes node connectivity for the health surface. The
// probe goes around the rate limiter: readiness checks must not drain
// the callers' quota, and a saturated window must not fail a reachable
// node. A single attempt, no retries.
func (c *Client) CheckHealth(ctx context.Context) error {
	body, err := json.Marshal(rpcRequest{
		Jsonrpc: "1.0",
		ID:      uuid.New().String(),
		Method:  "getblockchaininfo",
		Params:  []any{},
	})
	if err != nil {
		return rpcerr.Wrap(rpcerr.KindInternal, err, "encode health probe")
	}
	_, _, err = c.attempt(ctx, "getblockchaininfo", body)
	return err
}

// decodeInto unmarshals a raw result, normalizing decode failures.
func decodeInto(raw json.RawMessage, method string, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return rpcerr.Wrap(rpcerr.KindBitcoinRPC, err,
			fmt.Sprintf("decode %s result", method))
	}
	return nil
}

// Node RPC wrappers. Large results stay raw; handlers reshape them.

func (c *Client) GetBlockchainInfo(ctx context.Context) (json.RawMessage, error) {
	return c.Call(ctx, "getblockchaininfo")
}

func (c *Client) GetNetworkInfo(ctx context.Context) (json.RawMessage, error) {
	return c.Call(ctx, "getnetworkinfo")
}

func (c *Client) GetMempoolInfo(ctx context.Context) (json.RawMessage, error) {
	return c.Call(ctx, "getmempoolinfo")
}

func (c *Client) GetMiningInfo(ctx context.Context) (json.RawMessage, error) {
	return c.Call(ctx, "getmininginfo")
}

func (c *Client) GetPeerInfo(ctx context.Context) (json.RawMessage, error) {
	return c.Call(ctx, "getpeerinfo")
}

func (c *Client) GetBlockCount(ctx context.Context) (int64, error) {
	raw, err := c.Call(ctx, "getblockcount")
	if err != nil {
		return 0, err
	}
	var count int64
	if err := decodeInto(raw, "getblockcount", &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) GetBlockHash(ctx context.Context, height int64) (string, error) {
	raw, err := c.Call(ctx, "getblockhash", height)
	if err != nil {
		return "", err
	}
	var hash string
	if err := decodeInto(raw, "getblockhash", &hash); err != nil {
		return "", err
	}
	return hash, nil
}

// GetBlock fetches a block at the given verbosity (1 = tx ids only,
// 2 = full transaction objects).
func (c *Client) GetBlock(ctx context.Context, hash string, verbosity int) (json.RawMessage, error) {
	return c.Call(ctx, "getblock", hash, verbosity)
}

func (c *Client) GetBlockHeader(ctx context.Context, hash string) (json.RawMessage, error) {
	return c.Call(ctx, "getblockheader", hash, true)
}

func (c *Client) GetRawTransaction(ctx context.Context, txid string) (json.RawMessage, error) {
	return c.Call(ctx, "getrawtransaction", txid, true)
}

func (c *Client) ValidateAddress(ctx context.Context, address string) (json.RawMessage, error) {
	return c.Call(ctx, "validateaddress", address)
}

func (c *Client) GetTxOut(ctx context.Context, txid string, vout int64, includeMempool bool) (json.RawMessage, error) {
	return c.Call(ctx, "gettxout", txid, vout, includeMempool)
}

func (c *Client) EstimateSmartFee(ctx context.Context, confTarget int) (json.RawMessage, error) {
	return c.Call(ctx, "estimatesmartfee", confTarget)
}
