// Package marketapi is the REST client for public Bitcoin market data:
// CoinGecko for price and market statistics, alternative.me for the
// Fear & Greed index. Neither endpoint requires authentication.
package marketapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/btclens/btclens/internal/backoff"
	"github.com/btclens/btclens/internal/metrics"
	"github.com/btclens/btclens/internal/rpcerr"
)

// Default endpoints.
const (
	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
	DefaultFearGreedURL = "https://api.alternative.me/fng/"
)

const defaultMaxAttempts = 3

// Client fetches market data from the public APIs.
type Client struct {
	CoinGeckoURL string
	FearGreedURL string
	HTTPClient   *http.Client
	Policy       backoff.Policy
	MaxAttempts  int
	Logger       *zap.Logger
}

// NewClient returns a client with defaults applied.
func NewClient(coinGeckoURL, fearGreedURL string) *Client {
	gecko := strings.TrimSpace(coinGeckoURL)
	if gecko == "" {
		gecko = DefaultCoinGeckoURL
	}
	fng := strings.TrimSpace(fearGreedURL)
	if fng == "" {
		fng = DefaultFearGreedURL
	}
	return &Client{
		CoinGeckoURL: strings.TrimRight(gecko, "/"),
		FearGreedURL: strings.TrimRight(fng, "/"),
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
		Logger:       zap.NewNop(),
	}
}

// SimplePrice is the per-currency slice of CoinGecko's simple/price
// response for bitcoin.
type SimplePrice struct {
	Price         float64
	MarketCap     float64
	Volume24h     float64
	Change24h     float64
	LastUpdatedAt int64
}

// ChartPoint is one [timestamp, value] pair from a market chart series.
type ChartPoint struct {
	Timestamp int64
	Value     float64
}

// MarketChart holds the aligned price/market-cap/volume series.
type MarketChart struct {
	Prices     []ChartPoint
	MarketCaps []ChartPoint
	Volumes    []ChartPoint
}

// CoinData is the subset of CoinGecko's coins/bitcoin response the
// gateway reshapes for callers.
type CoinData struct {
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
	LastUpdated   string `json:"last_updated"`
	MarketData    struct {
		CurrentPrice             map[string]float64 `json:"current_price"`
		MarketCap                map[string]float64 `json:"market_cap"`
		TotalVolume              map[string]float64 `json:"total_volume"`
		High24h                  map[string]float64 `json:"high_24h"`
		Low24h                   map[string]float64 `json:"low_24h"`
		PriceChange24h           float64            `json:"price_change_24h"`
		PriceChangePercentage24h float64            `json:"price_change_percentage_24h"`
		PriceChangePercentage7d  float64            `json:"price_change_percentage_7d"`
		PriceChangePercentage30d float64            `json:"price_change_percentage_30d"`
		PriceChangePercentage1y  float64            `json:"price_change_percentage_1y"`
		CirculatingSupply        float64            `json:"circulating_supply"`
		TotalSupply              float64            `json:"total_supply"`
		MaxSupply                float64            `json:"max_supply"`
		ATH                      map[string]float64 `json:"ath"`
		ATHDate                  map[string]string  `json:"ath_date"`
		ATHChangePercentage      map[string]float64 `json:"ath_change_percentage"`
		ATL                      map[string]float64 `json:"atl"`
		ATLDate                  map[string]string  `json:"atl_date"`
		ATLChangePercentage      map[string]float64 `json:"atl_change_percentage"`
	} `json:"market_data"`
}

// FearGreedEntry is one reading of the Fear & Greed index.
type FearGreedEntry struct {
	Value               string `json:"value"`
	ValueClassification string `json:"value_classification"`
	Timestamp           string `json:"timestamp"`
	TimeUntilUpdate     string `json:"time_until_update,omitempty"`
}

// FearGreed is the alternative.me response.
type FearGreed struct {
	Data     []FearGreedEntry `json:"data"`
	Metadata map[string]any   `json:"metadata"`
}

// Price fetches the current bitcoin price in the given currency.
func (c *Client) Price(ctx context.Context, currency string) (*SimplePrice, error) {
	query := url.Values{
		"ids":                     {"bitcoin"},
		"vs_currencies":           {currency},
		"include_market_cap":      {"true"},
		"include_24hr_vol":        {"true"},
		"include_24hr_change":     {"true"},
		"include_last_updated_at": {"true"},
	}

	var payload map[string]map[string]float64
	if err := c.get(ctx, c.CoinGeckoURL+"/simple/price?"+query.Encode(), &payload); err != nil {
		return nil, err
	}

	data, ok := payload["bitcoin"]
	if !ok {
		return nil, rpcerr.NewNetworkError("coingecko response missing bitcoin entry")
	}

	return &SimplePrice{
		Price:         data[currency],
		MarketCap:     data[currency+"_market_cap"],
		Volume24h:     data[currency+"_24h_vol"],
		Change24h:     data[currency+"_24h_change"],
		LastUpdatedAt: int64(data["last_updated_at"]),
	}, nil
}

// Chart fetches the historical price series for the given period.
func (c *Client) Chart(ctx context.Context, days int, currency string) (*MarketChart, error) {
	interval := "hourly"
	if days > 30 {
		interval = "daily"
	}
	query := url.Values{
		"vs_currency": {currency},
		"days":        {strconv.Itoa(days)},
		"interval":    {interval},
	}

	var payload struct {
		Prices       [][2]float64 `json:"prices"`
		MarketCaps   [][2]float64 `json:"market_caps"`
		TotalVolumes [][2]float64 `json:"total_volumes"`
	}
	if err := c.get(ctx, c.CoinGeckoURL+"/coins/bitcoin/market_chart?"+query.Encode(), &payload); err != nil {
		return nil, err
	}

	return &MarketChart{
		Prices:     toPoints(payload.Prices),
		MarketCaps: toPoints(payload.MarketCaps),
		Volumes:    toPoints(payload.TotalVolumes),
	}, nil
}

// Coin fetches full market statistics for bitcoin.
func (c *Client) Coin(ctx context.Context) (*CoinData, error) {
	query := url.Values{
		"localization":   {"false"},
		"tickers":        {"false"},
		"market_data":    {"true"},
		"community_data": {"false"},
		"developer_data": {"false"},
		"sparkline":      {"false"},
	}

	var data CoinData
	if err := c.get(ctx, c.CoinGeckoURL+"/coins/bitcoin?"+query.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// FearGreedIndex fetches up to limit readings, newest first.
func (c *Client) FearGreedIndex(ctx context.Context, limit int) (*FearGreed, error) {
	if limit <= 0 {
		limit = 30
	}

	var data FearGreed
	if err := c.get(ctx, c.FearGreedURL+"/?limit="+strconv.Itoa(limit), &data); err != nil {
		return nil, err
	}
	if len(data.Data) == 0 {
		return nil, rpcerr.NewNetworkError("fear & greed response contained no data")
	}
	return &data, nil
}

func toPoints(raw [][2]float64) []ChartPoint {
	points := make([]ChartPoint, 0, len(raw))
	for _, pair := range raw {
		points = append(points, ChartPoint{Timestamp: int64(pair[0]), Value: pair[1]})
	}
	return points
}

// get performs a GET with retries on transient failures, decoding the
// body into out.
func (c *Client) get(ctx context.Context, reqURL string, out any) error {
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

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return rpcerr.Wrap(rpcerr.KindNetwork, ctx.Err(),
					fmt.Sprintf("market request abandoned: %v", ctx.Err()))
			case <-time.After(c.Policy.Delay(attempt - 1)):
			}
		}

		retryable, err := c.attempt(ctx, client, reqURL, out)
		if err == nil {
			metrics.ObserveUpstream("market", "ok")
			return nil
		}
		if !retryable {
			metrics.ObserveUpstream("market", "error")
			return err
		}
		metrics.ObserveUpstream("market", "retry")
		logger.Debug("market api attempt failed",
			zap.String("url", reqURL),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		lastErr = err
	}

	return rpcerr.Wrap(rpcerr.KindNetwork, lastErr,
		fmt.Sprintf("market api unavailable after %d attempts: %v", maxAttempts, lastErr))
}

func (c *Client) attempt(ctx context.Context, client *http.Client, reqURL string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return false, rpcerr.Wrap(rpcerr.KindNetwork, err, "build market request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return true, rpcerr.Wrap(rpcerr.KindNetwork, err, fmt.Sprintf("market api unreachable: %v", err))
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, rpcerr.Wrap(rpcerr.KindNetwork, err, "read market response")
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return true, rpcerr.NewNetworkError(fmt.Sprintf("market api returned HTTP %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		return false, rpcerr.NewNetworkError(
			fmt.Sprintf("market api rejected request: HTTP %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, rpcerr.Wrap(rpcerr.KindNetwork, err, "decode market response")
	}
	return false, nil
}
