package tools

import (
	"context"
	"strconv"
	"strings"

	"github.com/btclens/btclens/internal/jsonrpc"
	"github.com/btclens/btclens/internal/marketapi"
	"github.com/btclens/btclens/internal/rpcerr"
)

const (
	// defaultHistoryDays is the price history window when the caller
	// does not ask for one.
	defaultHistoryDays = 7

	// maxHistoryDays bounds get_price_history.
	maxHistoryDays = 365

	// maxFearGreedLimit bounds get_fear_greed_index history depth.
	maxFearGreedLimit = 100
)

// MarketTools answers market data queries.
type MarketTools struct {
	api MarketAPI
}

func NewMarketTools(api MarketAPI) *MarketTools {
	return &MarketTools{api: api}
}

// currency extracts the vs-currency param, defaulting to usd.
func currency(p jsonrpc.Params) (string, error) {
	cur, err := p.StringOr("currency", "usd")
	if err != nil {
		return "", err
	}
	return strings.ToLower(cur), nil
}

func (t *MarketTools) GetCurrentPrice(ctx context.Context, p jsonrpc.Params) (any, error) {
	cur, err := currency(p)
	if err != nil {
		return nil, err
	}
	price, err := t.api.Price(ctx, cur)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"currency":        cur,
		"price":           price.Price,
		"market_cap":      price.MarketCap,
		"volume_24h":      price.Volume24h,
		"change_24h_pct":  price.Change24h,
		"last_updated_at": price.LastUpdatedAt,
	}, nil
}

func (t *MarketTools) GetPriceHistory(ctx context.Context, p jsonrpc.Params) (any, error) {
	daysArg, err := p.IntOr("days", defaultHistoryDays)
	if err != nil {
		return nil, err
	}
	if daysArg < 1 || daysArg > maxHistoryDays {
		return nil, rpcerr.NewValidationError("days must be between 1 and 365").WithField("days")
	}
	days := int(daysArg)
	cur, err := currency(p)
	if err != nil {
		return nil, err
	}

	chart, err := t.api.Chart(ctx, days, cur)
	if err != nil {
		return nil, err
	}

	points := make([]map[string]any, 0, len(chart.Prices))
	for _, pt := range chart.Prices {
		points = append(points, map[string]any{
			"timestamp": pt.Timestamp,
			"price":     pt.Value,
		})
	}

	result := map[string]any{
		"currency": cur,
		"days":     days,
		"points":   points,
	}
	if summary := seriesSummary(chart.Prices); summary != nil {
		result["summary"] = summary
	}
	return result, nil
}

// seriesSummary condenses a price series into start/end/min/max and the
// percentage change over the window.
func seriesSummary(points []marketapi.ChartPoint) map[string]any {
	if len(points) == 0 {
		return nil
	}

	start := points[0].Value
	end := points[len(points)-1].Value
	minPrice, maxPrice := start, start
	for _, pt := range points[1:] {
		if pt.Value < minPrice {
			minPrice = pt.Value
		}
		if pt.Value > maxPrice {
			maxPrice = pt.Value
		}
	}

	summary := map[string]any{
		"start_price": start,
		"end_price":   end,
		"min_price":   minPrice,
		"max_price":   maxPrice,
	}
	if start != 0 {
		summary["change_pct"] = (end - start) / start * 100
	}
	return summary
}

func (t *MarketTools) GetMarketStats(ctx context.Context, p jsonrpc.Params) (any, error) {
	cur, err := currency(p)
	if err != nil {
		return nil, err
	}
	coin, err := t.api.Coin(ctx)
	if err != nil {
		return nil, err
	}

	md := coin.MarketData
	return map[string]any{
		"name":            coin.Name,
		"symbol":          coin.Symbol,
		"market_cap_rank": coin.MarketCapRank,
		"currency":        cur,
		"price":           md.CurrentPrice[cur],
		"market_cap":      md.MarketCap[cur],
		"volume_24h":      md.TotalVolume[cur],
		"high_24h":        md.High24h[cur],
		"low_24h":         md.Low24h[cur],
		"change_pct": map[string]any{
			"24h": md.PriceChangePercentage24h,
			"7d":  md.PriceChangePercentage7d,
			"30d": md.PriceChangePercentage30d,
			"1y":  md.PriceChangePercentage1y,
		},
		"supply": map[string]any{
			"circulating": md.CirculatingSupply,
			"total":       md.TotalSupply,
			"max":         md.MaxSupply,
		},
		"all_time_high": map[string]any{
			"price":      md.ATH[cur],
			"date":       md.ATHDate[cur],
			"change_pct": md.ATHChangePercentage[cur],
		},
		"all_time_low": map[string]any{
			"price":      md.ATL[cur],
			"date":       md.ATLDate[cur],
			"change_pct": md.ATLChangePercentage[cur],
		},
		"last_updated": coin.LastUpdated,
	}, nil
}

func (t *MarketTools) GetFearGreedIndex(ctx context.Context, p jsonrpc.Params) (any, error) {
	limit, err := p.IntOr("limit", 1)
	if err != nil {
		return nil, err
	}
	if limit < 1 || limit > maxFearGreedLimit {
		return nil, rpcerr.NewValidationError("limit must be between 1 and 100").WithField("limit")
	}

	fng, err := t.api.FearGreedIndex(ctx, int(limit))
	if err != nil {
		return nil, err
	}

	latest := fng.Data[0]
	value, _ := strconv.Atoi(latest.Value)
	result := map[string]any{
		"value":          value,
		"classification": latest.ValueClassification,
		"timestamp":      latest.Timestamp,
	}

	if len(fng.Data) > 1 {
		history := make([]map[string]any, 0, len(fng.Data)-1)
		for _, entry := range fng.Data[1:] {
			v, _ := strconv.Atoi(entry.Value)
			history = append(history, map[string]any{
				"value":          v,
				"classification": entry.ValueClassification,
				"timestamp":      entry.Timestamp,
			})
		}
		result["history"] = history
	}

	return result, nil
}
