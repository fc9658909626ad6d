// Package alpaca implements a fallback market-data provider over the
// Alpaca market-data API. It covers the US symbols the primary provider
// serves, translated to tradable ETF proxies where the quantity itself
// (an index level) is not directly quotable.
package alpaca

import (
	"context"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"macrofeed/internal/ratelimit"
	"macrofeed/internal/source"
)

// proxySymbols maps the dashboard's index symbols onto ETFs that track
// them. Symbols without a proxy are simply not served by this provider
// and fall through the retry chain as NotFound.
var proxySymbols = map[string]string{
	"^GSPC": "SPY",
	"^IXIC": "QQQ",
	"^DJI":  "DIA",
	"^RUT":  "IWM",
	"^VIX":  "VIXY",
}

// Client is a source.Adapter over the Alpaca market-data API.
type Client struct {
	client  *marketdata.Client
	limiter *ratelimit.Limiter
}

// New creates an Alpaca market-data client. An empty baseURL uses the
// SDK's production endpoint.
func New(apiKey, apiSecret, baseURL string) *Client {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &Client{
		client:  marketdata.NewClient(opts),
		limiter: ratelimit.GetLimiter(),
	}
}

// Name identifies this provider in attempt records.
func (c *Client) Name() string {
	return "alpaca"
}

// GetQuote derives a quote from the two most recent daily bars of the
// symbol's ETF proxy.
func (c *Client) GetQuote(ctx context.Context, symbol string) (source.Quote, error) {
	bars, err := c.dailyBars(ctx, symbol, 7*24*time.Hour)
	if err != nil {
		return source.Quote{}, err
	}

	last := bars[len(bars)-1]
	prev := last.Close
	if len(bars) > 1 {
		prev = bars[len(bars)-2].Close
	}
	return source.Quote{
		Symbol:    symbol,
		Price:     last.Close,
		PrevClose: prev,
		AsOf:      last.Timestamp,
	}, nil
}

// GetSeries retrieves daily closes for the symbol's ETF proxy covering
// the lookback window, oldest first.
func (c *Client) GetSeries(ctx context.Context, symbol string, lookback time.Duration) ([]source.Point, error) {
	bars, err := c.dailyBars(ctx, symbol, lookback)
	if err != nil {
		return nil, err
	}

	points := make([]source.Point, 0, len(bars))
	for _, bar := range bars {
		points = append(points, source.Point{Time: bar.Timestamp, Value: bar.Close})
	}
	return points, nil
}

// dailyBars fetches daily bars for the proxy of symbol over the window.
func (c *Client) dailyBars(ctx context.Context, symbol string, lookback time.Duration) ([]marketdata.Bar, error) {
	proxy, ok := proxySymbols[symbol]
	if !ok {
		return nil, source.NewNotFound(symbol)
	}

	if err := c.limiter.Wait(ctx, ratelimit.APIAlpaca); err != nil {
		return nil, source.NewUnavailable(err)
	}

	end := time.Now()
	bars, err := c.client.GetBars(proxy, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     end.Add(-lookback),
		End:       end,
		Feed:      "iex",
	})
	if err != nil {
		return nil, source.NewUnavailable(err)
	}
	if len(bars) == 0 {
		return nil, source.NewEmpty(symbol)
	}
	return bars, nil
}
