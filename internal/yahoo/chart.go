// Package yahoo implements the market-quote and series provider over the
// Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"resty.dev/v3"

	"macrofeed/internal/ratelimit"
	"macrofeed/internal/source"
)

// chartResult is one symbol's payload inside the chart response.
type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
		RegularMarketTime  int64   `json:"regularMarketTime"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// chartResponse represents the Yahoo chart API response envelope.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Client is a source.Adapter over the Yahoo Finance chart API.
type Client struct {
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// New creates a Yahoo chart client against the given base URL.
func New(baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "macrofeed/1.0").
		SetTimeout(15 * time.Second)

	return &Client{
		client:  client,
		limiter: ratelimit.GetLimiter(),
	}
}

// Name identifies this provider in attempt records.
func (c *Client) Name() string {
	return "yahoo"
}

// GetQuote retrieves the latest price and prior close for a symbol from a
// two-day daily chart.
func (c *Client) GetQuote(ctx context.Context, symbol string) (source.Quote, error) {
	result, err := c.chart(ctx, symbol, "2d", "1d")
	if err != nil {
		return source.Quote{}, err
	}

	if result.Meta.RegularMarketPrice == 0 {
		return source.Quote{}, source.NewEmpty(symbol)
	}
	return source.Quote{
		Symbol:    symbol,
		Price:     result.Meta.RegularMarketPrice,
		PrevClose: result.Meta.ChartPreviousClose,
		AsOf:      time.Unix(result.Meta.RegularMarketTime, 0),
	}, nil
}

// GetSeries retrieves daily closes covering the lookback window, oldest
// first. Null closes (holidays, halted sessions) are skipped.
func (c *Client) GetSeries(ctx context.Context, symbol string, lookback time.Duration) ([]source.Point, error) {
	result, err := c.chart(ctx, symbol, rangeFor(lookback), "1d")
	if err != nil {
		return nil, err
	}

	if len(result.Indicators.Quote) == 0 {
		return nil, source.NewEmpty(symbol)
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]source.Point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, source.Point{
			Time:  time.Unix(ts, 0),
			Value: *closes[i],
		})
	}
	if len(points) == 0 {
		return nil, source.NewEmpty(symbol)
	}
	return points, nil
}

// chart issues one chart API call and unwraps the response envelope.
func (c *Client) chart(ctx context.Context, symbol, chartRange, interval string) (*chartResult, error) {
	if err := c.limiter.Wait(ctx, ratelimit.APIYahoo); err != nil {
		return nil, source.NewUnavailable(err)
	}

	var out chartResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"range":    chartRange,
			"interval": interval,
		}).
		SetResult(&out).
		Get("/v8/finance/chart/" + url.PathEscape(symbol))

	if err != nil {
		return nil, source.NewUnavailable(fmt.Errorf("yahoo chart request for %s: %w", symbol, err))
	}
	if !resp.IsSuccess() {
		return nil, source.ClassifyStatus(resp.StatusCode(), symbol)
	}
	if out.Chart.Error != nil {
		if out.Chart.Error.Code == "Not Found" {
			return nil, source.NewNotFound(symbol)
		}
		return nil, source.NewUnavailable(fmt.Errorf("yahoo chart error for %s: %s", symbol, out.Chart.Error.Description))
	}
	if len(out.Chart.Result) == 0 {
		return nil, source.NewEmpty(symbol)
	}
	return &out.Chart.Result[0], nil
}

// rangeFor maps a lookback window onto the closest chart API range that
// covers it.
func rangeFor(lookback time.Duration) string {
	days := int(lookback.Hours() / 24)
	switch {
	case days <= 5:
		return "5d"
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	default:
		return "5y"
	}
}
