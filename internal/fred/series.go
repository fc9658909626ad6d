// Package fred implements the macro-series provider over the FRED
// observations API.
package fred

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"

	"macrofeed/internal/ratelimit"
	"macrofeed/internal/source"
)

// observationsResponse represents the FRED observations API response.
type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// errorResponse represents a FRED API error body.
type errorResponse struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// Client is a source.Adapter over the FRED API.
type Client struct {
	apiKey  string
	client  *resty.Client
	limiter *ratelimit.Limiter
}

// New creates a FRED client with the given API key and base URL.
func New(apiKey, baseURL string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(15 * time.Second)

	return &Client{
		apiKey:  apiKey,
		client:  client,
		limiter: ratelimit.GetLimiter(),
	}
}

// Name identifies this provider in attempt records.
func (c *Client) Name() string {
	return "fred"
}

// GetQuote derives a quote from the series' two most recent observations.
// FRED has no quote endpoint, but policy rates and macro levels read
// naturally as latest value plus prior reading.
func (c *Client) GetQuote(ctx context.Context, seriesID string) (source.Quote, error) {
	points, err := c.GetSeries(ctx, seriesID, 365*24*time.Hour)
	if err != nil {
		return source.Quote{}, err
	}

	last := points[len(points)-1]
	prev := last.Value
	if len(points) > 1 {
		prev = points[len(points)-2].Value
	}
	return source.Quote{
		Symbol:    seriesID,
		Price:     last.Value,
		PrevClose: prev,
		AsOf:      last.Time,
	}, nil
}

// GetSeries retrieves observations covering the lookback window, oldest
// first. Missing observations (reported as ".") are skipped.
func (c *Client) GetSeries(ctx context.Context, seriesID string, lookback time.Duration) ([]source.Point, error) {
	if err := c.limiter.Wait(ctx, ratelimit.APIFRED); err != nil {
		return nil, source.NewUnavailable(err)
	}

	start := time.Now().Add(-lookback)

	var out observationsResponse
	var apiErr errorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"series_id":         seriesID,
			"api_key":           c.apiKey,
			"file_type":         "json",
			"observation_start": start.Format("2006-01-02"),
			"sort_order":        "asc",
		}).
		SetResult(&out).
		SetError(&apiErr).
		Get("/series/observations")

	if err != nil {
		return nil, source.NewUnavailable(fmt.Errorf("fred observations request for %s: %w", seriesID, err))
	}
	if !resp.IsSuccess() {
		// FRED reports an unknown series as a 400 with an explanatory
		// message rather than a 404.
		if strings.Contains(apiErr.ErrorMessage, "does not exist") {
			return nil, source.NewNotFound(seriesID)
		}
		return nil, source.ClassifyStatus(resp.StatusCode(), seriesID)
	}

	points := make([]source.Point, 0, len(out.Observations))
	for _, obs := range out.Observations {
		if obs.Value == "." {
			continue
		}
		value, err := strconv.ParseFloat(obs.Value, 64)
		if err != nil {
			continue
		}
		date, err := time.Parse("2006-01-02", obs.Date)
		if err != nil {
			continue
		}
		points = append(points, source.Point{Time: date, Value: value})
	}
	if len(points) == 0 {
		return nil, source.NewEmpty(seriesID)
	}
	return points, nil
}
