package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"macrofeed/internal/dataset"
	"macrofeed/internal/fetch"
	"macrofeed/internal/source"
)

// MockAdapter is a mock implementation of the source.Adapter interface
// for testing.
type MockAdapter struct {
	NameValue     string
	GetQuoteFunc  func(ctx context.Context, symbol string) (source.Quote, error)
	GetSeriesFunc func(ctx context.Context, seriesID string, lookback time.Duration) ([]source.Point, error)

	// Calls counts every GetQuote and GetSeries invocation.
	Calls atomic.Int64
}

// Name implements the Adapter interface.
func (m *MockAdapter) Name() string {
	if m.NameValue != "" {
		return m.NameValue
	}
	return "mock"
}

// GetQuote implements the Adapter interface.
func (m *MockAdapter) GetQuote(ctx context.Context, symbol string) (source.Quote, error) {
	m.Calls.Add(1)
	if m.GetQuoteFunc != nil {
		return m.GetQuoteFunc(ctx, symbol)
	}
	return source.Quote{Symbol: symbol}, nil
}

// GetSeries implements the Adapter interface.
func (m *MockAdapter) GetSeries(ctx context.Context, seriesID string, lookback time.Duration) ([]source.Point, error) {
	m.Calls.Add(1)
	if m.GetSeriesFunc != nil {
		return m.GetSeriesFunc(ctx, seriesID, lookback)
	}
	return nil, nil
}

// NewQuoteAdapter creates a mock adapter that always returns the given
// quote values for any symbol.
func NewQuoteAdapter(name string, price, prevClose float64) *MockAdapter {
	return &MockAdapter{
		NameValue: name,
		GetQuoteFunc: func(_ context.Context, symbol string) (source.Quote, error) {
			return source.Quote{
				Symbol:    symbol,
				Price:     price,
				PrevClose: prevClose,
				AsOf:      time.Now(),
			}, nil
		},
	}
}

// NewFailingAdapter creates a mock adapter whose calls always fail with
// the given error.
func NewFailingAdapter(name string, err error) *MockAdapter {
	return &MockAdapter{
		NameValue: name,
		GetQuoteFunc: func(_ context.Context, _ string) (source.Quote, error) {
			return source.Quote{}, err
		},
		GetSeriesFunc: func(_ context.Context, _ string, _ time.Duration) ([]source.Point, error) {
			return nil, err
		},
	}
}

// MockDatasetFetcher is a mock implementation of the dataset.Fetcher
// interface for testing the refresh loop.
type MockDatasetFetcher struct {
	KeyValue  string
	FetchFunc func(ctx context.Context) (any, []fetch.Attempt, error)
}

// Key implements the Fetcher interface.
func (m *MockDatasetFetcher) Key() string {
	if m.KeyValue != "" {
		return m.KeyValue
	}
	return "mock"
}

// Fetch implements the Fetcher interface.
func (m *MockDatasetFetcher) Fetch(ctx context.Context) (any, []fetch.Attempt, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx)
	}
	return nil, nil, nil
}

// NewMockDatasetFetcher creates a mock dataset fetcher with predefined
// values.
func NewMockDatasetFetcher(key string, value any, err error) dataset.Fetcher {
	return &MockDatasetFetcher{
		KeyValue: key,
		FetchFunc: func(_ context.Context) (any, []fetch.Attempt, error) {
			return value, nil, err
		},
	}
}

// DailySeries builds a daily series of the given values ending today.
func DailySeries(values ...float64) []source.Point {
	now := time.Now()
	points := make([]source.Point, len(values))
	for i, v := range values {
		points[i] = source.Point{
			Time:  now.AddDate(0, 0, i-len(values)+1),
			Value: v,
		}
	}
	return points
}
