package source

import (
	"context"
	"time"
)

// Quote is a point-in-time price for one symbol, normalized across providers.
type Quote struct {
	Symbol    string
	Price     float64
	PrevClose float64
	AsOf      time.Time
}

// ChangePct returns the percent change from the prior close, or 0 if the
// prior close is unknown.
func (q Quote) ChangePct() float64 {
	if q.PrevClose == 0 {
		return 0
	}
	return (q.Price - q.PrevClose) / q.PrevClose * 100
}

// Point is one observation in a time series.
type Point struct {
	Time  time.Time
	Value float64
}

// Adapter is the capability interface over one external data provider.
// Implementations must be safe for concurrent use: the refresh loop may
// issue several fetch attempts against the same adapter at once.
type Adapter interface {
	// Name identifies the provider in attempt records and logs.
	Name() string

	// GetQuote retrieves the latest price and prior close for a symbol.
	GetQuote(ctx context.Context, symbol string) (Quote, error)

	// GetSeries retrieves an ordered (oldest first) series of observations
	// covering at most the given lookback window.
	GetSeries(ctx context.Context, seriesID string, lookback time.Duration) ([]Point, error)
}
