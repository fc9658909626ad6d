// Package synthetic provides placeholder adapters for quantities with no
// wired real feed yet: the geopolitical-risk and sentiment gauges and the
// news headlines. The values are generated, which keeps the datasets and
// their rendering paths exercised until real providers replace them.
package synthetic

import (
	"context"
	"math/rand/v2"
	"time"

	"macrofeed/internal/dataset"
	"macrofeed/internal/source"
)

// gaugeBaselines lists the gauges this provider serves and the level each
// one drifts around on a 0-100 scale.
var gaugeBaselines = map[string]float64{
	dataset.GaugeGPR:       50,
	dataset.GaugeSentiment: 50,
}

// Gauges is a source.Adapter serving generated risk gauges.
type Gauges struct{}

// NewGauges creates the synthetic gauge provider.
func NewGauges() *Gauges {
	return &Gauges{}
}

// Name identifies this provider in attempt records.
func (g *Gauges) Name() string {
	return "synthetic"
}

// GetQuote returns a reading drawn around the gauge's baseline.
func (g *Gauges) GetQuote(_ context.Context, symbol string) (source.Quote, error) {
	baseline, ok := gaugeBaselines[symbol]
	if !ok {
		return source.Quote{}, source.NewNotFound(symbol)
	}

	value := clamp(baseline+rand.NormFloat64()*10, 0, 100)
	prev := clamp(baseline+rand.NormFloat64()*10, 0, 100)
	return source.Quote{
		Symbol:    symbol,
		Price:     value,
		PrevClose: prev,
		AsOf:      time.Now(),
	}, nil
}

// GetSeries returns a daily random walk around the gauge's baseline.
func (g *Gauges) GetSeries(_ context.Context, symbol string, lookback time.Duration) ([]source.Point, error) {
	baseline, ok := gaugeBaselines[symbol]
	if !ok {
		return nil, source.NewNotFound(symbol)
	}

	days := int(lookback.Hours() / 24)
	if days < 2 {
		days = 2
	}

	now := time.Now()
	points := make([]source.Point, 0, days)
	value := baseline
	for i := days - 1; i >= 0; i-- {
		value = clamp(value+rand.NormFloat64()*5, 0, 100)
		points = append(points, source.Point{
			Time:  now.AddDate(0, 0, -i),
			Value: value,
		})
	}
	return points, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// News is a dataset.NewsProvider serving canned headlines.
type News struct{}

// NewNews creates the synthetic news provider.
func NewNews() *News {
	return &News{}
}

// Name identifies this provider in attempt records.
func (n *News) Name() string {
	return "synthetic"
}

// LatestHeadlines returns a fixed set of headlines stamped relative to
// the current time.
func (n *News) LatestHeadlines(_ context.Context) ([]dataset.Headline, error) {
	now := time.Now()
	return []dataset.Headline{
		{
			Headline:    "Fed Holds Rates Steady, Signals Potential Cuts Later This Year",
			Source:      "Financial Times",
			PublishedAt: now.Add(-15 * time.Minute),
			Impact:      "High",
			Sentiment:   -0.7,
		},
		{
			Headline:    "Inflation Shows Signs of Cooling in Latest Economic Report",
			Source:      "Wall Street Journal",
			PublishedAt: now.Add(-45 * time.Minute),
			Impact:      "Medium",
			Sentiment:   0.5,
		},
	}, nil
}
