package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"macrofeed/internal/fetch"
	"macrofeed/internal/source"
	"macrofeed/internal/stats"
)

// Transform selects how a raw macro series becomes the indicator's
// headline reading.
type Transform string

const (
	// TransformLevel reports the latest observation as-is.
	TransformLevel Transform = "level"
	// TransformYoY reports the year-over-year percent change of the
	// latest observation.
	TransformYoY Transform = "yoy"
)

// IndicatorSpec names one macro indicator, its provider series id, and
// the transform applied to the raw series.
type IndicatorSpec struct {
	Name      string
	SeriesID  string
	Transform Transform
	Unit      string
}

// DefaultIndicators returns the US indicator board.
func DefaultIndicators() []IndicatorSpec {
	return []IndicatorSpec{
		{Name: "GDP", SeriesID: "GDPC1", Transform: TransformLevel, Unit: "$B"},
		{Name: "Inflation", SeriesID: "CPIAUCSL", Transform: TransformYoY, Unit: "%"},
		{Name: "Unemployment", SeriesID: "UNRATE", Transform: TransformLevel, Unit: "%"},
		{Name: "Retail Sales", SeriesID: "RSXFS", Transform: TransformYoY, Unit: "%"},
		{Name: "Industrial Production", SeriesID: "INDPRO", Transform: TransformYoY, Unit: "%"},
	}
}

// historyPoints is how much trailing history each indicator keeps for
// charting.
const historyPoints = 24

// EconomicFetcher builds the "economic" dataset: a mapping from indicator
// name to its latest transformed reading plus trailing history.
type EconomicFetcher struct {
	indicators []IndicatorSpec
	lookback   time.Duration
	policy     fetch.Policy
	adapters   []source.Adapter
	logger     *slog.Logger
}

// NewEconomicFetcher creates an economic dataset builder. The lookback
// must span at least a year so year-over-year transforms have a
// comparison point.
func NewEconomicFetcher(indicators []IndicatorSpec, lookback time.Duration, policy fetch.Policy, adapters []source.Adapter, logger *slog.Logger) *EconomicFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EconomicFetcher{
		indicators: indicators,
		lookback:   lookback,
		policy:     policy,
		adapters:   adapters,
		logger:     logger,
	}
}

// Key returns the dataset key.
func (f *EconomicFetcher) Key() string {
	return KeyEconomic
}

// Fetch pulls every configured series and applies its transform. The
// dataset fails only when no indicator could be built.
func (f *EconomicFetcher) Fetch(ctx context.Context) (any, []fetch.Attempt, error) {
	var attempts []fetch.Attempt
	results := make(map[string]Indicator)

	for _, spec := range f.indicators {
		target := KeyEconomic + "/" + spec.SeriesID
		points, tried, err := fetch.Do(ctx, target, f.policy, fetch.ForSeries(spec.SeriesID, f.lookback, f.adapters...)...)
		attempts = append(attempts, tried...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempts, ctx.Err()
			}
			f.logger.Warn("indicator series failed", "indicator", spec.Name, "series", spec.SeriesID, "err", err)
			continue
		}

		indicator, err := buildIndicator(spec, points)
		if err != nil {
			f.logger.Warn("indicator transform failed", "indicator", spec.Name, "err", err)
			continue
		}
		results[spec.Name] = indicator
	}

	if len(results) == 0 {
		return nil, attempts, fmt.Errorf("economic: no indicators fetched")
	}
	return results, attempts, nil
}

func buildIndicator(spec IndicatorSpec, points []source.Point) (Indicator, error) {
	if len(points) == 0 {
		return Indicator{}, fmt.Errorf("series %s is empty", spec.SeriesID)
	}
	last := points[len(points)-1]

	var latest float64
	switch spec.Transform {
	case TransformYoY:
		yoy, ok := stats.YoYChangePct(points)
		if !ok {
			return Indicator{}, fmt.Errorf("series %s does not span a year", spec.SeriesID)
		}
		latest = yoy
	default:
		latest = last.Value
	}

	return Indicator{
		Name:     spec.Name,
		SeriesID: spec.SeriesID,
		Latest:   latest,
		Unit:     spec.Unit,
		History:  stats.Tail(points, historyPoints),
		AsOf:     last.Time,
	}, nil
}
