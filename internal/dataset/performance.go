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

// DefaultPerformanceIndices returns the comparison set for the
// performance dataset.
func DefaultPerformanceIndices() []IndexSpec {
	return []IndexSpec{
		{Name: "S&P 500", Symbol: "^GSPC"},
		{Name: "NASDAQ", Symbol: "^IXIC"},
		{Name: "Russell 2000", Symbol: "^RUT"},
		{Name: "DAX", Symbol: "^GDAXI"},
	}
}

// PerformanceFetcher builds the "performance" dataset: total and
// annualized return, annualized volatility, and the correlation matrix of
// daily returns over a fixed window, for a small comparison set of
// indices.
type PerformanceFetcher struct {
	indices  []IndexSpec
	window   time.Duration
	policy   fetch.Policy
	adapters []source.Adapter
	logger   *slog.Logger
}

// NewPerformanceFetcher creates a performance dataset builder.
func NewPerformanceFetcher(indices []IndexSpec, window time.Duration, policy fetch.Policy, adapters []source.Adapter, logger *slog.Logger) *PerformanceFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &PerformanceFetcher{
		indices:  indices,
		window:   window,
		policy:   policy,
		adapters: adapters,
		logger:   logger,
	}
}

// Key returns the dataset key.
func (f *PerformanceFetcher) Key() string {
	return KeyPerformance
}

// Fetch pulls a close series per index and derives the metrics table.
// Correlations are computed on dates where both series have a return, so
// indices with different trading calendars still compare cleanly.
func (f *PerformanceFetcher) Fetch(ctx context.Context) (any, []fetch.Attempt, error) {
	var attempts []fetch.Attempt
	series := make(map[string][]source.Point)
	var fetched []IndexSpec

	for _, spec := range f.indices {
		target := KeyPerformance + "/" + spec.Symbol
		points, tried, err := fetch.Do(ctx, target, f.policy, fetch.ForSeries(spec.Symbol, f.window, f.adapters...)...)
		attempts = append(attempts, tried...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempts, ctx.Err()
			}
			f.logger.Warn("performance series failed", "index", spec.Name, "symbol", spec.Symbol, "err", err)
			continue
		}
		if len(points) < 2 {
			f.logger.Warn("performance series too short", "index", spec.Name, "points", len(points))
			continue
		}
		series[spec.Name] = points
		fetched = append(fetched, spec)
	}

	if len(fetched) == 0 {
		return nil, attempts, fmt.Errorf("performance: no index series fetched")
	}

	table := PerformanceTable{
		Rows:        make([]PerformanceRow, 0, len(fetched)),
		Correlation: make(map[string]map[string]float64, len(fetched)),
		Window:      f.window,
		AsOf:        time.Now(),
	}
	for _, spec := range fetched {
		points := series[spec.Name]
		table.Rows = append(table.Rows, PerformanceRow{
			Name:                spec.Name,
			Symbol:              spec.Symbol,
			TotalReturnPct:      stats.TotalReturnPct(points),
			AnnualizedReturnPct: stats.AnnualizedReturnPct(points),
			AnnualizedVolPct:    stats.AnnualizedVolatilityPct(stats.DailyReturns(points)),
		})
	}

	for _, a := range fetched {
		row := make(map[string]float64, len(fetched))
		for _, b := range fetched {
			if a.Name == b.Name {
				row[b.Name] = 1
				continue
			}
			ra, rb := alignedReturns(series[a.Name], series[b.Name])
			row[b.Name] = stats.Correlation(ra, rb)
		}
		table.Correlation[a.Name] = row
	}

	return table, attempts, nil
}

// alignedReturns computes daily returns for both series restricted to the
// calendar days they share.
func alignedReturns(a, b []source.Point) ([]float64, []float64) {
	byDay := func(points []source.Point) map[string]float64 {
		m := make(map[string]float64, len(points))
		for _, p := range points {
			m[p.Time.Format("2006-01-02")] = p.Value
		}
		return m
	}
	mb := byDay(b)

	var alignedA, alignedB []source.Point
	for _, p := range a {
		day := p.Time.Format("2006-01-02")
		if v, ok := mb[day]; ok {
			alignedA = append(alignedA, p)
			alignedB = append(alignedB, source.Point{Time: p.Time, Value: v})
		}
	}
	return stats.DailyReturns(alignedA), stats.DailyReturns(alignedB)
}
