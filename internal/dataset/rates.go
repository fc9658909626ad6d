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

// RateSpec names one central bank and the series id of its policy rate.
type RateSpec struct {
	Bank     string
	SeriesID string
}

// DefaultRates returns the central bank board.
func DefaultRates() []RateSpec {
	return []RateSpec{
		{Bank: "Federal Reserve", SeriesID: "FEDFUNDS"},
		{Bank: "ECB", SeriesID: "ECBESTRVOLWGTTRMDMNRT"},
		{Bank: "BOE", SeriesID: "IUDSOIA"},
		{Bank: "BOJ", SeriesID: "IRSTCI01JPM156N"},
	}
}

// rateHistoryPoints is how much trailing history each rate keeps.
const rateHistoryPoints = 36

// RatesFetcher builds the "rates" dataset: a mapping from central bank to
// its current policy rate, latest move, and trailing history.
type RatesFetcher struct {
	rates    []RateSpec
	lookback time.Duration
	policy   fetch.Policy
	adapters []source.Adapter
	logger   *slog.Logger
}

// NewRatesFetcher creates a rates dataset builder.
func NewRatesFetcher(rates []RateSpec, lookback time.Duration, policy fetch.Policy, adapters []source.Adapter, logger *slog.Logger) *RatesFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RatesFetcher{
		rates:    rates,
		lookback: lookback,
		policy:   policy,
		adapters: adapters,
		logger:   logger,
	}
}

// Key returns the dataset key.
func (f *RatesFetcher) Key() string {
	return KeyRates
}

// Fetch pulls every configured rate series. The dataset fails only when
// no bank's rate could be fetched.
func (f *RatesFetcher) Fetch(ctx context.Context) (any, []fetch.Attempt, error) {
	var attempts []fetch.Attempt
	results := make(map[string]PolicyRate)

	for _, spec := range f.rates {
		target := KeyRates + "/" + spec.SeriesID
		points, tried, err := fetch.Do(ctx, target, f.policy, fetch.ForSeries(spec.SeriesID, f.lookback, f.adapters...)...)
		attempts = append(attempts, tried...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempts, ctx.Err()
			}
			f.logger.Warn("rate series failed", "bank", spec.Bank, "series", spec.SeriesID, "err", err)
			continue
		}
		if len(points) == 0 {
			f.logger.Warn("rate series empty", "bank", spec.Bank, "series", spec.SeriesID)
			continue
		}

		last := points[len(points)-1]
		change := 0.0
		if len(points) > 1 {
			change = last.Value - points[len(points)-2].Value
		}
		results[spec.Bank] = PolicyRate{
			Bank:     spec.Bank,
			SeriesID: spec.SeriesID,
			Rate:     last.Value,
			Change:   change,
			History:  stats.Tail(points, rateHistoryPoints),
			AsOf:     last.Time,
		}
	}

	if len(results) == 0 {
		return nil, attempts, fmt.Errorf("rates: no policy rates fetched")
	}
	return results, attempts, nil
}
