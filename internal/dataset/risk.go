package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"macrofeed/internal/fetch"
	"macrofeed/internal/source"
)

// Risk gauge names within the "risk" dataset value.
const (
	GaugeVIX       = "VIX"
	GaugeGPR       = "GPR"
	GaugeSentiment = "Sentiment"
)

// vixSymbol is the market provider symbol for the CBOE volatility index.
const vixSymbol = "^VIX"

// RiskFetcher builds the "risk" dataset: the VIX from the market
// providers plus geopolitical-risk and sentiment gauges from a gauge
// provider (a synthetic one until a real feed exists).
type RiskFetcher struct {
	policy   fetch.Policy
	market   []source.Adapter
	gauges   []source.Adapter
	lookback time.Duration
	logger   *slog.Logger
}

// NewRiskFetcher creates a risk dataset builder. The lookback bounds the
// VIX history kept for charting.
func NewRiskFetcher(policy fetch.Policy, market, gauges []source.Adapter, lookback time.Duration, logger *slog.Logger) *RiskFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RiskFetcher{
		policy:   policy,
		market:   market,
		gauges:   gauges,
		lookback: lookback,
		logger:   logger,
	}
}

// Key returns the dataset key.
func (f *RiskFetcher) Key() string {
	return KeyRisk
}

// Fetch builds the gauge map. The VIX is required; the synthetic gauges
// are best-effort.
func (f *RiskFetcher) Fetch(ctx context.Context) (any, []fetch.Attempt, error) {
	var attempts []fetch.Attempt
	results := make(map[string]RiskGauge)

	quote, tried, err := fetch.Do(ctx, KeyRisk+"/"+vixSymbol, f.policy, fetch.ForQuote(vixSymbol, f.market...)...)
	attempts = append(attempts, tried...)
	if err != nil {
		return nil, attempts, fmt.Errorf("risk: VIX quote failed: %w", err)
	}

	history, tried, err := fetch.Do(ctx, KeyRisk+"/"+vixSymbol+"/history", f.policy, fetch.ForSeries(vixSymbol, f.lookback, f.market...)...)
	attempts = append(attempts, tried...)
	if err != nil {
		// A missing chart is tolerable; the headline gauge is not.
		f.logger.Warn("VIX history failed", "err", err)
		history = nil
	}

	results[GaugeVIX] = RiskGauge{
		Name:    GaugeVIX,
		Value:   quote.Price,
		Level:   vixLevel(quote.Price),
		History: history,
		AsOf:    quote.AsOf,
	}

	for _, name := range []string{GaugeGPR, GaugeSentiment} {
		gauge, tried, err := fetch.Do(ctx, KeyRisk+"/"+name, f.policy, fetch.ForQuote(name, f.gauges...)...)
		attempts = append(attempts, tried...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempts, ctx.Err()
			}
			f.logger.Warn("risk gauge failed", "gauge", name, "err", err)
			continue
		}
		results[name] = RiskGauge{
			Name:  name,
			Value: gauge.Price,
			Level: gaugeLevel(gauge.Price),
			AsOf:  gauge.AsOf,
		}
	}

	return results, attempts, nil
}

// vixLevel bands a VIX reading the way the dashboard labels it.
func vixLevel(vix float64) string {
	switch {
	case vix > 30:
		return "High"
	case vix > 20:
		return "Elevated"
	default:
		return "Normal"
	}
}

// gaugeLevel bands a 0-100 gauge reading.
func gaugeLevel(value float64) string {
	switch {
	case value >= 70:
		return "High"
	case value >= 40:
		return "Elevated"
	default:
		return "Neutral"
	}
}
