package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"macrofeed/internal/fetch"
	"macrofeed/internal/source"
)

// IndexSpec names one market index and its provider symbol.
type IndexSpec struct {
	Name   string
	Symbol string
}

// DefaultIndices returns the global index board tracked by the market
// dataset.
func DefaultIndices() []IndexSpec {
	return []IndexSpec{
		{Name: "S&P 500", Symbol: "^GSPC"},
		{Name: "NASDAQ", Symbol: "^IXIC"},
		{Name: "Dow 30", Symbol: "^DJI"},
		{Name: "Russell 2000", Symbol: "^RUT"},
		{Name: "FTSE 100", Symbol: "^FTSE"},
		{Name: "DAX", Symbol: "^GDAXI"},
		{Name: "CAC 40", Symbol: "^FCHI"},
		{Name: "Nikkei 225", Symbol: "^N225"},
		{Name: "Shanghai", Symbol: "^SSEC"},
		{Name: "Hang Seng", Symbol: "^HSI"},
	}
}

// MarketFetcher builds the "market" dataset: one quote row per index.
type MarketFetcher struct {
	indices  []IndexSpec
	policy   fetch.Policy
	adapters []source.Adapter
	logger   *slog.Logger
}

// NewMarketFetcher creates a market dataset builder. Adapters are tried
// in order, primary first.
func NewMarketFetcher(indices []IndexSpec, policy fetch.Policy, adapters []source.Adapter, logger *slog.Logger) *MarketFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketFetcher{
		indices:  indices,
		policy:   policy,
		adapters: adapters,
		logger:   logger,
	}
}

// Key returns the dataset key.
func (f *MarketFetcher) Key() string {
	return KeyMarket
}

// Fetch quotes every configured index. Indices that fail on all adapters
// are dropped from this cycle's value; the dataset only fails outright
// when no index could be quoted.
func (f *MarketFetcher) Fetch(ctx context.Context) (any, []fetch.Attempt, error) {
	var (
		rows     []IndexQuote
		attempts []fetch.Attempt
	)

	for _, spec := range f.indices {
		target := KeyMarket + "/" + spec.Symbol
		quote, tried, err := fetch.Do(ctx, target, f.policy, fetch.ForQuote(spec.Symbol, f.adapters...)...)
		attempts = append(attempts, tried...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempts, ctx.Err()
			}
			f.logger.Warn("index quote failed", "index", spec.Name, "symbol", spec.Symbol, "err", err)
			continue
		}
		rows = append(rows, IndexQuote{
			Name:      spec.Name,
			Symbol:    spec.Symbol,
			Price:     quote.Price,
			Change:    quote.Price - quote.PrevClose,
			ChangePct: quote.ChangePct(),
			PrevClose: quote.PrevClose,
			AsOf:      quote.AsOf,
		})
	}

	if len(rows) == 0 {
		return nil, attempts, fmt.Errorf("market: no index quotes fetched")
	}
	return rows, attempts, nil
}
