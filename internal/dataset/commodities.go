package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"macrofeed/internal/fetch"
	"macrofeed/internal/source"
)

// CommoditySpec names one commodity future, its provider symbol, and the
// unit its price is quoted in.
type CommoditySpec struct {
	Name   string
	Symbol string
	Unit   string
}

// DefaultCommodities returns the commodities board.
func DefaultCommodities() []CommoditySpec {
	return []CommoditySpec{
		{Name: "Crude Oil (WTI)", Symbol: "CL=F", Unit: "$/bbl"},
		{Name: "Brent Crude", Symbol: "BZ=F", Unit: "$/bbl"},
		{Name: "Gold", Symbol: "GC=F", Unit: "$/oz"},
		{Name: "Silver", Symbol: "SI=F", Unit: "$/oz"},
		{Name: "Copper", Symbol: "HG=F", Unit: "$/lb"},
		{Name: "Natural Gas", Symbol: "NG=F", Unit: "$/mmBtu"},
		{Name: "Wheat", Symbol: "ZW=F", Unit: "$/bushel"},
	}
}

// CommoditiesFetcher builds the "commodities" dataset.
type CommoditiesFetcher struct {
	commodities []CommoditySpec
	policy      fetch.Policy
	adapters    []source.Adapter
	logger      *slog.Logger
}

// NewCommoditiesFetcher creates a commodities dataset builder.
func NewCommoditiesFetcher(commodities []CommoditySpec, policy fetch.Policy, adapters []source.Adapter, logger *slog.Logger) *CommoditiesFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommoditiesFetcher{
		commodities: commodities,
		policy:      policy,
		adapters:    adapters,
		logger:      logger,
	}
}

// Key returns the dataset key.
func (f *CommoditiesFetcher) Key() string {
	return KeyCommodities
}

// Fetch quotes every configured commodity, dropping individual failures
// and failing only when nothing could be quoted.
func (f *CommoditiesFetcher) Fetch(ctx context.Context) (any, []fetch.Attempt, error) {
	var (
		rows     []CommodityQuote
		attempts []fetch.Attempt
	)

	for _, spec := range f.commodities {
		target := KeyCommodities + "/" + spec.Symbol
		quote, tried, err := fetch.Do(ctx, target, f.policy, fetch.ForQuote(spec.Symbol, f.adapters...)...)
		attempts = append(attempts, tried...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, attempts, ctx.Err()
			}
			f.logger.Warn("commodity quote failed", "commodity", spec.Name, "symbol", spec.Symbol, "err", err)
			continue
		}
		rows = append(rows, CommodityQuote{
			Name:      spec.Name,
			Symbol:    spec.Symbol,
			Unit:      spec.Unit,
			Price:     quote.Price,
			ChangePct: quote.ChangePct(),
			AsOf:      quote.AsOf,
		})
	}

	if len(rows) == 0 {
		return nil, attempts, fmt.Errorf("commodities: no quotes fetched")
	}
	return rows, attempts, nil
}
