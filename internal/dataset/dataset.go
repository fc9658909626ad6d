package dataset

import (
	"context"

	"macrofeed/internal/fetch"
)

// Dataset keys. Each key names one logical quantity tracked by the cache.
const (
	KeyMarket      = "market"
	KeyEconomic    = "economic"
	KeyRates       = "rates"
	KeyCommodities = "commodities"
	KeyRisk        = "risk"
	KeyNews        = "news"
	KeyPerformance = "performance"
)

// Fetcher is the interface every dataset builder implements. Fetch
// assembles a fresh value for the dataset from its configured adapters
// and returns the full attempt trail alongside it, so the refresh loop
// can surface per-adapter failures even when the dataset as a whole
// succeeded.
//
// The returned value must be treated as immutable by the caller; the
// snapshot cache hands it to concurrent readers as-is.
type Fetcher interface {
	// Key returns the dataset key this fetcher populates.
	Key() string

	// Fetch builds the dataset value. A non-nil error means nothing usable
	// was fetched and the cache must keep its previous value.
	Fetch(ctx context.Context) (any, []fetch.Attempt, error)
}
