package dataset

import (
	"time"

	"macrofeed/internal/source"
)

// IndexQuote is one market index row in the "market" dataset.
type IndexQuote struct {
	Name      string
	Symbol    string
	Price     float64
	Change    float64
	ChangePct float64
	PrevClose float64
	AsOf      time.Time
}

// Indicator is one entry in the "economic" dataset. Latest holds the
// transformed reading (a level or a year-over-year percent change,
// depending on the spec's transform).
type Indicator struct {
	Name     string
	SeriesID string
	Latest   float64
	Unit     string
	History  []source.Point
	AsOf     time.Time
}

// PolicyRate is one central bank entry in the "rates" dataset.
type PolicyRate struct {
	Bank     string
	SeriesID string
	Rate     float64
	Change   float64
	History  []source.Point
	AsOf     time.Time
}

// CommodityQuote is one row in the "commodities" dataset.
type CommodityQuote struct {
	Name      string
	Symbol    string
	Unit      string
	Price     float64
	ChangePct float64
	AsOf      time.Time
}

// RiskGauge is one entry in the "risk" dataset.
type RiskGauge struct {
	Name    string
	Value   float64
	Level   string
	History []source.Point
	AsOf    time.Time
}

// Headline is one entry in the "news" dataset.
type Headline struct {
	Headline    string
	Source      string
	PublishedAt time.Time
	Impact      string
	Sentiment   float64
}

// PerformanceRow holds derived return metrics for one index over the
// performance window.
type PerformanceRow struct {
	Name                string
	Symbol              string
	TotalReturnPct      float64
	AnnualizedReturnPct float64
	AnnualizedVolPct    float64
}

// PerformanceTable is the value of the "performance" dataset: per-index
// return metrics plus the pairwise correlation of daily returns.
type PerformanceTable struct {
	Rows        []PerformanceRow
	Correlation map[string]map[string]float64
	Window      time.Duration
	AsOf        time.Time
}
