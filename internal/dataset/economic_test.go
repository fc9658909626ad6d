package dataset_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"macrofeed/internal/source"

	. "macrofeed/internal/dataset"
	"macrofeed/internal/testutil"
)

// monthlySeries builds a monthly series ending this month with the given
// values.
func monthlySeries(values ...float64) []source.Point {
	now := time.Now()
	points := make([]source.Point, len(values))
	for i, v := range values {
		points[i] = source.Point{
			Time:  now.AddDate(0, i-len(values)+1, 0),
			Value: v,
		}
	}
	return points
}

func TestEconomicFetcher_Key(t *testing.T) {
	f := NewEconomicFetcher(nil, 0, fastPolicy(), nil, nil)
	if got := f.Key(); got != KeyEconomic {
		t.Errorf("Key() = %q, want %q", got, KeyEconomic)
	}
}

func TestEconomicFetcher_Fetch_LevelAndYoY(t *testing.T) {
	series := map[string][]source.Point{
		// 13 monthly CPI readings rising 100 -> 106: 6% YoY.
		"CPIAUCSL": monthlySeries(100, 100.5, 101, 101.5, 102, 102.5, 103, 103.5, 104, 104.5, 105, 105.5, 106),
		"UNRATE":   monthlySeries(3.9, 3.8, 3.7),
	}
	adapter := &testutil.MockAdapter{
		NameValue: "macro",
		GetSeriesFunc: func(_ context.Context, seriesID string, _ time.Duration) ([]source.Point, error) {
			if s, ok := series[seriesID]; ok {
				return s, nil
			}
			return nil, source.NewNotFound(seriesID)
		},
	}

	specs := []IndicatorSpec{
		{Name: "Inflation", SeriesID: "CPIAUCSL", Transform: TransformYoY, Unit: "%"},
		{Name: "Unemployment", SeriesID: "UNRATE", Transform: TransformLevel, Unit: "%"},
	}

	f := NewEconomicFetcher(specs, 3*365*24*time.Hour, fastPolicy(), []source.Adapter{adapter}, nil)
	value, _, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	indicators := value.(map[string]Indicator)

	inflation, ok := indicators["Inflation"]
	if !ok {
		t.Fatal("Inflation indicator missing")
	}
	if !almostEqual(inflation.Latest, 6, 1e-9) {
		t.Errorf("Inflation.Latest = %v, want 6", inflation.Latest)
	}

	unemployment, ok := indicators["Unemployment"]
	if !ok {
		t.Fatal("Unemployment indicator missing")
	}
	if !almostEqual(unemployment.Latest, 3.7, 1e-9) {
		t.Errorf("Unemployment.Latest = %v, want 3.7", unemployment.Latest)
	}
}

func TestEconomicFetcher_Fetch_SkipsShortYoYSeries(t *testing.T) {
	adapter := &testutil.MockAdapter{
		NameValue: "macro",
		GetSeriesFunc: func(_ context.Context, _ string, _ time.Duration) ([]source.Point, error) {
			// Only three months: no year-over-year comparison possible.
			return monthlySeries(100, 101, 102), nil
		},
	}
	specs := []IndicatorSpec{
		{Name: "Inflation", SeriesID: "CPIAUCSL", Transform: TransformYoY, Unit: "%"},
	}

	f := NewEconomicFetcher(specs, 24*time.Hour, fastPolicy(), []source.Adapter{adapter}, nil)
	_, _, err := f.Fetch(context.Background())
	if err == nil {
		t.Error("Fetch() expected error when no indicator could be built")
	}
}

func TestEconomicFetcher_Fetch_AllSeriesFail(t *testing.T) {
	adapter := testutil.NewFailingAdapter("down", source.NewUnavailable(errors.New("boom")))
	f := NewEconomicFetcher(DefaultIndicators(), 24*time.Hour, fastPolicy(), []source.Adapter{adapter}, nil)

	_, _, err := f.Fetch(context.Background())
	if err == nil {
		t.Error("Fetch() expected error when every series fails")
	}
}

func TestRatesFetcher_Fetch(t *testing.T) {
	adapter := &testutil.MockAdapter{
		NameValue: "macro",
		GetSeriesFunc: func(_ context.Context, seriesID string, _ time.Duration) ([]source.Point, error) {
			if seriesID == "FEDFUNDS" {
				return monthlySeries(5.00, 5.25, 5.50), nil
			}
			return nil, source.NewNotFound(seriesID)
		},
	}
	specs := []RateSpec{
		{Bank: "Federal Reserve", SeriesID: "FEDFUNDS"},
		{Bank: "ECB", SeriesID: "UNKNOWN"},
	}

	f := NewRatesFetcher(specs, 24*time.Hour, fastPolicy(), []source.Adapter{adapter}, nil)
	value, _, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	rates := value.(map[string]PolicyRate)
	fed, ok := rates["Federal Reserve"]
	if !ok {
		t.Fatal("Federal Reserve rate missing")
	}
	if !almostEqual(fed.Rate, 5.50, 1e-9) {
		t.Errorf("Rate = %v, want 5.50", fed.Rate)
	}
	if !almostEqual(fed.Change, 0.25, 1e-9) {
		t.Errorf("Change = %v, want 0.25", fed.Change)
	}
	if _, ok := rates["ECB"]; ok {
		t.Error("unknown series should not produce a rate entry")
	}
}

func TestRatesFetcher_Key(t *testing.T) {
	f := NewRatesFetcher(nil, 0, fastPolicy(), nil, nil)
	if got := f.Key(); got != KeyRates {
		t.Errorf("Key() = %q, want %q", got, KeyRates)
	}
}
