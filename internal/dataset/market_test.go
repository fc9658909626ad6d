package dataset_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"macrofeed/internal/fetch"
	"macrofeed/internal/source"

	. "macrofeed/internal/dataset"
	"macrofeed/internal/testutil"
)

func fastPolicy() fetch.Policy {
	return fetch.Policy{
		MaxAttempts: 2,
		MinDelay:    time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}
}

func TestMarketFetcher_Key(t *testing.T) {
	f := NewMarketFetcher(nil, fastPolicy(), nil, nil)
	if got := f.Key(); got != KeyMarket {
		t.Errorf("Key() = %q, want %q", got, KeyMarket)
	}
}

func TestMarketFetcher_Fetch_Success(t *testing.T) {
	adapter := testutil.NewQuoteAdapter("mock", 110, 100)
	indices := []IndexSpec{
		{Name: "S&P 500", Symbol: "^GSPC"},
		{Name: "NASDAQ", Symbol: "^IXIC"},
	}

	f := NewMarketFetcher(indices, fastPolicy(), []source.Adapter{adapter}, nil)
	value, attempts, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	rows := value.([]IndexQuote)
	if len(rows) != 2 {
		t.Fatalf("Fetch() returned %d rows, want 2", len(rows))
	}
	if rows[0].Name != "S&P 500" || rows[0].Price != 110 {
		t.Errorf("row[0] = %+v", rows[0])
	}
	if !almostEqual(rows[0].ChangePct, 10, 1e-9) {
		t.Errorf("ChangePct = %v, want 10", rows[0].ChangePct)
	}
	if !almostEqual(rows[0].Change, 10, 1e-9) {
		t.Errorf("Change = %v, want 10", rows[0].Change)
	}
	if len(attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(attempts))
	}
}

func TestMarketFetcher_Fetch_PartialFailure(t *testing.T) {
	// Adapter that only knows the S&P symbol.
	adapter := &testutil.MockAdapter{
		NameValue: "partial",
		GetQuoteFunc: func(_ context.Context, symbol string) (source.Quote, error) {
			if symbol != "^GSPC" {
				return source.Quote{}, source.NewNotFound(symbol)
			}
			return source.Quote{Symbol: symbol, Price: 5000, PrevClose: 4900, AsOf: time.Now()}, nil
		},
	}
	indices := []IndexSpec{
		{Name: "S&P 500", Symbol: "^GSPC"},
		{Name: "NASDAQ", Symbol: "^IXIC"},
	}

	f := NewMarketFetcher(indices, fastPolicy(), []source.Adapter{adapter}, nil)
	value, _, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	rows := value.([]IndexQuote)
	if len(rows) != 1 || rows[0].Symbol != "^GSPC" {
		t.Errorf("rows = %+v, want only ^GSPC", rows)
	}
}

func TestMarketFetcher_Fetch_AllFail(t *testing.T) {
	adapter := testutil.NewFailingAdapter("down", source.NewUnavailable(errors.New("boom")))
	indices := []IndexSpec{{Name: "S&P 500", Symbol: "^GSPC"}}

	f := NewMarketFetcher(indices, fastPolicy(), []source.Adapter{adapter}, nil)
	_, attempts, err := f.Fetch(context.Background())
	if err == nil {
		t.Fatal("Fetch() expected error when every quote fails")
	}
	if len(attempts) != 2 {
		t.Errorf("attempts = %d, want 2 (MaxAttempts)", len(attempts))
	}
}

func TestMarketFetcher_Fetch_FallbackAdapter(t *testing.T) {
	primary := testutil.NewFailingAdapter("primary", source.NewUnavailable(errors.New("down")))
	fallback := testutil.NewQuoteAdapter("fallback", 200, 190)
	indices := []IndexSpec{{Name: "S&P 500", Symbol: "^GSPC"}}

	f := NewMarketFetcher(indices, fastPolicy(), []source.Adapter{primary, fallback}, nil)
	value, _, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() returned unexpected error: %v", err)
	}

	rows := value.([]IndexQuote)
	if rows[0].Price != 200 {
		t.Errorf("Price = %v, want 200 from fallback", rows[0].Price)
	}
}

func TestDefaultIndices(t *testing.T) {
	indices := DefaultIndices()
	if len(indices) != 10 {
		t.Errorf("DefaultIndices() returned %d entries, want 10", len(indices))
	}
	if indices[0].Symbol != "^GSPC" {
		t.Errorf("first index = %+v, want ^GSPC", indices[0])
	}
}

func almostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
