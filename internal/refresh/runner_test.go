package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"macrofeed/internal/cache"
	"macrofeed/internal/dataset"
	"macrofeed/internal/fetch"
	"macrofeed/internal/testutil"
)

// testConfig uses a long interval so cycles only happen at start and via
// ForceRefresh, making tests deterministic.
func testConfig() Config {
	return Config{
		Interval:     time.Hour,
		FetchTimeout: 5 * time.Second,
	}
}

// waitForKey blocks until the store has a value for key or the deadline
// passes.
func waitForKey(t *testing.T, store *cache.Store, key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Snapshot().Value(key) != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("store never populated key %q", key)
}

func TestStart_NoDatasets(t *testing.T) {
	runner := New(testConfig(), cache.NewStore(), nil, nil)
	if err := runner.Start(context.Background()); err == nil {
		t.Error("Start() expected error for no datasets, got nil")
	}
}

func TestRun_FirstCyclePopulatesImmediately(t *testing.T) {
	store := cache.NewStore()
	datasets := []dataset.Fetcher{
		testutil.NewMockDatasetFetcher("market", []string{"row"}, nil),
		testutil.NewMockDatasetFetcher("rates", map[string]float64{"fed": 5.25}, nil),
	}

	runner := New(testConfig(), store, datasets, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}
	defer runner.Stop(context.Background())

	waitForKey(t, store, "market")
	waitForKey(t, store, "rates")

	snap := store.Snapshot()
	if snap.LastUpdated.IsZero() {
		t.Error("LastUpdated not advanced after first cycle")
	}
}

func TestRun_FailureKeepsLastGoodValue(t *testing.T) {
	store := cache.NewStore()

	// "rates" succeeds once and then fails; "market" always succeeds with
	// a fresh value.
	var ratesCalls, marketCalls atomic.Int64
	ratesFetcher := &testutil.MockDatasetFetcher{
		KeyValue: "rates",
		FetchFunc: func(_ context.Context) (any, []fetch.Attempt, error) {
			if ratesCalls.Add(1) == 1 {
				return map[string]float64{"fed": 5.25}, nil, nil
			}
			return nil, nil, errors.New("provider down")
		},
	}
	marketFetcher := &testutil.MockDatasetFetcher{
		KeyValue: "market",
		FetchFunc: func(_ context.Context) (any, []fetch.Attempt, error) {
			return marketCalls.Add(1), nil, nil
		},
	}

	runner := New(testConfig(), store, []dataset.Fetcher{ratesFetcher, marketFetcher}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}
	defer runner.Stop(context.Background())

	waitForKey(t, store, "rates")
	ratesUpdatedAt, _ := store.UpdatedAt("rates")

	// Second cycle: rates fails, market succeeds.
	if err := runner.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("ForceRefresh() returned unexpected error: %v", err)
	}

	snap := store.Snapshot()
	rates := snap.Value("rates").(map[string]float64)
	if rates["fed"] != 5.25 {
		t.Errorf("rates.fed = %v, want 5.25 (failed fetch must not overwrite)", rates["fed"])
	}
	if gotAt, _ := store.UpdatedAt("rates"); !gotAt.Equal(ratesUpdatedAt) {
		t.Errorf("rates timestamp changed after failed fetch: %v -> %v", ratesUpdatedAt, gotAt)
	}
	if got := snap.Value("market").(int64); got < 2 {
		t.Errorf("market = %v, want refreshed value from second cycle", got)
	}

	// The failure was surfaced, not swallowed.
	errs := runner.Errors().Drain()
	found := false
	for _, fe := range errs {
		if fe.Dataset == "rates" {
			found = true
		}
	}
	if !found {
		t.Errorf("error log %v missing rates failure", errs)
	}
}

func TestForceRefresh_RunsExtraCycle(t *testing.T) {
	store := cache.NewStore()

	var calls atomic.Int64
	fetcher := &testutil.MockDatasetFetcher{
		KeyValue: "market",
		FetchFunc: func(_ context.Context) (any, []fetch.Attempt, error) {
			return calls.Add(1), nil, nil
		},
	}

	runner := New(testConfig(), store, []dataset.Fetcher{fetcher}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}
	defer runner.Stop(context.Background())

	waitForKey(t, store, "market")

	before := calls.Load()
	if err := runner.ForceRefresh(context.Background()); err != nil {
		t.Fatalf("ForceRefresh() returned unexpected error: %v", err)
	}
	if after := calls.Load(); after != before+1 {
		t.Errorf("fetch calls = %d, want %d", after, before+1)
	}
}

func TestForceRefresh_BeforeStart(t *testing.T) {
	runner := New(testConfig(), cache.NewStore(), nil, nil)
	if err := runner.ForceRefresh(context.Background()); err == nil {
		t.Error("ForceRefresh() before Start() expected error, got nil")
	}
}

func TestStop_MidFetchReturnsPromptly(t *testing.T) {
	store := cache.NewStore()

	// A fetcher that blocks until its context is cancelled, standing in
	// for a fetch stuck in backoff sleep.
	fetched := make(chan struct{})
	fetcher := &testutil.MockDatasetFetcher{
		KeyValue: "slow",
		FetchFunc: func(ctx context.Context) (any, []fetch.Attempt, error) {
			close(fetched)
			<-ctx.Done()
			return nil, nil, ctx.Err()
		},
	}

	runner := New(testConfig(), store, []dataset.Fetcher{fetcher}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}
	<-fetched

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()

	start := time.Now()
	if err := runner.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() returned unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop() took %v, want prompt exit", elapsed)
	}

	// The abandoned fetch must not have applied anything.
	if store.Snapshot().Value("slow") != nil {
		t.Error("cancelled fetch must not populate the cache")
	}
}

func TestRun_DatasetFailureIsolation(t *testing.T) {
	store := cache.NewStore()

	datasets := []dataset.Fetcher{
		testutil.NewMockDatasetFetcher("bad", nil, errors.New("always fails")),
		testutil.NewMockDatasetFetcher("good", 42, nil),
	}

	runner := New(testConfig(), store, datasets, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runner.Start(ctx); err != nil {
		t.Fatalf("Start() returned unexpected error: %v", err)
	}
	defer runner.Stop(context.Background())

	// The failing dataset must not prevent the good one from landing.
	waitForKey(t, store, "good")
	if store.Snapshot().Value("bad") != nil {
		t.Error("failing dataset should never populate")
	}
}

func TestErrorLog_DrainClears(t *testing.T) {
	log := NewErrorLog()
	log.Record("rates", errors.New("down"))
	log.Record("market", errors.New("down"))

	if log.Len() != 2 {
		t.Errorf("Len() = %d, want 2", log.Len())
	}
	if got := log.Drain(); len(got) != 2 {
		t.Errorf("Drain() returned %d entries, want 2", len(got))
	}
	if log.Len() != 0 {
		t.Errorf("Len() after drain = %d, want 0", log.Len())
	}
}

func TestErrorLog_Bounded(t *testing.T) {
	log := NewErrorLog()
	for i := 0; i < maxRecorded+10; i++ {
		log.Record("rates", errors.New("down"))
	}
	if log.Len() != maxRecorded {
		t.Errorf("Len() = %d, want %d", log.Len(), maxRecorded)
	}
}
