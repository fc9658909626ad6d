// Package refresh drives the periodic repopulation of the snapshot cache.
// One background loop per process fetches every configured dataset each
// cycle and applies successful results to the cache; readers never wait
// on it and failures in one dataset never block the rest of the cycle.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"macrofeed/internal/cache"
	"macrofeed/internal/dataset"
)

// Config holds refresh loop configuration.
type Config struct {
	Interval     time.Duration // Time between cycles (default: 60s)
	FetchTimeout time.Duration // Per-dataset fetch budget (default: 30s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:     60 * time.Second,
		FetchTimeout: 30 * time.Second,
	}
}

// result carries one dataset's outcome from its fetch goroutine back to
// the applying loop.
type result struct {
	key        string
	value      any
	err        error
	observedAt time.Time
}

// Runner owns the refresh loop. It is the sole writer of the cache store;
// ForceRefresh routes through the same loop rather than writing directly.
type Runner struct {
	cfg      Config
	store    *cache.Store
	datasets []dataset.Fetcher
	errs     *ErrorLog
	logger   *slog.Logger

	force chan chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Runner over the given datasets.
func New(cfg Config, store *cache.Store, datasets []dataset.Fetcher, logger *slog.Logger) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultConfig().FetchTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:      cfg,
		store:    store,
		datasets: datasets,
		errs:     NewErrorLog(),
		logger:   logger,
		force:    make(chan chan struct{}),
	}
}

// Errors returns the log of dataset failures surfaced to the
// presentation side.
func (r *Runner) Errors() *ErrorLog {
	return r.errs
}

// Snapshot returns the cache's current consistent view.
func (r *Runner) Snapshot() cache.Snapshot {
	return r.store.Snapshot()
}

// Start begins the refresh loop. The first cycle runs immediately so the
// cache populates without waiting a full interval.
func (r *Runner) Start(ctx context.Context) error {
	if len(r.datasets) == 0 {
		return errors.New("no datasets configured")
	}

	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("refresh loop started",
		"interval", r.cfg.Interval,
		"datasets", len(r.datasets),
	)
	return nil
}

// Stop cancels the loop and waits for it to exit. Shutdown latency is
// bounded by the backoff tick inside an in-flight fetch, not by a full
// network timeout.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("refresh loop stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ForceRefresh triggers one extra cycle and waits for it to complete. It
// is safe to call while the scheduled loop runs: the request is handled
// by the loop itself, so there is never a second writer.
func (r *Runner) ForceRefresh(ctx context.Context) error {
	if r.ctx == nil {
		return errors.New("refresh loop not started")
	}

	done := make(chan struct{})
	select {
	case r.force <- done:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.ctx.Done():
		return r.ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main refresh loop.
func (r *Runner) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.cycle()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.cycle()
		case done := <-r.force:
			r.cycle()
			close(done)
		}
	}
}

// cycle fetches every dataset concurrently and applies the results.
// Results are applied by this goroutine alone, keeping a single-writer
// discipline over the store.
func (r *Runner) cycle() {
	cycleID := uuid.NewString()[:8]
	start := time.Now()

	results := make(chan result, len(r.datasets))
	var wg sync.WaitGroup

	for _, f := range r.datasets {
		wg.Add(1)
		go func(f dataset.Fetcher) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(r.ctx, r.cfg.FetchTimeout)
			defer cancel()

			value, attempts, err := f.Fetch(ctx)
			for _, a := range attempts {
				if a.Failed() {
					r.logger.Debug("fetch attempt failed",
						"cycle", cycleID,
						"target", a.Target,
						"adapter", a.Adapter,
						"err", a.Err,
					)
				}
			}
			results <- result{
				key:        f.Key(),
				value:      value,
				err:        err,
				observedAt: time.Now(),
			}
		}(f)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var updated, failed int
	for res := range results {
		if res.err != nil {
			failed++
			// Cancellation at shutdown is not a provider failure worth
			// surfacing to the dashboard.
			if !errors.Is(res.err, context.Canceled) {
				r.errs.Record(res.key, res.err)
			}
			r.logger.Warn("dataset fetch failed, keeping last good value",
				"cycle", cycleID,
				"dataset", res.key,
				"err", res.err,
			)
			continue
		}
		if r.store.Replace(res.key, res.value, res.observedAt) {
			updated++
		}
	}

	r.store.MarkCycle(time.Now())

	r.logger.Info("refresh cycle complete",
		"cycle", cycleID,
		"datasets", len(r.datasets),
		"updated", updated,
		"failed", failed,
		"duration", time.Since(start),
	)
}
