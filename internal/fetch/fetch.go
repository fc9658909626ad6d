package fetch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"macrofeed/internal/source"
)

// Policy bounds the retry behavior of Do. A MaxAttempts of 1 disables
// retrying but still allows fallback across adapters.
type Policy struct {
	MaxAttempts int
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns the retry bounds used when none are configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		MinDelay:    500 * time.Millisecond,
		MaxDelay:    3 * time.Second,
	}
}

// Attempt records one try against one adapter. A nil Err marks the
// attempt that succeeded.
type Attempt struct {
	Target  string
	Adapter string
	Err     error
}

// Failed reports whether this attempt errored.
func (a Attempt) Failed() bool {
	return a.Err != nil
}

// Failure is returned by Do when every adapter is exhausted. It carries
// the full attempt trail so callers can surface the last error per adapter.
type Failure struct {
	Target   string
	Attempts []Attempt
}

// Error implements the error interface.
func (f *Failure) Error() string {
	last := f.LastErrors()
	parts := make([]string, 0, len(last))
	for adapter, err := range last {
		parts = append(parts, fmt.Sprintf("%s: %v", adapter, err))
	}
	return fmt.Sprintf("all adapters failed for %s [%s]", f.Target, strings.Join(parts, "; "))
}

// LastErrors returns the final error observed per adapter, in no
// particular order.
func (f *Failure) LastErrors() map[string]error {
	last := make(map[string]error)
	for _, a := range f.Attempts {
		if a.Err != nil {
			last[a.Adapter] = a.Err
		}
	}
	return last
}

// Caller pairs an adapter name with the call Do should attempt against it.
type Caller[T any] struct {
	Adapter string
	Call    func(ctx context.Context) (T, error)
}

// Do attempts the callers in order for one logical target. Each caller is
// tried up to policy.MaxAttempts times with a uniformly jittered sleep in
// [MinDelay, MaxDelay] between tries; the jitter keeps datasets fetched in
// the same cycle from retrying in lockstep. A non-retryable error skips
// the caller's remaining attempts and moves straight to the next caller.
//
// The attempt trail is returned in both the success and failure cases.
// When every caller is exhausted the error is a *Failure; when ctx is
// cancelled mid-backoff the error is ctx.Err().
func Do[T any](ctx context.Context, target string, policy Policy, callers ...Caller[T]) (T, []Attempt, error) {
	var zero T

	if len(callers) == 0 {
		return zero, nil, fmt.Errorf("no adapters configured for %s", target)
	}

	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var attempts []Attempt
	for _, caller := range callers {
		for try := 1; try <= maxAttempts; try++ {
			value, err := caller.Call(ctx)
			attempts = append(attempts, Attempt{
				Target:  target,
				Adapter: caller.Adapter,
				Err:     err,
			})
			if err == nil {
				return value, attempts, nil
			}

			// A bad symbol stays bad; retrying the same adapter is wasted
			// budget, but a fallback may still know it.
			if !source.Retryable(err) {
				break
			}

			if try < maxAttempts {
				if err := sleep(ctx, jitter(policy)); err != nil {
					return zero, attempts, err
				}
			}
		}
	}

	return zero, attempts, &Failure{Target: target, Attempts: attempts}
}

// ForQuote builds the caller chain for a symbol quote over the given
// adapters, primary first.
func ForQuote(symbol string, adapters ...source.Adapter) []Caller[source.Quote] {
	callers := make([]Caller[source.Quote], 0, len(adapters))
	for _, a := range adapters {
		adapter := a
		callers = append(callers, Caller[source.Quote]{
			Adapter: adapter.Name(),
			Call: func(ctx context.Context) (source.Quote, error) {
				return adapter.GetQuote(ctx, symbol)
			},
		})
	}
	return callers
}

// ForSeries builds the caller chain for a time-series lookup over the
// given adapters, primary first.
func ForSeries(seriesID string, lookback time.Duration, adapters ...source.Adapter) []Caller[[]source.Point] {
	callers := make([]Caller[[]source.Point], 0, len(adapters))
	for _, a := range adapters {
		adapter := a
		callers = append(callers, Caller[[]source.Point]{
			Adapter: adapter.Name(),
			Call: func(ctx context.Context) ([]source.Point, error) {
				return adapter.GetSeries(ctx, seriesID, lookback)
			},
		})
	}
	return callers
}

// jitter draws a backoff delay uniformly from [MinDelay, MaxDelay].
func jitter(policy Policy) time.Duration {
	min, max := policy.MinDelay, policy.MaxDelay
	if min < 0 {
		min = 0
	}
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

// sleep waits for d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
