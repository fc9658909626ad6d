package ratelimit

import (
	"context"
	"os"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external providers we interact with
type API string

const (
	// APIYahoo represents the Yahoo Finance chart API
	APIYahoo API = "yahoo"
	// APIFRED represents the FRED observations API
	APIFRED API = "fred"
	// APIAlpaca represents the Alpaca market-data API
	APIAlpaca API = "alpaca"
)

// Limiter manages rate limits for different providers
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

var (
	instance *Limiter
	once     sync.Once
)

// GetLimiter returns the singleton rate limiter instance
func GetLimiter() *Limiter {
	once.Do(func() {
		instance = &Limiter{
			limiters: make(map[API]*rate.Limiter),
		}
		instance.initLimiters()
	})
	return instance
}

// initLimiters initializes rate limiters for each provider with conservative defaults
func (l *Limiter) initLimiters() {
	// In test mode, use unlimited rate limits to avoid slowing down tests
	if os.Getenv("GO_TESTING") == "1" || isTestMode() {
		l.limiters[APIYahoo] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APIFRED] = rate.NewLimiter(rate.Inf, 1)
		l.limiters[APIAlpaca] = rate.NewLimiter(rate.Inf, 1)
		return
	}

	// Yahoo: unauthenticated chart endpoint, stay well under the informal cap
	l.limiters[APIYahoo] = rate.NewLimiter(rate.Limit(4), 1)

	// FRED: 120 requests per minute = 2 per second
	l.limiters[APIFRED] = rate.NewLimiter(rate.Limit(2), 1)

	// Alpaca: 200 requests per minute on the free data plan
	l.limiters[APIAlpaca] = rate.NewLimiter(rate.Limit(200.0/60.0), 1)
}

// isTestMode checks if we're running in test mode
func isTestMode() bool {
	for _, arg := range os.Args {
		if len(arg) > 6 && arg[:6] == "-test." {
			return true
		}
	}
	return false
}

// Wait blocks until the rate limiter permits an event for the given provider
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this provider, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given provider may happen now
func (l *Limiter) Allow(api API) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return true
	}

	return limiter.Allow()
}
