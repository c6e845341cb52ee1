package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external APIs we interact with
type API string

const (
	// APICoinGecko represents the CoinGecko markets API
	APICoinGecko API = "coingecko"
)

// Limiter manages rate limits for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

// New returns a limiter with no APIs registered; unregistered APIs are not limited
func New() *Limiter {
	return &Limiter{
		limiters: make(map[API]*rate.Limiter),
	}
}

// Set registers a requests-per-minute budget for an API.
// A non-positive budget removes any limit.
func (l *Limiter) Set(api API, perMinute float64, burst int) {
	if burst < 1 {
		burst = 1
	}

	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(perMinute / 60.0)
	}

	l.mu.Lock()
	l.limiters[api] = rate.NewLimiter(limit, burst)
	l.mu.Unlock()
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given API may happen now
func (l *Limiter) Allow(api API) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		return true
	}

	return limiter.Allow()
}
