// Package ratelimit implements a fixed-window request counter used to guard
// credential-checking and write-heavy endpoints. Fixed windows admit brief
// bursts at window boundaries; that is an accepted tradeoff for coarse
// brute-force deterrence.
package ratelimit

import (
	"context"
	"time"
)

// Policy pairs a request ceiling with the window it applies to. The limiter
// is action-agnostic; callers supply the policy per action.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}

// Result reports the outcome of one CheckAndIncrement call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the whole seconds until the window resets, rounded up.
	// Only meaningful when Allowed is false.
	RetryAfter int
}

// Store is the counter backend. The in-memory store is the default; a
// Redis-backed store implements the same interface for deployments that
// run more than one instance, since in-process counts are per-instance.
type Store interface {
	// Incr increments the counter for key, starting a fresh window when
	// none is active, and returns the new count and the window reset time.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
}

// Limiter applies fixed-window policies on top of a Store.
type Limiter struct {
	store Store
	now   func() time.Time
}

// NewLimiter builds a limiter over the given store.
func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// WithClock replaces the time source. Test hook.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// CheckAndIncrement counts the request against the key's current window and
// decides whether it is allowed under the policy.
func (l *Limiter) CheckAndIncrement(ctx context.Context, key string, policy Policy) (Result, error) {
	count, resetAt, err := l.store.Incr(ctx, key, policy.Window)
	if err != nil {
		return Result{}, err
	}

	if count > int64(policy.MaxRequests) {
		retryAfter := int(resetAt.Sub(l.now()).Seconds())
		if resetAt.Sub(l.now())%time.Second != 0 {
			retryAfter++
		}
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt, RetryAfter: retryAfter}, nil
	}

	return Result{
		Allowed:   true,
		Remaining: policy.MaxRequests - int(count),
		ResetAt:   resetAt,
	}, nil
}

// Key joins an action with a client identifier, e.g. "login:203.0.113.5".
func Key(action, clientID string) string {
	return action + ":" + clientID
}
