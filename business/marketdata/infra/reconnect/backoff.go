// Package reconnect implements the reconnect backoff policy and the
// circuit breaker gating it, grounded on internal/wsconn's original
// exponential backoff-with-jitter loop (now removed from wsconn itself
// and owned here instead, so the session manager is the single authority
// deciding when to redial): delay d0, multiplier m, cap d_max, jitter
// fraction j, combined with a sony/gobreaker/v2 breaker
// (internal/circuitbreaker) so repeated failures stop retrying for a
// cooldown window instead of spinning forever.
package reconnect

import (
	"math/rand"
	"time"
)

// Policy holds the backoff parameters from §4.7.
type Policy struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Jitter     float64 // fraction, e.g. 0.2 means +/-20%
	MaxAttempts int     // 0 = unbounded
}

// DefaultPolicy matches the protocol's documented defaults:
// d0=100ms, m=2.0, d_max=30s, j=0.2.
func DefaultPolicy() Policy {
	return Policy{Initial: 100 * time.Millisecond, Multiplier: 2.0, Max: 30 * time.Second, Jitter: 0.2}
}

// Backoff computes successive reconnect delays. NextDelay is
// non-decreasing (excluding jitter) up to Max, matching the
// backoff_monotone property.
type Backoff struct {
	policy  Policy
	current time.Duration
	attempt int
	rand    func() float64
}

// NewBackoff builds a Backoff at its initial delay, unstarted (attempt 0).
func NewBackoff(policy Policy) *Backoff {
	return &Backoff{policy: policy, current: policy.Initial, rand: rand.Float64}
}

// Attempt returns the number of delays handed out so far.
func (b *Backoff) Attempt() int { return b.attempt }

// ExceededMaxAttempts reports whether the configured attempt cap (if any)
// has been reached.
func (b *Backoff) ExceededMaxAttempts() bool {
	return b.policy.MaxAttempts > 0 && b.attempt >= b.policy.MaxAttempts
}

// NextDelay returns the delay to wait before the next connect attempt and
// advances the internal state: d_n = min(d_max, d_{n-1} * m) * uniform(1-j, 1+j).
// The first call returns Initial jittered; base delay grows independent of
// jitter so successive *base* delays are monotone non-decreasing.
func (b *Backoff) NextDelay() time.Duration {
	base := b.current
	b.attempt++

	next := time.Duration(float64(b.current) * b.policy.Multiplier)
	if next > b.policy.Max {
		next = b.policy.Max
	}
	b.current = next

	if b.policy.Jitter <= 0 {
		return base
	}
	lo := 1 - b.policy.Jitter
	spread := 2 * b.policy.Jitter
	factor := lo + b.rand()*spread
	return time.Duration(float64(base) * factor)
}

// Reset returns the backoff to its initial state, called after a
// successful connect.
func (b *Backoff) Reset() {
	b.current = b.policy.Initial
	b.attempt = 0
}
