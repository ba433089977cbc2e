package reconnect

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/marketfeed/internal/circuitbreaker"
)

// ConnectFunc attempts one connection and returns an error on failure.
type ConnectFunc func(ctx context.Context) error

// Supervisor drives ConnectFunc under the documented backoff policy,
// gated by a Closed/Open/Half-Open circuit breaker (internal/circuitbreaker,
// itself wrapping sony/gobreaker/v2): once F_open consecutive failures
// trip the breaker, further attempts are rejected immediately (no wasted
// connect calls or sleeps) until the breaker's cooldown elapses and a
// single Half-Open probe is allowed through.
type Supervisor struct {
	backoff *Backoff
	breaker *gobreaker.CircuitBreaker[struct{}]

	onReconnecting func(attempt int, delay time.Duration)
}

// NewSupervisor builds a Supervisor for name (used in breaker logging/
// metrics) with the given backoff policy and breaker config.
func NewSupervisor(name string, policy Policy, breakerCfg circuitbreaker.Config) *Supervisor {
	breakerCfg.Name = name
	return &Supervisor{
		backoff: NewBackoff(policy),
		breaker: circuitbreaker.New[struct{}](breakerCfg),
	}
}

// OnReconnecting sets a callback invoked before each sleep, reporting the
// attempt number and delay — the session manager uses this to emit the
// Reconnecting{attempt, delay} event.
func (s *Supervisor) OnReconnecting(fn func(attempt int, delay time.Duration)) {
	s.onReconnecting = fn
}

// ErrBreakerOpen is returned by Run when the circuit breaker is Open and
// rejecting attempts.
var ErrBreakerOpen = errors.New("reconnect: circuit breaker open")

// Run attempts connect repeatedly until it succeeds, the attempt cap is
// exceeded, or ctx is cancelled. On success the backoff resets. Each
// failed attempt sleeps for the next backoff delay before retrying,
// except when the breaker itself rejects the attempt (already Open), in
// which case the caller gets ErrBreakerOpen immediately without sleeping
// again on top of the breaker's own cooldown.
func (s *Supervisor) Run(ctx context.Context, connect ConnectFunc) error {
	for {
		if s.backoff.ExceededMaxAttempts() {
			return errors.New("reconnect: max attempts exceeded")
		}

		_, err := s.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, connect(ctx)
		})
		if err == nil {
			s.backoff.Reset()
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			return ErrBreakerOpen
		}

		delay := s.backoff.NextDelay()
		if s.onReconnecting != nil {
			s.onReconnecting(s.backoff.Attempt(), delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// State reports the breaker's current state.
func (s *Supervisor) State() gobreaker.State {
	return s.breaker.State()
}
