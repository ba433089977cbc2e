// Package circuitbreaker wraps sony/gobreaker/v2 with the configuration
// shape this module's connection code expects: a named breaker, a
// consecutive-failure trip threshold, and an OnStateChange hook for
// logging/metrics, mirroring the call pattern this repo's Ethereum
// subscriber used to set up its own breaker around reconnect attempts.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config configures a breaker. ConsecutiveFailures is the trip threshold;
// Timeout is how long the breaker stays Open before probing Half-Open.
type Config struct {
	Name                string
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
	OnStateChange       func(name string, from, to gobreaker.State)
}

// DefaultConfig returns sane defaults for a reconnect-guarding breaker:
// trip after 5 consecutive failures, stay open for 30s, then allow a
// single half-open probe.
func DefaultConfig(name string) Config {
	return Config{
		Name:                name,
		MaxRequests:         1,
		Interval:            0,
		Timeout:             30 * time.Second,
		ConsecutiveFailures: 5,
	}
}

// New builds a generic CircuitBreaker[T] from Config. T is the return
// type of the operation the breaker guards (e.g. struct{} for a reconnect
// attempt that produces no value, or a snapshot type for a REST fallback
// fetch).
func New[T any](cfg Config) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: cfg.OnStateChange,
	}
	return gobreaker.NewCircuitBreaker[T](settings)
}
