package reconnect_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/marketfeed/business/marketdata/infra/reconnect"
	"github.com/fd1az/marketfeed/internal/circuitbreaker"
)

func TestBackoffMonotoneIgnoringJitter(t *testing.T) {
	policy := reconnect.Policy{Initial: 100 * time.Millisecond, Multiplier: 2.0, Max: 30 * time.Second, Jitter: 0}
	b := reconnect.NewBackoff(policy)

	d1 := b.NextDelay()
	d2 := b.NextDelay()
	d3 := b.NextDelay()

	assert.Equal(t, 100*time.Millisecond, d1)
	assert.Equal(t, 200*time.Millisecond, d2)
	assert.Equal(t, 400*time.Millisecond, d3)
}

func TestBackoffCapsAtMax(t *testing.T) {
	policy := reconnect.Policy{Initial: 20 * time.Second, Multiplier: 2.0, Max: 30 * time.Second, Jitter: 0}
	b := reconnect.NewBackoff(policy)
	b.NextDelay()
	d2 := b.NextDelay()
	assert.Equal(t, 30*time.Second, d2)
}

func TestBackoffResetReturnsToInitial(t *testing.T) {
	policy := reconnect.Policy{Initial: 100 * time.Millisecond, Multiplier: 2.0, Max: 30 * time.Second, Jitter: 0}
	b := reconnect.NewBackoff(policy)
	b.NextDelay()
	b.NextDelay()
	b.Reset()
	assert.Equal(t, 100*time.Millisecond, b.NextDelay())
}

func TestSupervisorRunSucceedsEventually(t *testing.T) {
	policy := reconnect.Policy{Initial: time.Millisecond, Multiplier: 2.0, Max: 10 * time.Millisecond, Jitter: 0}
	sup := reconnect.NewSupervisor("test", policy, circuitbreaker.DefaultConfig("test"))

	attempts := 0
	err := sup.Run(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("still failing")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestSupervisorOpensBreakerAfterConsecutiveFailures(t *testing.T) {
	policy := reconnect.Policy{Initial: time.Millisecond, Multiplier: 1.0, Max: time.Millisecond, Jitter: 0}
	cfg := circuitbreaker.DefaultConfig("test-open")
	cfg.ConsecutiveFailures = 2
	sup := reconnect.NewSupervisor("test-open", policy, cfg)

	err := sup.Run(context.Background(), func(ctx context.Context) error {
		return errors.New("boom")
	})
	assert.ErrorIs(t, err, reconnect.ErrBreakerOpen)
}

func TestSupervisorReportsReconnectingAttempts(t *testing.T) {
	policy := reconnect.Policy{Initial: time.Millisecond, Multiplier: 1.0, Max: time.Millisecond, Jitter: 0}
	sup := reconnect.NewSupervisor("test-report", policy, circuitbreaker.DefaultConfig("test-report"))

	var seen []int
	sup.OnReconnecting(func(attempt int, delay time.Duration) { seen = append(seen, attempt) })

	calls := 0
	_ = sup.Run(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("fail once")
		}
		return nil
	})
	assert.Equal(t, []int{1}, seen)
}
