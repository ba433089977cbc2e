package circuitbreaker_test

import (
	"errors"
	"testing"

	"github.com/fd1az/marketfeed/internal/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTripsAfterConsecutiveFailures(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("test-breaker")
	cfg.ConsecutiveFailures = 2
	cb := circuitbreaker.New[struct{}](cfg)

	failingOp := func() (struct{}, error) {
		return struct{}{}, errors.New("dial failed")
	}

	_, err := cb.Execute(failingOp)
	require.Error(t, err)
	_, err = cb.Execute(failingOp)
	require.Error(t, err)

	_, err = cb.Execute(failingOp)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	cfg := circuitbreaker.DefaultConfig("callback-breaker")
	cfg.ConsecutiveFailures = 1
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}
	cb := circuitbreaker.New[struct{}](cfg)

	_, _ = cb.Execute(func() (struct{}, error) {
		return struct{}{}, errors.New("boom")
	})

	require.NotEmpty(t, transitions)
	assert.Equal(t, "closed->open", transitions[0])
}

func TestSuccessfulExecuteReturnsValue(t *testing.T) {
	cb := circuitbreaker.New[int](circuitbreaker.DefaultConfig("value-breaker"))
	v, err := cb.Execute(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}
