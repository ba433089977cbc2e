package marketerr_test

import (
	"errors"
	"testing"
	"time"

	"github.com/fd1az/marketfeed/internal/marketerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	err := marketerr.New(marketerr.ChecksumMismatch, marketerr.WithSymbol("BTC-USD"))
	assert.Equal(t, marketerr.ChecksumMismatch, err.Kind)
	assert.Equal(t, "BTC-USD", err.Symbol)
	assert.Contains(t, err.Error(), "BTC-USD")
	assert.Contains(t, err.Error(), "CHECKSUM_MISMATCH")
}

func TestIsMatchesByKind(t *testing.T) {
	a := marketerr.New(marketerr.OutOfOrder, marketerr.WithSymbol("ETH-USD"))
	b := marketerr.New(marketerr.OutOfOrder, marketerr.WithSymbol("BTC-USD"))
	c := marketerr.New(marketerr.ParseError)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestUnwrapCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := marketerr.New(marketerr.ConnectionFailed, marketerr.WithCause(cause))
	assert.ErrorIs(t, err, cause)
}

func TestRetryAfter(t *testing.T) {
	err := marketerr.New(marketerr.RateLimited, marketerr.WithRetryAfter(5*time.Second))
	d, ok := err.RetryAfter()
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	other := marketerr.New(marketerr.RateLimited)
	_, ok = other.RetryAfter()
	assert.False(t, ok)
}

func TestRetryableAndReconnectMatrix(t *testing.T) {
	tests := []struct {
		kind              marketerr.Kind
		retryable         bool
		requiresReconnect bool
	}{
		{marketerr.ConnectionFailed, true, true},
		{marketerr.ConnectionClosed, true, true},
		{marketerr.ConnectionTimeout, true, true},
		{marketerr.ParseError, false, false},
		{marketerr.ChecksumMismatch, true, false},
		{marketerr.SubscriptionRejected, false, false},
		{marketerr.RateLimited, true, false},
		{marketerr.AuthenticationFailed, false, true},
		{marketerr.OutOfOrder, true, false},
		{marketerr.Overflow, false, false},
		{marketerr.Internal, false, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			err := marketerr.New(tc.kind)
			assert.Equal(t, tc.retryable, err.IsRetryable())
			assert.Equal(t, tc.requiresReconnect, err.RequiresReconnect())
		})
	}
}

func TestAsAndOfKind(t *testing.T) {
	err := marketerr.New(marketerr.Overflow, marketerr.WithContext("event bus full"))
	me, ok := marketerr.As(err)
	require.True(t, ok)
	assert.Equal(t, "event bus full", me.Context)
	assert.True(t, marketerr.OfKind(err, marketerr.Overflow))
	assert.False(t, marketerr.OfKind(err, marketerr.ParseError))
}
