package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/fd1az/marketfeed/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelWarn, "test", nil)

	log.Debug(context.Background(), "should not appear")
	log.Info(context.Background(), "should not appear either")
	assert.Empty(t, buf.String())

	log.Warn(context.Background(), "visible")
	assert.NotEmpty(t, buf.String())
}

func TestFieldsAndStaticAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelDebug, "session", map[string]string{"service": "marketfeed"})

	log.Info(context.Background(), "connected", "symbol", "BTC-USD", "attempt", 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "connected", rec["msg"])
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "session", rec["logger"])

	fields, ok := rec["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "marketfeed", fields["service"])
	assert.Equal(t, "BTC-USD", fields["symbol"])
	assert.Equal(t, float64(1), fields["attempt"])
}

func TestWithMergesAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := logger.New(&buf, logger.LevelDebug, "session", map[string]string{"service": "marketfeed"})
	child := base.With(map[string]string{"symbol": "ETH-USD"})

	child.Info(context.Background(), "resubscribed")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	fields := rec["fields"].(map[string]any)
	assert.Equal(t, "marketfeed", fields["service"])
	assert.Equal(t, "ETH-USD", fields["symbol"])
}

func TestContextTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelDebug, "session", nil)
	ctx := logger.ContextWithTraceID(context.Background(), "trace-123")

	log.Info(ctx, "hello")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "trace-123", rec["trace_id"])
}
