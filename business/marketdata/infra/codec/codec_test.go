package codec_test

import (
	"encoding/json"
	"testing"

	"github.com/fd1az/marketfeed/business/marketdata/infra/codec"
	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshotFixture(t *testing.T) {
	raw := []byte(`{"channel":"book","type":"snapshot","data":[{"symbol":"BTC/USD","bids":[{"price":88000.5,"qty":1.5}],"asks":[{"price":88001.0,"qty":1.0}],"checksum":1234567890}]}`)
	msg, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, codec.KindSnapshot, msg.Kind)
	require.Len(t, msg.Snapshot.Entries, 1)

	entry := msg.Snapshot.Entries[0]
	assert.Equal(t, "BTC/USD", entry.Symbol)
	assert.Equal(t, uint32(1234567890), entry.Checksum)
	require.Len(t, entry.Bids, 1)
	assert.True(t, entry.Bids[0].Price.Equal(decimal.MustParse("88000.5")))
	assert.True(t, entry.Bids[0].Qty.Equal(decimal.MustParse("1.5")))
}

func TestDecodeUpdateFixtureWithTimestamp(t *testing.T) {
	raw := []byte(`{"channel":"book","type":"update","data":[{"symbol":"BTC/USD","bids":[{"price":88000.75,"qty":0.8}],"asks":[],"checksum":987654321,"timestamp":"2025-01-01T00:00:00.000Z"}]}`)
	msg, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, codec.KindUpdate, msg.Kind)
	entry := msg.Update.Entries[0]
	assert.Equal(t, "2025-01-01T00:00:00.000Z", entry.Timestamp, "timestamp must be preserved verbatim")
	assert.Equal(t, uint32(987654321), entry.Checksum)
}

func TestDecodeHeartbeat(t *testing.T) {
	msg, err := codec.Decode([]byte(`{"channel":"heartbeat"}`))
	require.NoError(t, err)
	assert.Equal(t, codec.KindHeartbeat, msg.Kind)
}

// S2: scientific notation parses exactly.
func TestDecodeScientificNotation(t *testing.T) {
	raw := []byte(`{"channel":"book","type":"snapshot","data":[{"symbol":"BTC/USD","bids":[{"price":"1.5e-8","qty":"2.0e3"}],"asks":[],"checksum":1}]}`)
	msg, err := codec.Decode(raw)
	require.NoError(t, err)
	entry := msg.Snapshot.Entries[0]
	assert.Equal(t, "0.000000015", entry.Bids[0].Price.String())
	assert.Equal(t, "2000", entry.Bids[0].Qty.String())
}

func TestDecodeInstrument(t *testing.T) {
	raw := []byte(`{"channel":"instrument","symbol":"BTC/USD","price_precision":2,"qty_precision":4}`)
	msg, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, codec.KindInstrument, msg.Kind)
	assert.Equal(t, int32(2), msg.Instrument.PriceScale)
	assert.Equal(t, int32(4), msg.Instrument.QtyScale)
}

func TestDecodeL3Event(t *testing.T) {
	raw := []byte(`{"channel":"l3","symbol":"BTC/USD","kind":"add","order_id":"A1","side":"bid","price":"50000","qty":"1.0","sequence":7}`)
	msg, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, codec.KindL3Event, msg.Kind)
	assert.Equal(t, codec.L3EventAdd, msg.L3Event.Kind)
	assert.Equal(t, uint64(7), msg.L3Event.Sequence)
	require.NotNil(t, msg.L3Event.Price)
	assert.True(t, msg.L3Event.Price.Equal(decimal.MustParse("50000")))
}

func TestDecodeSubscriptionAck(t *testing.T) {
	raw := []byte(`{"channel":"subscriptionAck","type":"book","symbols":["BTC/USD"],"req_id":1,"ok":true}`)
	msg, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, codec.KindSubscriptionAck, msg.Kind)
	assert.True(t, msg.Ack.OK)
	assert.Equal(t, []string{"BTC/USD"}, msg.Ack.Symbols)
}

func TestDecodeErrorMessage(t *testing.T) {
	raw := []byte(`{"channel":"error","code":"rate_limited","reason":"too many requests","correlation_id":"abc"}`)
	msg, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, codec.KindError, msg.Kind)
	assert.Equal(t, "rate_limited", msg.Err.Code)
}

func TestDecodeUnknownChannelErrors(t *testing.T) {
	_, err := codec.Decode([]byte(`{"channel":"bogus"}`))
	assert.Error(t, err)
}

func TestDecodeMalformedJSONErrors(t *testing.T) {
	_, err := codec.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestEncodeSubscribeFixture(t *testing.T) {
	enc := codec.NewEncoder()
	raw, id := enc.Subscribe("book", []string{"BTC/USD"}, 10, true, "")
	assert.Equal(t, int64(1), id)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "subscribe", decoded["method"])
	assert.InDelta(t, float64(1), decoded["req_id"].(float64), 0)

	params := decoded["params"].(map[string]any)
	assert.Equal(t, "book", params["channel"])
	assert.Equal(t, true, params["snapshot"])
}

func TestEncodeReqIDMonotonic(t *testing.T) {
	enc := codec.NewEncoder()
	_, id1 := enc.Ping()
	_, id2 := enc.Ping()
	assert.Less(t, id1, id2)
}
