package restsnapshot_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/infra/restsnapshot"
	"github.com/fd1az/marketfeed/internal/httpclient"
)

func TestFetchSnapshotDecodesLevels(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if r.URL.Path != "/orderbook" {
			t.Errorf("expected path /orderbook, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTC/USD" {
			t.Errorf("expected symbol BTC/USD, got %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"bids":     []map[string]string{{"price": "50000.5", "qty": "1.25"}},
			"asks":     []map[string]string{{"price": "50001.0", "qty": "0.75"}},
			"checksum": 123456,
			"sequence": 42,
		})
	}))
	defer server.Close()

	client, err := httpclient.NewInstrumentedClient(httpclient.WithBaseURL(server.URL))
	require.NoError(t, err)

	source := restsnapshot.New(client, server.URL)
	snap, err := source.FetchSnapshot(context.Background(), domain.Symbol("BTC/USD"), domain.Depth10)
	require.NoError(t, err)

	require.Equal(t, uint32(123456), snap.Checksum)
	require.Equal(t, uint64(42), snap.Sequence)
	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Asks, 1)
	require.Equal(t, "50000.5", snap.Bids[0].Price.String())
	require.Equal(t, "1.25", snap.Bids[0].Qty.String())
	require.Equal(t, 1, requestCount)
}

func TestFetchSnapshotErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := httpclient.NewInstrumentedClient(httpclient.WithBaseURL(server.URL))
	require.NoError(t, err)

	source := restsnapshot.New(client, server.URL)
	_, err = source.FetchSnapshot(context.Background(), domain.Symbol("BTC/USD"), domain.Depth10)
	require.Error(t, err)
}
