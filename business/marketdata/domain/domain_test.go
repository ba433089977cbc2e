package domain_test

import (
	"testing"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSubscriptionHasSymbol(t *testing.T) {
	sub := domain.NewSubscription(domain.ChannelBook, domain.Depth10, true, "BTC/USD", "ETH/USD")
	assert.True(t, sub.HasSymbol("BTC/USD"))
	assert.False(t, sub.HasSymbol("SOL/USD"))
	assert.Len(t, sub.SymbolList(), 2)
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	snap := domain.Snapshot{
		Symbol: "BTC/USD",
		Bids:   []domain.PriceLevel{{Price: decimal.MustParse("100"), Qty: decimal.MustParse("1")}},
	}
	clone := snap.Clone()
	clone.Bids[0].Qty = decimal.MustParse("2")

	assert.True(t, snap.Bids[0].Qty.Equal(decimal.MustParse("1")))
	assert.True(t, clone.Bids[0].Qty.Equal(decimal.MustParse("2")))
}

func TestNewChecksumMismatchEventCarriesRetryableError(t *testing.T) {
	ev := domain.NewChecksumMismatchEvent("BTC/USD", 111, 222, 7)
	assert.Equal(t, domain.EventChecksumMismatch, ev.Kind)
	assert.Equal(t, uint32(111), ev.ChecksumMismatch.Expected)
	assert.Equal(t, uint32(222), ev.ChecksumMismatch.Computed)
	assert.True(t, ev.Err.IsRetryable())
	assert.False(t, ev.Err.RequiresReconnect())
}

func TestValidDepth(t *testing.T) {
	assert.True(t, domain.ValidDepth(domain.Depth10))
	assert.False(t, domain.ValidDepth(domain.Depth(42)))
}
