package engine_test

import (
	"testing"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/domain/checksum"
	"github.com/fd1az/marketfeed/business/marketdata/domain/engine"
	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lvl(price, qty string) domain.PriceLevel {
	return domain.PriceLevel{Price: decimal.MustParse(price), Qty: decimal.MustParse(qty)}
}

func precision() domain.Precision { return domain.Precision{PriceScale: 2, QtyScale: 4} }

// S1: snapshot then well-formed deltas keep the book Synced and update
// best bid/ask.
func TestApplySnapshotThenDeltaStaysSynced(t *testing.T) {
	ob := engine.New("BTC-USD", engine.DefaultConfig())
	ob.SetPrecision(precision())

	bids := []domain.PriceLevel{lvl("100.00", "1.0000")}
	asks := []domain.PriceLevel{lvl("101.00", "2.0000")}
	want := checksum.Compute(bids, asks, precision(), checksum.DefaultDepth)

	evt := ob.ApplySnapshot(bids, asks, want, 1)
	require.Equal(t, domain.EventOrderbookSnapshot, evt.Kind)
	assert.Equal(t, domain.SyncSynced, ob.State())

	newBids := []domain.PriceLevel{lvl("100.00", "1.0000"), lvl("99.00", "5.0000")}
	want2 := checksum.Compute(newBids, asks, precision(), checksum.DefaultDepth)
	evt2 := ob.ApplyDelta(newBids, nil, want2, 2)
	require.Equal(t, domain.EventOrderbookUpdate, evt2.Kind)
	assert.Equal(t, domain.SyncSynced, ob.State())

	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.True(t, best.Price.Equal(decimal.MustParse("100.00")))
}

// S2: a delta whose checksum does not match the computed value rolls the
// book back to its pre-delta contents and moves to Desynchronized.
func TestApplyDeltaChecksumMismatchRollsBack(t *testing.T) {
	ob := engine.New("BTC-USD", engine.DefaultConfig())
	ob.SetPrecision(precision())

	bids := []domain.PriceLevel{lvl("100.00", "1.0000")}
	asks := []domain.PriceLevel{lvl("101.00", "2.0000")}
	snapChecksum := checksum.Compute(bids, asks, precision(), checksum.DefaultDepth)
	ob.ApplySnapshot(bids, asks, snapChecksum, 1)

	badDelta := []domain.PriceLevel{lvl("100.00", "999.0000")}
	evt := ob.ApplyDelta(badDelta, nil, 0xDEADBEEF, 2)

	require.Equal(t, domain.EventChecksumMismatch, evt.Kind)
	require.NotNil(t, evt.ChecksumMismatch)
	assert.Equal(t, uint32(0xDEADBEEF), evt.ChecksumMismatch.Expected)
	assert.Equal(t, domain.SyncDesynchronized, ob.State())

	best, ok := ob.BestBid()
	require.True(t, ok)
	assert.True(t, best.Qty.Equal(decimal.MustParse("1.0000")), "rollback must restore the pre-delta quantity")
}

// S3: a delta arriving before any snapshot is discarded and reported as
// out-of-order, without altering sync state.
func TestApplyDeltaBeforeSnapshotIsOutOfOrder(t *testing.T) {
	ob := engine.New("BTC-USD", engine.DefaultConfig())
	evt := ob.ApplyDelta([]domain.PriceLevel{lvl("100.00", "1.0000")}, nil, 0, 1)

	assert.Equal(t, domain.EventOutOfOrder, evt.Kind)
	assert.Equal(t, domain.SyncUninitialized, ob.State())
	_, ok := ob.BestBid()
	assert.False(t, ok)
}

func TestMarkAwaitingSnapshotNoOpOnceSynced(t *testing.T) {
	ob := engine.New("BTC-USD", engine.DefaultConfig())
	ob.MarkAwaitingSnapshot()
	assert.Equal(t, domain.SyncAwaitingSnapshot, ob.State())

	ob.ApplySnapshot(nil, nil, 0, 1)
	assert.Equal(t, domain.SyncSynced, ob.State())

	ob.MarkAwaitingSnapshot()
	assert.Equal(t, domain.SyncSynced, ob.State(), "MarkAwaitingSnapshot must not regress an already-synced book")
}

// Snapshot arriving before precision metadata is accepted without
// validation; once precision arrives, subsequent deltas validate normally.
func TestDeferredValidationUntilPrecisionKnown(t *testing.T) {
	ob := engine.New("BTC-USD", engine.DefaultConfig())
	bids := []domain.PriceLevel{lvl("100.00", "1.0000")}
	asks := []domain.PriceLevel{lvl("101.00", "2.0000")}

	evt := ob.ApplySnapshot(bids, asks, 0xBADC0DE, 1)
	require.Equal(t, domain.EventOrderbookSnapshot, evt.Kind)
	assert.Equal(t, domain.SyncSynced, ob.State())

	bogusDelta := []domain.PriceLevel{lvl("100.00", "5.0000")}
	evt2 := ob.ApplyDelta(bogusDelta, nil, 0xBADC0DE, 2)
	require.Equal(t, domain.EventOrderbookUpdate, evt2.Kind, "without precision metadata, deltas commit without checksum validation")
	assert.Equal(t, domain.SyncSynced, ob.State())

	ob.SetPrecision(precision())
	best, _ := ob.BestBid()
	asksSnap := []domain.PriceLevel{lvl("101.00", "2.0000")}
	wantNext := checksum.Compute([]domain.PriceLevel{best}, asksSnap, precision(), checksum.DefaultDepth)
	evt3 := ob.ApplyDelta(nil, nil, wantNext, 3)
	assert.Equal(t, domain.EventOrderbookUpdate, evt3.Kind)
}

func TestShutdownResetsToUninitialized(t *testing.T) {
	ob := engine.New("BTC-USD", engine.DefaultConfig())
	ob.ApplySnapshot([]domain.PriceLevel{lvl("100.00", "1")}, []domain.PriceLevel{lvl("101.00", "1")}, 0, 1)
	require.Equal(t, domain.SyncSynced, ob.State())

	ob.Shutdown()
	assert.Equal(t, domain.SyncUninitialized, ob.State())
	assert.Equal(t, 0, ob.HistoryLen())
	_, ok := ob.BestBid()
	assert.False(t, ok)
}

func TestHistoryRingRetainsEntriesAndEvicts(t *testing.T) {
	cfg := engine.Config{ChecksumDepth: checksum.DefaultDepth, HistoryCapacity: 2}
	ob := engine.New("BTC-USD", cfg)
	ob.ApplySnapshot([]domain.PriceLevel{lvl("100.00", "1")}, nil, 0, 1)
	ob.ApplyDelta([]domain.PriceLevel{lvl("100.00", "2")}, nil, 0, 2)
	ob.ApplyDelta([]domain.PriceLevel{lvl("100.00", "3")}, nil, 0, 3)

	require.Equal(t, 2, ob.HistoryLen())
	oldest, ok := ob.HistoryAt(0)
	require.True(t, ok)
	assert.Equal(t, uint64(2), oldest.Sequence, "oldest entry evicted once capacity is exceeded")

	newest, ok := ob.HistoryAt(1)
	require.True(t, ok)
	assert.Equal(t, uint64(3), newest.Sequence)
}

func TestSpreadAndMidPrice(t *testing.T) {
	ob := engine.New("BTC-USD", engine.DefaultConfig())
	ob.ApplySnapshot([]domain.PriceLevel{lvl("100.00", "1")}, []domain.PriceLevel{lvl("102.00", "1")}, 0, 1)

	spread, ok := ob.Spread()
	require.True(t, ok)
	assert.True(t, spread.Equal(decimal.MustParse("2.00")))

	mid, ok := ob.MidPrice()
	require.True(t, ok)
	assert.True(t, mid.Equal(decimal.MustParse("101")))
}
