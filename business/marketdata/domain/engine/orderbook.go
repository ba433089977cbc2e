// Package engine implements the per-symbol orderbook state machine: it
// owns a bid/ask SideBook pair, applies snapshots and deltas under the
// transition rules of the wire protocol, validates deltas against a
// venue-supplied checksum, and keeps a bounded history of past states.
package engine

import (
	"sync"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/domain/book"
	"github.com/fd1az/marketfeed/business/marketdata/domain/checksum"
	"github.com/fd1az/marketfeed/internal/decimal"
)

// Config controls checksum depth and history retention for an Orderbook.
type Config struct {
	ChecksumDepth   int
	HistoryCapacity int
}

// DefaultConfig matches the venue's documented top-10 checksum window and
// a modest history ring.
func DefaultConfig() Config {
	return Config{ChecksumDepth: checksum.DefaultDepth, HistoryCapacity: 64}
}

// Orderbook is the L2 (price-aggregated) state machine for one symbol.
// A single writer (the session manager's read loop) calls ApplySnapshot /
// ApplyDelta / SetPrecision / Shutdown; mu additionally guards concurrent
// readers calling State / BestBid / BestAsk / HistoryAt.
type Orderbook struct {
	mu sync.RWMutex

	symbol domain.Symbol
	cfg    Config

	bids *book.SideBook
	asks *book.SideBook

	precision    domain.Precision
	precisionSet bool

	syncState    domain.SyncState
	lastChecksum uint32
	lastSequence uint64

	history *historyRing
}

// New builds an Orderbook for symbol in the Uninitialized state.
func New(symbol domain.Symbol, cfg Config) *Orderbook {
	return &Orderbook{
		symbol:    symbol,
		cfg:       cfg,
		bids:      book.NewSideBook(domain.SideBid),
		asks:      book.NewSideBook(domain.SideAsk),
		syncState: domain.SyncUninitialized,
		history:   newHistoryRing(cfg.HistoryCapacity),
	}
}

// Symbol returns the symbol this engine tracks.
func (ob *Orderbook) Symbol() domain.Symbol { return ob.symbol }

// State reports the current sync state.
func (ob *Orderbook) State() domain.SyncState {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.syncState
}

// MarkAwaitingSnapshot transitions Uninitialized -> AwaitingSnapshot, called
// once the session manager has sent a subscribe request with snapshot=true.
// A no-op from any other state.
func (ob *Orderbook) MarkAwaitingSnapshot() {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if ob.syncState == domain.SyncUninitialized {
		ob.syncState = domain.SyncAwaitingSnapshot
	}
}

// SetPrecision installs the scale metadata needed to validate checksums.
// Allowed from any state; it never alters the book itself.
func (ob *Orderbook) SetPrecision(p domain.Precision) {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.precision = p
	ob.precisionSet = true
}

// ApplySnapshot installs a full replacement of both sides. Always accepted
// regardless of current state (AwaitingSnapshot, Uninitialized on first
// contact, or Desynchronized triggering a resync) and always transitions
// to Synced. The venue-supplied checksum is trusted as-is: a snapshot is
// authoritative by definition, so it is stored but not independently
// verified, matching the deferred-validation rule which only concerns
// subsequent deltas.
func (ob *Orderbook) ApplySnapshot(bids, asks []domain.PriceLevel, checksumVal uint32, sequence uint64) domain.Event {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ob.bids.Clear()
	ob.asks.Clear()
	ob.bids.ApplyDeltaBatch(bids)
	ob.asks.ApplyDeltaBatch(asks)

	ob.lastChecksum = checksumVal
	ob.lastSequence = sequence
	ob.syncState = domain.SyncSynced

	snap := ob.snapshotLocked(checksumVal, sequence)
	ob.history.Push(snap)
	return domain.NewOrderbookSnapshotEvent(snap)
}

// undoEntry records a side's level prior to a delta so ApplyDelta can roll
// an applied-but-failed-checksum batch back without a full book clone.
type undoEntry struct {
	price   decimal.Decimal
	existed bool
	prevQty decimal.Decimal
}

func captureUndo(side *book.SideBook, levels []domain.PriceLevel) []undoEntry {
	undo := make([]undoEntry, 0, len(levels))
	for _, lvl := range levels {
		prev, ok := side.Peek(lvl.Price)
		undo = append(undo, undoEntry{price: lvl.Price, existed: ok, prevQty: prev.Qty})
	}
	return undo
}

func applyUndo(side *book.SideBook, undo []undoEntry) {
	for _, u := range undo {
		if u.existed {
			side.Set(u.price, u.prevQty)
		} else {
			side.Set(u.price, decimal.Zero)
		}
	}
}

// ApplyDelta applies an incremental update. Outside Synced the delta is
// discarded (no transition defined by the wire protocol for a delta
// arriving before a snapshot) and an OutOfOrder event is returned instead.
// Within Synced the delta is applied, validated against checksumVal when
// precision metadata is known, and rolled back with a transition to
// Desynchronized on mismatch; otherwise it commits and an OrderbookUpdate
// event is returned.
func (ob *Orderbook) ApplyDelta(bids, asks []domain.PriceLevel, checksumVal uint32, sequence uint64) domain.Event {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if ob.syncState != domain.SyncSynced {
		return domain.NewOutOfOrderEvent(ob.symbol, sequence)
	}

	bidUndo := captureUndo(ob.bids, bids)
	askUndo := captureUndo(ob.asks, asks)
	ob.bids.ApplyDeltaBatch(bids)
	ob.asks.ApplyDeltaBatch(asks)

	if ob.precisionSet {
		local := checksum.Compute(ob.bids.TopN(ob.cfg.ChecksumDepth), ob.asks.TopN(ob.cfg.ChecksumDepth), ob.precision, ob.cfg.ChecksumDepth)
		if local != checksumVal {
			applyUndo(ob.bids, bidUndo)
			applyUndo(ob.asks, askUndo)
			ob.syncState = domain.SyncDesynchronized
			return domain.NewChecksumMismatchEvent(ob.symbol, checksumVal, local, sequence)
		}
	}

	ob.lastChecksum = checksumVal
	ob.lastSequence = sequence
	snap := ob.snapshotLocked(checksumVal, sequence)
	ob.history.Push(snap)
	return domain.NewOrderbookUpdateEvent(snap)
}

// Shutdown resets the engine to Uninitialized, clearing both sides and
// history. Called when the owning session tears the symbol down.
func (ob *Orderbook) Shutdown() {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	ob.bids.Clear()
	ob.asks.Clear()
	ob.history.Reset()
	ob.syncState = domain.SyncUninitialized
	ob.precisionSet = false
	ob.lastChecksum = 0
	ob.lastSequence = 0
}

// BestBid returns the current best bid, if any.
func (ob *Orderbook) BestBid() (domain.PriceLevel, bool) { return ob.bids.Best() }

// BestAsk returns the current best ask, if any.
func (ob *Orderbook) BestAsk() (domain.PriceLevel, bool) { return ob.asks.Best() }

// Spread returns ask - bid, or false if either side is empty.
func (ob *Orderbook) Spread() (decimal.Decimal, bool) {
	bid, ok := ob.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := ob.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	spread, err := ask.Price.Sub(bid.Price)
	if err != nil {
		return decimal.Zero, false
	}
	return spread, true
}

// MidPrice returns (bid+ask)/2 rendered via the shopspring bridge, since
// division has no exact representation in the fixed-scale decimal type.
func (ob *Orderbook) MidPrice() (decimal.Decimal, bool) {
	bid, ok := ob.BestBid()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := ob.BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	sum, err := bid.Price.Add(ask.Price)
	if err != nil {
		return decimal.Zero, false
	}
	sd := sum.ToShopspring().Div(shopspringTwo)
	mid, err := decimal.FromShopspring(sd)
	if err != nil {
		return decimal.Zero, false
	}
	return mid, true
}

// Snapshot returns a clone of the current full book state.
func (ob *Orderbook) Snapshot() domain.Snapshot {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.snapshotLocked(ob.lastChecksum, ob.lastSequence)
}

func (ob *Orderbook) snapshotLocked(checksumVal uint32, sequence uint64) domain.Snapshot {
	return domain.Snapshot{
		Symbol:   ob.symbol,
		Bids:     ob.bids.Iter(),
		Asks:     ob.asks.Iter(),
		Checksum: checksumVal,
		Sequence: sequence,
	}
}

// HistoryLen returns the number of retained history entries.
func (ob *Orderbook) HistoryLen() int {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.history.Len()
}

// HistoryAt returns the i-th retained snapshot, oldest first.
func (ob *Orderbook) HistoryAt(i int) (domain.Snapshot, bool) {
	ob.mu.RLock()
	defer ob.mu.RUnlock()
	return ob.history.At(i)
}

var shopspringTwo = decimal.MustParse("2").ToShopspring()
