// Package book implements the per-side storage layer for a symbol's
// orderbook: an L2 price-aggregated SideBook and an L3 order-identified
// L3Book, grounded on this repo's map-keyed-by-price orderbook cache
// pattern (business/pricing/infra/binance's applyOrderbookUpdates), but
// backed by a lazily-rebuilt sorted cache so repeated reads between
// writes are O(1) rather than re-sorting the map on every call.
package book

import (
	"sort"
	"sync"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/internal/decimal"
)

// SideBook is an ordered price->quantity map for one side of one symbol's
// book: descending for bids, ascending for asks. Safe for concurrent
// readers against the single writer the session manager guarantees.
type SideBook struct {
	mu      sync.RWMutex
	side    domain.Side
	entries map[string]domain.PriceLevel // keyed by Price.CanonicalKey()
	sorted  []domain.PriceLevel          // cache, valid when !dirty
	dirty   bool
}

// NewSideBook builds an empty SideBook for the given side.
func NewSideBook(side domain.Side) *SideBook {
	return &SideBook{side: side, entries: make(map[string]domain.PriceLevel)}
}

// Set inserts or replaces the level at price. qty == 0 removes it.
func (b *SideBook) Set(price, qty decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setLocked(price, qty)
}

func (b *SideBook) setLocked(price, qty decimal.Decimal) {
	key := price.CanonicalKey()
	if qty.IsZero() {
		delete(b.entries, key)
	} else {
		b.entries[key] = domain.PriceLevel{Price: price, Qty: qty}
	}
	b.dirty = true
}

// ApplyDeltaBatch applies every (price, qty) pair as a single atomic
// update: from a reader's perspective (guarded by mu) the batch either
// has not started or has fully landed.
func (b *SideBook) ApplyDeltaBatch(levels []domain.PriceLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, lvl := range levels {
		b.setLocked(lvl.Price, lvl.Qty)
	}
}

// Best returns the best (top-of-book) level for this side.
func (b *SideBook) Best() (domain.PriceLevel, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureSortedLocked()
	if len(b.sorted) == 0 {
		return domain.PriceLevel{}, false
	}
	return b.sorted[0], true
}

// TopN returns up to n best levels, best first.
func (b *SideBook) TopN(n int) []domain.PriceLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureSortedLocked()
	if n > len(b.sorted) {
		n = len(b.sorted)
	}
	out := make([]domain.PriceLevel, n)
	copy(out, b.sorted[:n])
	return out
}

// Iter returns every level, best first.
func (b *SideBook) Iter() []domain.PriceLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureSortedLocked()
	out := make([]domain.PriceLevel, len(b.sorted))
	copy(out, b.sorted)
	return out
}

// Peek returns the current level at price without affecting the sorted
// cache, used by callers that need to stage an undo before a batch apply.
func (b *SideBook) Peek(price decimal.Decimal) (domain.PriceLevel, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	lvl, ok := b.entries[price.CanonicalKey()]
	return lvl, ok
}

// Clear empties the book.
func (b *SideBook) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make(map[string]domain.PriceLevel)
	b.sorted = nil
	b.dirty = false
}

// Size returns the number of distinct price levels.
func (b *SideBook) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *SideBook) ensureSortedLocked() {
	if !b.dirty && b.sorted != nil {
		return
	}
	sorted := make([]domain.PriceLevel, 0, len(b.entries))
	for _, lvl := range b.entries {
		sorted = append(sorted, lvl)
	}
	if b.side == domain.SideBid {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price.GreaterThan(sorted[j].Price) })
	} else {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Price.LessThan(sorted[j].Price) })
	}
	b.sorted = sorted
	b.dirty = false
}
