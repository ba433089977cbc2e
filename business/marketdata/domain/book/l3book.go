package book

import (
	"errors"
	"sort"
	"sync"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/internal/decimal"
)

// ErrOrderExists is returned by AddOrder when order_id is already resting.
var ErrOrderExists = errors.New("book: order already exists")

// ErrOrderNotFound is returned by ModifyOrder/RemoveOrder/QueuePosition
// when order_id is not resting in the book.
var ErrOrderNotFound = errors.New("book: order not found")

type l3Level struct {
	price  decimal.Decimal
	orders []*domain.OrderEntry // FIFO: arrival_seq ascending, by construction
}

// L3Book is an order-identified view of one side of one symbol's book:
// multiple resting orders per price, FIFO within a level by arrival_seq.
type L3Book struct {
	mu         sync.RWMutex
	side       domain.Side
	ordersByID map[string]*domain.OrderEntry
	levels     map[string]*l3Level // keyed by Price.CanonicalKey()
	nextSeq    uint64
}

// NewL3Book builds an empty L3Book for the given side.
func NewL3Book(side domain.Side) *L3Book {
	return &L3Book{
		side:       side,
		ordersByID: make(map[string]*domain.OrderEntry),
		levels:     make(map[string]*l3Level),
	}
}

// AddOrder inserts a new resting order. If entry.ArrivalSeq is zero the
// book assigns the next monotonic sequence number; a nonzero value (used
// when replaying a snapshot that already carries sequence numbers) is
// honored as-is, advancing the book's counter if it's higher.
func (b *L3Book) AddOrder(entry domain.OrderEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.ordersByID[entry.OrderID]; exists {
		return ErrOrderExists
	}

	if entry.ArrivalSeq == 0 {
		b.nextSeq++
		entry.ArrivalSeq = b.nextSeq
	} else if entry.ArrivalSeq > b.nextSeq {
		b.nextSeq = entry.ArrivalSeq
	}

	stored := entry
	key := entry.Price.CanonicalKey()
	lvl, ok := b.levels[key]
	if !ok {
		lvl = &l3Level{price: entry.Price}
		b.levels[key] = lvl
	}
	lvl.orders = append(lvl.orders, &stored)
	b.ordersByID[entry.OrderID] = &stored
	return nil
}

// ModifyOrder updates an order's quantity in place, preserving its
// ArrivalSeq (and therefore its FIFO queue position). A new quantity of
// zero is equivalent to RemoveOrder, matching the L2 convention that
// qty == 0 means "remove this level/entry".
func (b *L3Book) ModifyOrder(orderID string, newQty decimal.Decimal) (domain.OrderEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.ordersByID[orderID]
	if !ok {
		return domain.OrderEntry{}, ErrOrderNotFound
	}
	if newQty.IsZero() {
		removed := *entry
		b.removeLocked(entry)
		return removed, nil
	}
	entry.Qty = newQty
	return *entry, nil
}

// RemoveOrder deletes an order and returns its last known state.
func (b *L3Book) RemoveOrder(orderID string) (domain.OrderEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.ordersByID[orderID]
	if !ok {
		return domain.OrderEntry{}, false
	}
	removed := *entry
	b.removeLocked(entry)
	return removed, true
}

// removeLocked must be called with mu held.
func (b *L3Book) removeLocked(entry *domain.OrderEntry) {
	delete(b.ordersByID, entry.OrderID)
	key := entry.Price.CanonicalKey()
	lvl, ok := b.levels[key]
	if !ok {
		return
	}
	for i, o := range lvl.orders {
		if o.OrderID == entry.OrderID {
			lvl.orders = append(lvl.orders[:i], lvl.orders[i+1:]...)
			break
		}
	}
	if len(lvl.orders) == 0 {
		delete(b.levels, key)
	}
}

// QueuePosition reports an order's 1-based position within its price
// level's FIFO queue, the quantity resting ahead of it, and the level's
// totals. O(level_order_count).
func (b *L3Book) QueuePosition(orderID string) (domain.QueuePosition, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.ordersByID[orderID]
	if !ok {
		return domain.QueuePosition{}, false
	}
	lvl := b.levels[entry.Price.CanonicalKey()]
	if lvl == nil {
		return domain.QueuePosition{}, false
	}

	qtyAhead := decimal.Zero
	totalQty := decimal.Zero
	position := 0
	for i, o := range lvl.orders {
		totalQty, _ = totalQty.Add(o.Qty)
		if o.OrderID == orderID {
			position = i + 1
			continue
		}
		if position == 0 {
			qtyAhead, _ = qtyAhead.Add(o.Qty)
		}
	}

	return domain.QueuePosition{
		Position:    position,
		TotalOrders: len(lvl.orders),
		QtyAhead:    qtyAhead,
		TotalQty:    totalQty,
	}, true
}

// Aggregated collapses the L3 book into an L2 view: one PriceLevel per
// price, qty summed across all resting orders, best-first.
func (b *L3Book) Aggregated() []domain.PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.PriceLevel, 0, len(b.levels))
	for _, lvl := range b.levels {
		sum := decimal.Zero
		for _, o := range lvl.orders {
			sum, _ = sum.Add(o.Qty)
		}
		out = append(out, domain.PriceLevel{Price: lvl.price, Qty: sum})
	}
	if b.side == domain.SideBid {
		sort.Slice(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	}
	return out
}

// Best returns the best level's aggregated price/qty.
func (b *L3Book) Best() (domain.PriceLevel, bool) {
	agg := b.Aggregated()
	if len(agg) == 0 {
		return domain.PriceLevel{}, false
	}
	return agg[0], true
}

// TopN returns up to n aggregated levels, best first.
func (b *L3Book) TopN(n int) []domain.PriceLevel {
	agg := b.Aggregated()
	if n > len(agg) {
		n = len(agg)
	}
	return agg[:n]
}

// Size returns the number of distinct price levels.
func (b *L3Book) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.levels)
}

// Clear empties the book.
func (b *L3Book) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ordersByID = make(map[string]*domain.OrderEntry)
	b.levels = make(map[string]*l3Level)
}
