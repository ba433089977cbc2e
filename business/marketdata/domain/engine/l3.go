package engine

import (
	"errors"
	"sync"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/domain/book"
)

// ErrL3OutOfOrder is returned by Apply when an event's sequence number does
// not strictly increase over the last one seen for this engine.
var ErrL3OutOfOrder = errors.New("engine: l3 event sequence out of order")

// L3EventKind distinguishes the three order-book mutations carried by a
// wire-level L3Event (add/modify/delete), kept separate from domain.EventKind
// since it describes an inbound instruction rather than an outbound event.
type L3EventKind int

const (
	L3Add L3EventKind = iota
	L3Modify
	L3Delete
)

// L3Engine is the order-identified counterpart to Orderbook: it owns a
// bid/ask L3Book pair and enforces sequence monotonicity per symbol. The
// wire protocol carries no snapshot message for this channel; the first
// run of Add events for currently-resting orders serves as the bootstrap.
type L3Engine struct {
	mu           sync.RWMutex
	symbol       domain.Symbol
	bids         *book.L3Book
	asks         *book.L3Book
	lastSequence uint64
	haveSequence bool
}

// NewL3Engine builds an empty L3Engine for symbol.
func NewL3Engine(symbol domain.Symbol) *L3Engine {
	return &L3Engine{
		symbol: symbol,
		bids:   book.NewL3Book(domain.SideBid),
		asks:   book.NewL3Book(domain.SideAsk),
	}
}

// Apply routes one inbound L3 instruction to the appropriate side's book.
// Returns the underlying book's sentinel errors (book.ErrOrderExists on a
// duplicate Add, book.ErrOrderNotFound on a missing Modify/Delete)
// unchanged; sequence gaps
// are tolerated (the feed does not guarantee contiguous L3 sequences) but
// strictly non-increasing sequences are rejected as out-of-order.
func (e *L3Engine) Apply(kind L3EventKind, side domain.Side, entry domain.OrderEntry, sequence uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.haveSequence && sequence <= e.lastSequence {
		return ErrL3OutOfOrder
	}
	e.lastSequence = sequence
	e.haveSequence = true

	b := e.bookFor(side)
	switch kind {
	case L3Add:
		return b.AddOrder(entry)
	case L3Modify:
		_, err := b.ModifyOrder(entry.OrderID, entry.Qty)
		return err
	case L3Delete:
		_, ok := b.RemoveOrder(entry.OrderID)
		if !ok {
			return book.ErrOrderNotFound
		}
		return nil
	default:
		return nil
	}
}

func (e *L3Engine) bookFor(side domain.Side) *book.L3Book {
	if side == domain.SideBid {
		return e.bids
	}
	return e.asks
}

// QueuePosition reports an order's queue position on the given side.
func (e *L3Engine) QueuePosition(side domain.Side, orderID string) (domain.QueuePosition, bool) {
	return e.bookFor(side).QueuePosition(orderID)
}

// AggregatedBids/AggregatedAsks collapse each side to its L2 view.
func (e *L3Engine) AggregatedBids() []domain.PriceLevel { return e.bids.Aggregated() }
func (e *L3Engine) AggregatedAsks() []domain.PriceLevel { return e.asks.Aggregated() }

// Shutdown clears both sides and resets sequence tracking.
func (e *L3Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bids.Clear()
	e.asks.Clear()
	e.lastSequence = 0
	e.haveSequence = false
}
