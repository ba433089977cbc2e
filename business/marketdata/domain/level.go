package domain

import "github.com/fd1az/marketfeed/internal/decimal"

// PriceLevel is an L2 price/quantity pair. Qty is always > 0 when stored;
// a delta carrying Qty == 0 is the caller's instruction to remove the
// level, never a stored value.
type PriceLevel struct {
	Price decimal.Decimal
	Qty   decimal.Decimal
}

// OrderEntry is an L3 order resting at a price. ArrivalSeq is assigned
// once, at insertion, and preserved across Modify so FIFO queue position
// survives quantity changes.
type OrderEntry struct {
	OrderID    string
	Price      decimal.Decimal
	Qty        decimal.Decimal
	ArrivalSeq uint64
}

// QueuePosition describes an order's standing within its price level.
type QueuePosition struct {
	Position    int // 1-based: 1 means first in the FIFO queue
	TotalOrders int
	QtyAhead    decimal.Decimal
	TotalQty    decimal.Decimal
}
