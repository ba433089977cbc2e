package book_test

import (
	"testing"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/domain/book"
	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestL3QueuePositionPreservedAfterModify(t *testing.T) {
	// S6: A (1.0), B (2.0), C (0.5) at the same price, in that order.
	b := book.NewL3Book(domain.SideBid)
	price := decimal.MustParse("50000")

	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "A", Price: price, Qty: decimal.MustParse("1.0")}))
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "B", Price: price, Qty: decimal.MustParse("2.0")}))
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "C", Price: price, Qty: decimal.MustParse("0.5")}))

	pos, ok := b.QueuePosition("B")
	require.True(t, ok)
	assert.Equal(t, 2, pos.Position)
	assert.True(t, pos.QtyAhead.Equal(decimal.MustParse("1.0")))

	_, err := b.ModifyOrder("A", decimal.MustParse("3.0"))
	require.NoError(t, err)

	pos, ok = b.QueuePosition("B")
	require.True(t, ok)
	assert.Equal(t, 2, pos.Position, "position must be preserved across a qty modify")
	assert.True(t, pos.QtyAhead.Equal(decimal.MustParse("3.0")))
}

func TestL3AddOrderDuplicateRejected(t *testing.T) {
	b := book.NewL3Book(domain.SideAsk)
	price := decimal.MustParse("100")
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "A", Price: price, Qty: decimal.MustParse("1")}))
	err := b.AddOrder(domain.OrderEntry{OrderID: "A", Price: price, Qty: decimal.MustParse("1")})
	assert.ErrorIs(t, err, book.ErrOrderExists)
}

func TestL3ModifyToZeroRemoves(t *testing.T) {
	b := book.NewL3Book(domain.SideBid)
	price := decimal.MustParse("100")
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "A", Price: price, Qty: decimal.MustParse("1")}))

	_, err := b.ModifyOrder("A", decimal.Zero)
	require.NoError(t, err)

	_, ok := b.QueuePosition("A")
	assert.False(t, ok)
	assert.Equal(t, 0, b.Size())
}

func TestL3RemoveOrder(t *testing.T) {
	b := book.NewL3Book(domain.SideBid)
	price := decimal.MustParse("100")
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "A", Price: price, Qty: decimal.MustParse("1")}))

	removed, ok := b.RemoveOrder("A")
	require.True(t, ok)
	assert.Equal(t, "A", removed.OrderID)

	_, ok = b.RemoveOrder("A")
	assert.False(t, ok)
}

func TestL3Aggregated(t *testing.T) {
	b := book.NewL3Book(domain.SideBid)
	price := decimal.MustParse("100")
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "A", Price: price, Qty: decimal.MustParse("1")}))
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "B", Price: price, Qty: decimal.MustParse("2")}))
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "C", Price: decimal.MustParse("101"), Qty: decimal.MustParse("5")}))

	agg := b.Aggregated()
	require.Len(t, agg, 2)
	assert.True(t, agg[0].Price.Equal(decimal.MustParse("101")))
	assert.True(t, agg[1].Qty.Equal(decimal.MustParse("3")))
}

func TestL3SamePriceDifferentScaleSharesOneLevel(t *testing.T) {
	b := book.NewL3Book(domain.SideBid)
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "A", Price: decimal.MustParse("88000.50"), Qty: decimal.MustParse("1")}))
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "B", Price: decimal.MustParse("88000.5"), Qty: decimal.MustParse("2")}))

	assert.Equal(t, 1, b.Size())

	pos, ok := b.QueuePosition("B")
	require.True(t, ok)
	assert.Equal(t, 2, pos.Position)
	assert.True(t, pos.QtyAhead.Equal(decimal.MustParse("1")))
}

func TestL3ArrivalSeqAutoAssignedAndMonotonic(t *testing.T) {
	b := book.NewL3Book(domain.SideBid)
	price := decimal.MustParse("100")
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "A", Price: price, Qty: decimal.MustParse("1")}))
	require.NoError(t, b.AddOrder(domain.OrderEntry{OrderID: "B", Price: price, Qty: decimal.MustParse("1")}))

	posA, _ := b.QueuePosition("A")
	posB, _ := b.QueuePosition("B")
	assert.Less(t, posA.Position, posB.Position)
}
