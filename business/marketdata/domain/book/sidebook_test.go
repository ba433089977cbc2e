package book_test

import (
	"testing"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/domain/book"
	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideBookSetAndBestBidDescending(t *testing.T) {
	b := book.NewSideBook(domain.SideBid)
	b.Set(decimal.MustParse("100"), decimal.MustParse("1"))
	b.Set(decimal.MustParse("101"), decimal.MustParse("2"))
	b.Set(decimal.MustParse("99"), decimal.MustParse("3"))

	best, ok := b.Best()
	require.True(t, ok)
	assert.True(t, best.Price.Equal(decimal.MustParse("101")))
}

func TestSideBookAskAscending(t *testing.T) {
	b := book.NewSideBook(domain.SideAsk)
	b.Set(decimal.MustParse("101"), decimal.MustParse("1"))
	b.Set(decimal.MustParse("100"), decimal.MustParse("2"))

	best, ok := b.Best()
	require.True(t, ok)
	assert.True(t, best.Price.Equal(decimal.MustParse("100")))
}

func TestSideBookZeroQtyRemoves(t *testing.T) {
	b := book.NewSideBook(domain.SideBid)
	b.Set(decimal.MustParse("100"), decimal.MustParse("1"))
	assert.Equal(t, 1, b.Size())

	b.Set(decimal.MustParse("100"), decimal.Zero)
	assert.Equal(t, 0, b.Size())
	_, ok := b.Best()
	assert.False(t, ok)
}

func TestSideBookTopNAndIter(t *testing.T) {
	b := book.NewSideBook(domain.SideBid)
	for _, p := range []string{"100", "102", "101", "99"} {
		b.Set(decimal.MustParse(p), decimal.MustParse("1"))
	}
	top2 := b.TopN(2)
	require.Len(t, top2, 2)
	assert.True(t, top2[0].Price.Equal(decimal.MustParse("102")))
	assert.True(t, top2[1].Price.Equal(decimal.MustParse("101")))

	all := b.Iter()
	assert.Len(t, all, 4)
}

func TestSideBookApplyDeltaBatch(t *testing.T) {
	b := book.NewSideBook(domain.SideBid)
	b.ApplyDeltaBatch([]domain.PriceLevel{
		{Price: decimal.MustParse("100"), Qty: decimal.MustParse("1")},
		{Price: decimal.MustParse("101"), Qty: decimal.MustParse("2")},
	})
	assert.Equal(t, 2, b.Size())

	b.ApplyDeltaBatch([]domain.PriceLevel{
		{Price: decimal.MustParse("100"), Qty: decimal.Zero},
	})
	assert.Equal(t, 1, b.Size())
}

func TestSideBookSetReplacesSamePriceAcrossDifferentScale(t *testing.T) {
	b := book.NewSideBook(domain.SideBid)
	b.Set(decimal.MustParse("88000.50"), decimal.MustParse("1"))
	b.Set(decimal.MustParse("88000.5"), decimal.MustParse("2"))

	assert.Equal(t, 1, b.Size())
	best, ok := b.Best()
	require.True(t, ok)
	assert.True(t, best.Qty.Equal(decimal.MustParse("2")))
}

func TestSideBookClear(t *testing.T) {
	b := book.NewSideBook(domain.SideBid)
	b.Set(decimal.MustParse("100"), decimal.MustParse("1"))
	b.Clear()
	assert.Equal(t, 0, b.Size())
}
