// Package checksum computes the deterministic CRC32 fingerprint a venue
// expects over the top-N levels of each side of a book, the same
// topLevels-then-join-then-CRC32 shape used by this repo's reference
// book-assembler implementations, adapted to strip the decimal point
// entirely (an integer-coefficient encoding) rather than merely trimming
// trailing zeros, per this engine's venue's wire format.
package checksum

import (
	"hash/crc32"
	"strings"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
)

// DefaultDepth is the canonical top-N depth this venue's checksum is
// computed over.
const DefaultDepth = 10

// Compute returns the CRC32 checksum over the top `depth` bids and asks,
// bids first then asks, each level rendered as price-then-quantity with
// the venue's declared precision applied and all insignificant zeros and
// the decimal point stripped. Order within a level's pair and across
// sides is fixed: bids descending (best first), asks ascending (best
// first), matching how SideBook already orders top_n.
func Compute(bids, asks []domain.PriceLevel, precision domain.Precision, depth int) uint32 {
	if depth <= 0 {
		depth = DefaultDepth
	}
	parts := make([]string, 0, 2*depth*2)

	appendLevels := func(levels []domain.PriceLevel) {
		n := depth
		if len(levels) < n {
			n = len(levels)
		}
		for i := 0; i < n; i++ {
			parts = append(parts, levels[i].Price.StrippedDigits(precision.PriceScale))
			parts = append(parts, levels[i].Qty.StrippedDigits(precision.QtyScale))
		}
	}

	appendLevels(bids)
	appendLevels(asks)

	data := strings.Join(parts, ":")
	return crc32.ChecksumIEEE([]byte(data))
}
