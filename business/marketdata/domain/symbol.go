// Package domain contains the core types of the market-data engine: the
// venue-facing vocabulary (symbols, sides, channels), the book value types
// (price levels, order entries, snapshots), and the connection/sync state
// machines that the session manager and orderbook engine drive.
package domain

// Symbol is an opaque venue-canonical instrument identifier, e.g.
// "BTC/USD". Equality is byte-identical; this package never normalises it.
type Symbol string

// Side is a side of the book.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "bid"
	case SideAsk:
		return "ask"
	default:
		return "unknown"
	}
}

// Channel is a subscribable venue data stream.
type Channel string

const (
	ChannelBook       Channel = "book"
	ChannelL3         Channel = "l3"
	ChannelTicker     Channel = "ticker"
	ChannelTrade      Channel = "trade"
	ChannelOhlc       Channel = "ohlc"
	ChannelInstrument Channel = "instrument"
	ChannelHeartbeat  Channel = "heartbeat"
	ChannelExecutions Channel = "executions"
	ChannelBalances   Channel = "balances"
)

// Depth is a venue-quantized book depth tag.
type Depth int

const (
	Depth10   Depth = 10
	Depth25   Depth = 25
	Depth100  Depth = 100
	Depth500  Depth = 500
	Depth1000 Depth = 1000
)

// ValidDepth reports whether d is one of the venue-supported depth tags.
func ValidDepth(d Depth) bool {
	switch d {
	case Depth10, Depth25, Depth100, Depth500, Depth1000:
		return true
	default:
		return false
	}
}

// Precision is the venue-declared number of decimal places for price and
// quantity of a given instrument, installed by instrument metadata.
type Precision struct {
	PriceScale int32
	QtyScale   int32
}
