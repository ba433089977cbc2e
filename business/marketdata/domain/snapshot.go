package domain

// Snapshot is an immutable value produced by cloning an orderbook's
// current state: used both as a history-ring entry and as the payload of
// outgoing OrderbookSnapshot/OrderbookUpdate events.
type Snapshot struct {
	Symbol   Symbol
	Bids     []PriceLevel
	Asks     []PriceLevel
	Checksum uint32
	Sequence uint64
}

// BestBid returns the highest bid, if any.
func (s Snapshot) BestBid() (PriceLevel, bool) {
	if len(s.Bids) == 0 {
		return PriceLevel{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask, if any.
func (s Snapshot) BestAsk() (PriceLevel, bool) {
	if len(s.Asks) == 0 {
		return PriceLevel{}, false
	}
	return s.Asks[0], true
}

// clone deep-copies the level slices so a Snapshot handed out to a caller
// or stored in the history ring can never be mutated by the writer.
func (s Snapshot) clone() Snapshot {
	bids := make([]PriceLevel, len(s.Bids))
	copy(bids, s.Bids)
	asks := make([]PriceLevel, len(s.Asks))
	copy(asks, s.Asks)
	return Snapshot{
		Symbol:   s.Symbol,
		Bids:     bids,
		Asks:     asks,
		Checksum: s.Checksum,
		Sequence: s.Sequence,
	}
}

// Clone returns an independent deep copy of s.
func (s Snapshot) Clone() Snapshot { return s.clone() }
