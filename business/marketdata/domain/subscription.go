package domain

// Subscription is the session's persistent declaration of interest in a
// (channel, symbols, depth) tuple. Subscriptions survive reconnects: the
// session manager replays every entry in its subscription set after each
// successful (re)connect, with no caller intervention required.
type Subscription struct {
	Channel  Channel
	Symbols  map[Symbol]struct{}
	Depth    Depth
	Snapshot bool
	Private  bool
}

// NewSubscription builds a Subscription over the given symbols.
func NewSubscription(channel Channel, depth Depth, snapshot bool, symbols ...Symbol) Subscription {
	set := make(map[Symbol]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}
	return Subscription{Channel: channel, Symbols: set, Depth: depth, Snapshot: snapshot}
}

// Key identifies a subscription independent of its symbol set, used to
// merge/replace persistent intent for the same (channel, depth, private)
// tuple.
type SubscriptionKey struct {
	Channel Channel
	Depth   Depth
	Private bool
}

func (s Subscription) Key() SubscriptionKey {
	return SubscriptionKey{Channel: s.Channel, Depth: s.Depth, Private: s.Private}
}

// HasSymbol reports whether sym is part of this subscription.
func (s Subscription) HasSymbol(sym Symbol) bool {
	_, ok := s.Symbols[sym]
	return ok
}

// SymbolList returns the subscription's symbols as a slice. Order is not
// significant; callers that need deterministic ordering should sort it.
func (s Subscription) SymbolList() []Symbol {
	out := make([]Symbol, 0, len(s.Symbols))
	for sym := range s.Symbols {
		out = append(out, sym)
	}
	return out
}
