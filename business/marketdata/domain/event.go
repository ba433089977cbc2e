package domain

import (
	"time"

	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/fd1az/marketfeed/internal/marketerr"
)

// EventKind closes the Event sum: every value on the event bus carries
// exactly one of these, never runtime polymorphism over an interface.
type EventKind string

const (
	// Market data
	EventOrderbookSnapshot EventKind = "orderbook_snapshot"
	EventOrderbookUpdate   EventKind = "orderbook_update"
	EventChecksumMismatch  EventKind = "checksum_mismatch"
	EventHeartbeat         EventKind = "heartbeat"
	EventStatus            EventKind = "status"
	EventTrade             EventKind = "trade"
	EventTicker            EventKind = "ticker"
	EventOhlc              EventKind = "ohlc"

	// Connection lifecycle
	EventConnected             EventKind = "connected"
	EventDisconnected          EventKind = "disconnected"
	EventReconnecting          EventKind = "reconnecting"
	EventReconnectFailed       EventKind = "reconnect_failed"
	EventSubscriptionsRestored EventKind = "subscriptions_restored"
	EventStateRestored         EventKind = "state_restored"

	// Subscription lifecycle
	EventSubscribed        EventKind = "subscribed"
	EventUnsubscribed      EventKind = "unsubscribed"
	EventSubscriptionError EventKind = "subscription_error"

	// Private (account) channels
	EventExecution    EventKind = "execution"
	EventBalanceUpdate EventKind = "balance_update"

	// Backpressure accounting
	EventBufferOverflow EventKind = "buffer_overflow"

	// Sequencing
	EventOutOfOrder EventKind = "out_of_order"

	// Protocol-level failures not tied to any single subscription
	EventParseError EventKind = "parse_error"
	EventVenueError EventKind = "venue_error"
)

// OutOfOrderPayload is carried by an EventOutOfOrder event, emitted when a
// delta arrives for a book that has not yet received its snapshot.
type OutOfOrderPayload struct {
	Sequence uint64
}

// ChecksumMismatchPayload is carried by an EventChecksumMismatch event.
type ChecksumMismatchPayload struct {
	Expected uint32
	Computed uint32
	Sequence uint64
}

// ConnectedPayload is carried by an EventConnected event.
type ConnectedPayload struct {
	APIVersion   string
	ConnectionID string
}

// ReconnectingPayload is carried by an EventReconnecting event.
type ReconnectingPayload struct {
	Attempt int
	Delay   time.Duration
}

// SubscriptionsRestoredPayload is carried by an EventSubscriptionsRestored
// event, emitted once after every persistent subscription has received its
// ack following a reconnect.
type SubscriptionsRestoredPayload struct {
	Count int
}

// SubscriptionPayload is carried by EventSubscribed/EventUnsubscribed/
// EventSubscriptionError events.
type SubscriptionPayload struct {
	Channel Channel
	Symbols []Symbol
}

// StatusPayload is carried by an EventStatus event.
type StatusPayload struct {
	SystemStatus string
	Version      string
}

// TradePayload is carried by an EventTrade event.
type TradePayload struct {
	Price     decimal.Decimal
	Qty       decimal.Decimal
	Side      Side
	Timestamp string // preserved verbatim, ISO-8601, per §4.5
}

// TickerPayload is carried by an EventTicker event.
type TickerPayload struct {
	Bid       decimal.Decimal
	Ask       decimal.Decimal
	Last      decimal.Decimal
	Timestamp string
}

// OhlcPayload is carried by an EventOhlc event.
type OhlcPayload struct {
	Open, High, Low, Close decimal.Decimal
	Volume                 decimal.Decimal
	IntervalStart          string
}

// ExecutionPayload is carried by an EventExecution private event.
type ExecutionPayload struct {
	OrderID   string
	Price     decimal.Decimal
	Qty       decimal.Decimal
	Side      Side
	Timestamp string
}

// BalanceUpdatePayload is carried by an EventBalanceUpdate private event.
type BalanceUpdatePayload struct {
	Asset     string
	Available decimal.Decimal
	Total     decimal.Decimal
}

// BufferOverflowPayload is carried by an EventBufferOverflow event.
type BufferOverflowPayload struct {
	DroppedCount uint64
}

// Event is the single closed sum type that rides the event bus. Exactly
// one payload field is populated, matching Kind; callers switch on Kind,
// never on the dynamic type of an interface.
type Event struct {
	Kind      EventKind
	Symbol    Symbol // empty for connection-level events
	Timestamp time.Time

	Snapshot               *Snapshot
	ChecksumMismatch       *ChecksumMismatchPayload
	Connected              *ConnectedPayload
	Reconnecting           *ReconnectingPayload
	SubscriptionsRestored  *SubscriptionsRestoredPayload
	Subscription           *SubscriptionPayload
	Status                 *StatusPayload
	Trade                  *TradePayload
	Ticker                 *TickerPayload
	Ohlc                   *OhlcPayload
	Execution              *ExecutionPayload
	BalanceUpdate          *BalanceUpdatePayload
	BufferOverflow         *BufferOverflowPayload
	OutOfOrder             *OutOfOrderPayload

	// Err carries the classified failure for error-bearing kinds
	// (ChecksumMismatch also sets ChecksumMismatch; SubscriptionError,
	// Disconnected, ReconnectFailed set only Err).
	Err *marketerr.Error
}

func newEvent(kind EventKind, symbol Symbol) Event {
	return Event{Kind: kind, Symbol: symbol, Timestamp: time.Now()}
}

// NewOrderbookSnapshotEvent builds an EventOrderbookSnapshot.
func NewOrderbookSnapshotEvent(snap Snapshot) Event {
	e := newEvent(EventOrderbookSnapshot, snap.Symbol)
	clone := snap.Clone()
	e.Snapshot = &clone
	return e
}

// NewOrderbookUpdateEvent builds an EventOrderbookUpdate.
func NewOrderbookUpdateEvent(snap Snapshot) Event {
	e := newEvent(EventOrderbookUpdate, snap.Symbol)
	clone := snap.Clone()
	e.Snapshot = &clone
	return e
}

// NewChecksumMismatchEvent builds an EventChecksumMismatch.
func NewChecksumMismatchEvent(symbol Symbol, expected, computed uint32, sequence uint64) Event {
	e := newEvent(EventChecksumMismatch, symbol)
	e.ChecksumMismatch = &ChecksumMismatchPayload{Expected: expected, Computed: computed, Sequence: sequence}
	e.Err = marketerr.New(marketerr.ChecksumMismatch, marketerr.WithSymbol(string(symbol)))
	return e
}

// NewStateRestoredEvent builds an EventStateRestored, emitted after a
// Desynchronized book receives a fresh snapshot.
func NewStateRestoredEvent(symbol Symbol) Event {
	return newEvent(EventStateRestored, symbol)
}

// NewConnectedEvent builds an EventConnected.
func NewConnectedEvent(apiVersion, connectionID string) Event {
	e := newEvent(EventConnected, "")
	e.Connected = &ConnectedPayload{APIVersion: apiVersion, ConnectionID: connectionID}
	return e
}

// NewDisconnectedEvent builds an EventDisconnected carrying the classified cause.
func NewDisconnectedEvent(cause *marketerr.Error) Event {
	e := newEvent(EventDisconnected, "")
	e.Err = cause
	return e
}

// NewReconnectingEvent builds an EventReconnecting.
func NewReconnectingEvent(attempt int, delay time.Duration) Event {
	e := newEvent(EventReconnecting, "")
	e.Reconnecting = &ReconnectingPayload{Attempt: attempt, Delay: delay}
	return e
}

// NewReconnectFailedEvent builds an EventReconnectFailed.
func NewReconnectFailedEvent(cause *marketerr.Error) Event {
	e := newEvent(EventReconnectFailed, "")
	e.Err = cause
	return e
}

// NewSubscriptionsRestoredEvent builds an EventSubscriptionsRestored.
func NewSubscriptionsRestoredEvent(count int) Event {
	e := newEvent(EventSubscriptionsRestored, "")
	e.SubscriptionsRestored = &SubscriptionsRestoredPayload{Count: count}
	return e
}

// NewSubscribedEvent builds an EventSubscribed.
func NewSubscribedEvent(channel Channel, symbols []Symbol) Event {
	e := newEvent(EventSubscribed, "")
	e.Subscription = &SubscriptionPayload{Channel: channel, Symbols: symbols}
	return e
}

// NewUnsubscribedEvent builds an EventUnsubscribed.
func NewUnsubscribedEvent(channel Channel, symbols []Symbol) Event {
	e := newEvent(EventUnsubscribed, "")
	e.Subscription = &SubscriptionPayload{Channel: channel, Symbols: symbols}
	return e
}

// NewSubscriptionErrorEvent builds an EventSubscriptionError.
func NewSubscriptionErrorEvent(channel Channel, symbols []Symbol, cause *marketerr.Error) Event {
	e := newEvent(EventSubscriptionError, "")
	e.Subscription = &SubscriptionPayload{Channel: channel, Symbols: symbols}
	e.Err = cause
	return e
}

// NewHeartbeatEvent builds an EventHeartbeat.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, "")
}

// NewStatusEvent builds an EventStatus.
func NewStatusEvent(systemStatus, version string) Event {
	e := newEvent(EventStatus, "")
	e.Status = &StatusPayload{SystemStatus: systemStatus, Version: version}
	return e
}

// NewBufferOverflowEvent builds an EventBufferOverflow.
func NewBufferOverflowEvent(droppedCount uint64) Event {
	e := newEvent(EventBufferOverflow, "")
	e.BufferOverflow = &BufferOverflowPayload{DroppedCount: droppedCount}
	return e
}

// NewOutOfOrderEvent builds an EventOutOfOrder, emitted when a delta is
// discarded because it arrived before the book had a snapshot installed.
func NewOutOfOrderEvent(symbol Symbol, sequence uint64) Event {
	e := newEvent(EventOutOfOrder, symbol)
	e.OutOfOrder = &OutOfOrderPayload{Sequence: sequence}
	e.Err = marketerr.New(marketerr.OutOfOrder, marketerr.WithSymbol(string(symbol)))
	return e
}

// NewParseErrorEvent builds an EventParseError for a frame that could not
// be decoded at all; the frame is dropped and the session continues.
func NewParseErrorEvent(cause *marketerr.Error) Event {
	e := newEvent(EventParseError, "")
	e.Err = cause
	return e
}

// NewVenueErrorEvent builds an EventVenueError for a venue-originated error
// frame that isn't correlated to a pending subscription ack.
func NewVenueErrorEvent(cause *marketerr.Error) Event {
	e := newEvent(EventVenueError, "")
	e.Err = cause
	return e
}
