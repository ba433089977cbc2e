// Package codec parses the venue's inbound text-JSON frames into tagged
// messages and builds outbound subscribe/order frames, grounded on this
// repo's business/pricing/infra/binance message-struct conventions
// (json-tagged wire types plus small Parse* helpers), generalized from
// Binance's numeric-string fields to a scale that may arrive as either a
// JSON number or a quoted string, including scientific notation.
package codec

import (
	"github.com/fd1az/marketfeed/internal/decimal"
)

// WireDecimal decodes a JSON number or string into an exact decimal,
// preserving scientific notation and full precision (never routed
// through float64).
type WireDecimal struct {
	decimal.Decimal
}

// UnmarshalJSON accepts either a bare JSON number (88000.5) or a quoted
// string ("1.5e-8"); both are handed to decimal.Parse unchanged.
func (w *WireDecimal) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.Parse(s)
	if err != nil {
		return err
	}
	w.Decimal = d
	return nil
}

// MarshalJSON renders as a bare JSON number using the canonical decimal
// string, used for outbound order price/qty fields.
func (w WireDecimal) MarshalJSON() ([]byte, error) {
	return []byte(w.Decimal.String()), nil
}

// WireLevel is one {price, qty} pair as carried in a book snapshot/update.
type WireLevel struct {
	Price WireDecimal `json:"price"`
	Qty   WireDecimal `json:"qty"`
}

// BookData is one symbol's entry within a snapshot or update message's
// "data" array.
type BookData struct {
	Symbol    string      `json:"symbol"`
	Bids      []WireLevel `json:"bids"`
	Asks      []WireLevel `json:"asks"`
	Checksum  uint32      `json:"checksum"`
	Sequence  uint64      `json:"sequence,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// SnapshotMessage is a full-replacement book image for one or more symbols.
type SnapshotMessage struct {
	Entries []BookData
}

// UpdateMessage is an incremental book change for one or more symbols.
type UpdateMessage struct {
	Entries []BookData
}

// L3EventKind is the wire-level kind discriminator for an L3Event.
type L3EventKind string

const (
	L3EventAdd    L3EventKind = "add"
	L3EventModify L3EventKind = "modify"
	L3EventDelete L3EventKind = "delete"
)

// L3EventMessage is one order-identified book mutation.
type L3EventMessage struct {
	Symbol   string
	Kind     L3EventKind
	OrderID  string
	Side     string
	Price    *WireDecimal
	Qty      *WireDecimal
	Sequence uint64
}

// HeartbeatMessage carries no data; its presence is the signal.
type HeartbeatMessage struct{}

// StatusMessage reports venue-wide system status.
type StatusMessage struct {
	SystemStatus string
	Version      string
}

// InstrumentMessage carries per-symbol decimal precision metadata.
type InstrumentMessage struct {
	Symbol     string
	PriceScale int32
	QtyScale   int32
}

// SubscriptionAck acknowledges (or rejects) a subscribe/unsubscribe request.
type SubscriptionAck struct {
	Channel string
	Symbols []string
	ReqID   int64
	OK      bool
	Error   string
}

// ErrorMessage is a venue-reported error not tied to a specific ack.
type ErrorMessage struct {
	Code          string
	Reason        string
	CorrelationID string
}

// Kind discriminates the inbound Message tagged sum.
type Kind int

const (
	KindSnapshot Kind = iota
	KindUpdate
	KindL3Event
	KindHeartbeat
	KindStatus
	KindInstrument
	KindSubscriptionAck
	KindError
)

// Message is the closed tagged sum returned by Decode: exactly one
// pointer field is populated, matching Kind.
type Message struct {
	Kind Kind

	Snapshot   *SnapshotMessage
	Update     *UpdateMessage
	L3Event    *L3EventMessage
	Heartbeat  *HeartbeatMessage
	Status     *StatusMessage
	Instrument *InstrumentMessage
	Ack        *SubscriptionAck
	Err        *ErrorMessage
}
