package codec

import (
	"encoding/json"
	"fmt"
)

// frame is the superset of every field any inbound message might carry.
// Channel/Type/Data route a "book" message (snapshot or update, one entry
// per symbol); the rest are flat fields used by the single-object control
// and L3 messages, which carry no symbol-keyed data array.
type frame struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`

	// l3
	Symbol   string       `json:"symbol,omitempty"`
	Kind     string       `json:"kind,omitempty"`
	OrderID  string       `json:"order_id,omitempty"`
	Side     string       `json:"side,omitempty"`
	Price    *WireDecimal `json:"price,omitempty"`
	Qty      *WireDecimal `json:"qty,omitempty"`
	Sequence uint64       `json:"sequence,omitempty"`

	// status
	SystemStatus string `json:"system_status,omitempty"`
	Version      string `json:"version,omitempty"`

	// instrument
	PricePrecision int32 `json:"price_precision,omitempty"`
	QtyPrecision   int32 `json:"qty_precision,omitempty"`

	// subscriptionAck
	Symbols []string `json:"symbols,omitempty"`
	ReqID   int64    `json:"req_id,omitempty"`
	OK      *bool    `json:"ok,omitempty"`
	Error   string   `json:"error,omitempty"`

	// error
	Code          string `json:"code,omitempty"`
	Reason        string `json:"reason,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Decode parses one inbound text frame into the closed Message sum. An
// error here is always a malformed/incompatible frame (ParseError in the
// caller's taxonomy); Decode itself makes no classification decisions.
func Decode(raw []byte) (Message, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Message{}, fmt.Errorf("codec: invalid frame: %w", err)
	}

	switch f.Channel {
	case "book":
		var entries []BookData
		if len(f.Data) > 0 {
			if err := json.Unmarshal(f.Data, &entries); err != nil {
				return Message{}, fmt.Errorf("codec: invalid book data: %w", err)
			}
		}
		switch f.Type {
		case "snapshot":
			return Message{Kind: KindSnapshot, Snapshot: &SnapshotMessage{Entries: entries}}, nil
		case "update":
			return Message{Kind: KindUpdate, Update: &UpdateMessage{Entries: entries}}, nil
		default:
			return Message{}, fmt.Errorf("codec: unknown book message type %q", f.Type)
		}

	case "l3":
		return Message{Kind: KindL3Event, L3Event: &L3EventMessage{
			Symbol:   f.Symbol,
			Kind:     L3EventKind(f.Kind),
			OrderID:  f.OrderID,
			Side:     f.Side,
			Price:    f.Price,
			Qty:      f.Qty,
			Sequence: f.Sequence,
		}}, nil

	case "heartbeat":
		return Message{Kind: KindHeartbeat, Heartbeat: &HeartbeatMessage{}}, nil

	case "status":
		return Message{Kind: KindStatus, Status: &StatusMessage{
			SystemStatus: f.SystemStatus,
			Version:      f.Version,
		}}, nil

	case "instrument":
		return Message{Kind: KindInstrument, Instrument: &InstrumentMessage{
			Symbol:     f.Symbol,
			PriceScale: f.PricePrecision,
			QtyScale:   f.QtyPrecision,
		}}, nil

	case "subscriptionAck":
		ok := f.OK != nil && *f.OK
		return Message{Kind: KindSubscriptionAck, Ack: &SubscriptionAck{
			Channel: f.Type,
			Symbols: f.Symbols,
			ReqID:   f.ReqID,
			OK:      ok,
			Error:   f.Error,
		}}, nil

	case "error":
		return Message{Kind: KindError, Err: &ErrorMessage{
			Code:          f.Code,
			Reason:        f.Reason,
			CorrelationID: f.CorrelationID,
		}}, nil

	default:
		return Message{}, fmt.Errorf("codec: unknown channel %q", f.Channel)
	}
}
