package codec

import (
	"encoding/json"
	"sync/atomic"
)

// Encoder builds outbound JSON frames with a monotonically assigned
// req_id, grounded on the teacher's atomic.Int64 nextID counter in
// business/pricing/infra/binance/client.go.
type Encoder struct {
	nextID atomic.Int64
}

// NewEncoder builds an Encoder whose req_id sequence starts at 1.
func NewEncoder() *Encoder { return &Encoder{} }

type subscribeParams struct {
	Channel  string   `json:"channel"`
	Symbols  []string `json:"symbol"`
	Depth    int      `json:"depth,omitempty"`
	Snapshot bool     `json:"snapshot,omitempty"`
	Token    string   `json:"token,omitempty"`
}

type subscribeFrame struct {
	Method string          `json:"method"`
	Params subscribeParams `json:"params"`
	ReqID  int64           `json:"req_id"`
}

// Subscribe builds a subscribe frame for the given channel/symbols.
func (e *Encoder) Subscribe(channel string, symbols []string, depth int, snapshot bool, token string) ([]byte, int64) {
	id := e.nextID.Add(1)
	f := subscribeFrame{
		Method: "subscribe",
		Params: subscribeParams{Channel: channel, Symbols: symbols, Depth: depth, Snapshot: snapshot, Token: token},
		ReqID:  id,
	}
	b, _ := json.Marshal(f)
	return b, id
}

// Unsubscribe builds an unsubscribe frame for the given channel/symbols.
func (e *Encoder) Unsubscribe(channel string, symbols []string) ([]byte, int64) {
	id := e.nextID.Add(1)
	f := subscribeFrame{
		Method: "unsubscribe",
		Params: subscribeParams{Channel: channel, Symbols: symbols},
		ReqID:  id,
	}
	b, _ := json.Marshal(f)
	return b, id
}

type pingFrame struct {
	Method string `json:"method"`
	ReqID  int64  `json:"req_id"`
}

// Ping builds a keep-alive ping frame.
func (e *Encoder) Ping() ([]byte, int64) {
	id := e.nextID.Add(1)
	b, _ := json.Marshal(pingFrame{Method: "ping", ReqID: id})
	return b, id
}

// OrderSide is the side of an outbound order instruction.
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

type orderParams struct {
	Symbol string       `json:"symbol"`
	Side   OrderSide    `json:"side"`
	Price  *WireDecimal `json:"price,omitempty"`
	Qty    *WireDecimal `json:"qty,omitempty"`
}

type orderFrame struct {
	Method string      `json:"method"`
	Params orderParams `json:"params"`
	ReqID  int64       `json:"req_id"`
}

// AddOrder builds an order-placement frame.
func (e *Encoder) AddOrder(symbol string, side OrderSide, price, qty WireDecimal) ([]byte, int64) {
	id := e.nextID.Add(1)
	b, _ := json.Marshal(orderFrame{
		Method: "add_order",
		Params: orderParams{Symbol: symbol, Side: side, Price: &price, Qty: &qty},
		ReqID:  id,
	})
	return b, id
}

type amendParams struct {
	OrderID string       `json:"order_id"`
	Price   *WireDecimal `json:"price,omitempty"`
	Qty     *WireDecimal `json:"qty,omitempty"`
}

type amendFrame struct {
	Method string      `json:"method"`
	Params amendParams `json:"params"`
	ReqID  int64       `json:"req_id"`
}

// AmendOrder builds an order-amendment frame.
func (e *Encoder) AmendOrder(orderID string, price, qty *WireDecimal) ([]byte, int64) {
	id := e.nextID.Add(1)
	b, _ := json.Marshal(amendFrame{
		Method: "amend_order",
		Params: amendParams{OrderID: orderID, Price: price, Qty: qty},
		ReqID:  id,
	})
	return b, id
}

type cancelParams struct {
	OrderID string `json:"order_id"`
}

type cancelFrame struct {
	Method string       `json:"method"`
	Params cancelParams `json:"params"`
	ReqID  int64        `json:"req_id"`
}

// CancelOrder builds an order-cancellation frame.
func (e *Encoder) CancelOrder(orderID string) ([]byte, int64) {
	id := e.nextID.Add(1)
	b, _ := json.Marshal(cancelFrame{Method: "cancel_order", Params: cancelParams{OrderID: orderID}, ReqID: id})
	return b, id
}

// BatchOp is one operation within a BatchOrders frame.
type BatchOp struct {
	Op      string       `json:"op"` // add|amend|cancel
	Symbol  string       `json:"symbol,omitempty"`
	Side    OrderSide    `json:"side,omitempty"`
	OrderID string       `json:"order_id,omitempty"`
	Price   *WireDecimal `json:"price,omitempty"`
	Qty     *WireDecimal `json:"qty,omitempty"`
}

type batchParams struct {
	Ops []BatchOp `json:"ops"`
}

type batchFrame struct {
	Method string      `json:"method"`
	Params batchParams `json:"params"`
	ReqID  int64       `json:"req_id"`
}

// BatchOrders builds a single frame carrying multiple order operations.
func (e *Encoder) BatchOrders(ops []BatchOp) ([]byte, int64) {
	id := e.nextID.Add(1)
	b, _ := json.Marshal(batchFrame{Method: "batch_orders", Params: batchParams{Ops: ops}, ReqID: id})
	return b, id
}
