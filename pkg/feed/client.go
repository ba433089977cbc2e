// Package feed is the consumer-facing API: a Client wraps a running
// session and exposes the read/query surface a caller actually needs
// (orderbook snapshots, best bid/ask, spread, mid price, the L3 extras)
// without handing out the session manager's internal wiring.
package feed

import (
	"context"
	"sync/atomic"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/domain/engine"
	"github.com/fd1az/marketfeed/business/marketdata/infra/session"
	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/fd1az/marketfeed/internal/logger"
	"github.com/fd1az/marketfeed/internal/wsconn"
	shopspring "github.com/shopspring/decimal"
)

// Options configures a Client at construction time.
type Options struct {
	VenueURL     string
	Symbols      []domain.Symbol
	Depth        domain.Depth
	Token        string
	SessionCfg   session.Config
	TransportCfg wsconn.Config
}

// Client is the handle returned to a consumer: one session underneath,
// a typed event stream on top, and query methods over whatever orderbook
// state the session has accumulated.
type Client struct {
	mgr       *session.Manager
	transport *wsconn.Client
	log       logger.LoggerInterface
	l3Seq     atomic.Uint64
}

// Connected reports whether the underlying transport currently holds an
// open connection.
func (c *Client) Connected() bool { return c.transport.IsConnected() }

// New builds a Client and starts its session loop in the background. The
// returned error is only non-nil if the transport itself could not be
// constructed; connection failures surface as Disconnected/ReconnectFailed
// events on Events(), not as a return value here.
func New(ctx context.Context, opts Options, log logger.LoggerInterface) (*Client, error) {
	transport, err := wsconn.New(opts.TransportCfg)
	if err != nil {
		return nil, err
	}

	mgr := session.NewManager(transport, opts.SessionCfg, log)
	c := &Client{mgr: mgr, transport: transport, log: log}

	go func() {
		if runErr := mgr.Run(ctx); runErr != nil && ctx.Err() == nil {
			log.Error(ctx, "feed session stopped", "error", runErr)
		}
	}()

	if len(opts.Symbols) > 0 {
		sub := domain.NewSubscription(domain.ChannelBook, opts.Depth, true, opts.Symbols...)
		if subErr := mgr.Subscribe(ctx, sub); subErr != nil {
			log.Warn(ctx, "initial subscribe failed, will retry on connect", "error", subErr)
		}
	}

	return c, nil
}

// Events returns the consumer event stream. Consume it exactly once;
// it is closed when the session shuts down.
func (c *Client) Events() <-chan domain.Event { return c.mgr.Events() }

// Subscribe adds channel/symbol interest, persisted across reconnects.
func (c *Client) Subscribe(ctx context.Context, channel domain.Channel, depth domain.Depth, snapshot bool, symbols ...domain.Symbol) error {
	return c.mgr.Subscribe(ctx, domain.NewSubscription(channel, depth, snapshot, symbols...))
}

// Unsubscribe removes channel/symbol interest.
func (c *Client) Unsubscribe(ctx context.Context, channel domain.Channel, depth domain.Depth, symbols ...domain.Symbol) error {
	key := domain.SubscriptionKey{Channel: channel, Depth: depth}
	return c.mgr.Unsubscribe(ctx, key, symbols)
}

// Orderbook returns a point-in-time snapshot of the L2 book for symbol,
// or false if no book state exists yet.
func (c *Client) Orderbook(symbol domain.Symbol) (domain.Snapshot, bool) {
	ob := c.mgr.Orderbook(symbol)
	if ob.State() == domain.SyncUninitialized {
		return domain.Snapshot{}, false
	}
	return ob.Snapshot(), true
}

// BestBid returns the top bid level for symbol.
func (c *Client) BestBid(symbol domain.Symbol) (decimal.Decimal, bool) {
	level, ok := c.mgr.Orderbook(symbol).BestBid()
	if !ok {
		return decimal.Zero, false
	}
	return level.Price, true
}

// BestAsk returns the top ask level for symbol.
func (c *Client) BestAsk(symbol domain.Symbol) (decimal.Decimal, bool) {
	level, ok := c.mgr.Orderbook(symbol).BestAsk()
	if !ok {
		return decimal.Zero, false
	}
	return level.Price, true
}

// Spread returns best_ask - best_bid for symbol.
func (c *Client) Spread(symbol domain.Symbol) (decimal.Decimal, bool) {
	return c.mgr.Orderbook(symbol).Spread()
}

// MidPrice returns (best_bid + best_ask) / 2 for symbol.
func (c *Client) MidPrice(symbol domain.Symbol) (decimal.Decimal, bool) {
	return c.mgr.Orderbook(symbol).MidPrice()
}

// AddOrder injects a consumer-supplied L3 order into symbol's book. This
// is a local book mutation, not a request sent to the venue; it exists
// for building/testing L3-aware consumers against a local book.
func (c *Client) AddOrder(symbol domain.Symbol, side domain.Side, entry domain.OrderEntry) error {
	return c.mgr.L3(symbol).Apply(engine.L3Add, side, entry, c.nextL3Seq())
}

// ModifyOrder changes a resting order's quantity, keeping its arrival
// sequence (and therefore queue position) unchanged.
func (c *Client) ModifyOrder(symbol domain.Symbol, side domain.Side, orderID string, newQty decimal.Decimal) error {
	return c.mgr.L3(symbol).Apply(engine.L3Modify, side, domain.OrderEntry{OrderID: orderID, Qty: newQty}, c.nextL3Seq())
}

// RemoveOrder removes a resting order.
func (c *Client) RemoveOrder(symbol domain.Symbol, side domain.Side, orderID string) error {
	return c.mgr.L3(symbol).Apply(engine.L3Delete, side, domain.OrderEntry{OrderID: orderID}, c.nextL3Seq())
}

// QueuePosition reports an order's position within its price level.
func (c *Client) QueuePosition(symbol domain.Symbol, side domain.Side, orderID string) (domain.QueuePosition, bool) {
	return c.mgr.L3(symbol).QueuePosition(side, orderID)
}

// AggregatedBids/AggregatedAsks collapse the L3 book to its L2 view.
func (c *Client) AggregatedBids(symbol domain.Symbol) []domain.PriceLevel {
	return c.mgr.L3(symbol).AggregatedBids()
}

func (c *Client) AggregatedAsks(symbol domain.Symbol) []domain.PriceLevel {
	return c.mgr.L3(symbol).AggregatedAsks()
}

// VWAPBid walks the aggregated bid side and returns the volume-weighted
// average price for qty units, or false if the book can't fill qty.
func (c *Client) VWAPBid(symbol domain.Symbol, qty decimal.Decimal) (decimal.Decimal, bool) {
	return vwap(c.mgr.L3(symbol).AggregatedBids(), qty)
}

// VWAPAsk is VWAPBid's ask-side counterpart.
func (c *Client) VWAPAsk(symbol domain.Symbol, qty decimal.Decimal) (decimal.Decimal, bool) {
	return vwap(c.mgr.L3(symbol).AggregatedAsks(), qty)
}

// vwap walks levels depth-first accumulating notional in shopspring space:
// a VWAP is a quotient, which has no exact representation in the bounded
// fixed-scale decimal type, so the division itself happens at the
// shopspring boundary and the result is converted back.
func vwap(levels []domain.PriceLevel, qty decimal.Decimal) (decimal.Decimal, bool) {
	if qty.Sign() <= 0 {
		return decimal.Zero, false
	}
	remaining := qty.ToShopspring()
	notional := shopspring.Zero
	for _, lvl := range levels {
		if remaining.Sign() <= 0 {
			break
		}
		take := lvl.Qty.ToShopspring()
		if take.Cmp(remaining) > 0 {
			take = remaining
		}
		notional = notional.Add(take.Mul(lvl.Price.ToShopspring()))
		remaining = remaining.Sub(take)
	}
	if remaining.Sign() > 0 {
		return decimal.Zero, false // book depth insufficient to fill qty
	}
	result, err := decimal.FromShopspring(notional.Div(qty.ToShopspring()))
	if err != nil {
		return decimal.Zero, false
	}
	return result, true
}

// Imbalance reports the order-book imbalance in [-1, 1]: positive values
// mean more resting bid volume than ask volume at the top of the book.
func (c *Client) Imbalance(symbol domain.Symbol) (decimal.Decimal, bool) {
	ob := c.mgr.Orderbook(symbol)
	bid, bidOK := ob.BestBid()
	ask, askOK := ob.BestAsk()
	if !bidOK || !askOK {
		return decimal.Zero, false
	}
	total := bid.Qty.ToShopspring().Add(ask.Qty.ToShopspring())
	if total.Sign() == 0 {
		return decimal.Zero, false
	}
	diff := bid.Qty.ToShopspring().Sub(ask.Qty.ToShopspring())
	result, err := decimal.FromShopspring(diff.Div(total))
	if err != nil {
		return decimal.Zero, false
	}
	return result, true
}

func (c *Client) nextL3Seq() uint64 { return c.l3Seq.Add(1) }

// Shutdown drains and closes the underlying session, marking every
// tracked book Uninitialized.
func (c *Client) Shutdown(ctx context.Context) {
	c.mgr.Shutdown(ctx)
}
