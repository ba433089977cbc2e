package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fd1az/marketfeed/business/marketdata/app"
	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/domain/engine"
	"github.com/fd1az/marketfeed/business/marketdata/infra/codec"
	"github.com/fd1az/marketfeed/business/marketdata/infra/eventbus"
	"github.com/fd1az/marketfeed/business/marketdata/infra/reconnect"
	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/fd1az/marketfeed/internal/logger"
	"github.com/fd1az/marketfeed/internal/marketerr"
	"github.com/fd1az/marketfeed/internal/ratelimit"
)

// pendingAck tracks a sent subscribe/unsubscribe request awaiting its
// SubscriptionAck, so a missing ack can be turned into a Subscription::Error
// after T_sub and, during a post-reconnect restore, counted toward
// SubscriptionsRestored. sub is kept so a timed-out subscribe can be resent
// verbatim; it's unused for unsubscribe acks.
type pendingAck struct {
	channel   domain.Channel
	symbols   []domain.Symbol
	isUnsub   bool
	restoring bool
	sub       domain.Subscription
	retries   int
}

// Manager is the session-level read loop described in §4.6: one task owns
// the transport, applies every inbound frame to per-symbol engine state in
// receipt order, and emits events on a bounded bus. All engine mutation
// happens on this single goroutine; only queries and Subscribe/Unsubscribe
// requests cross from other goroutines, and those touch the subscription
// map and the transport's own send path; the one book-state change they
// make is Subscribe moving each subscribed book from Uninitialized to
// AwaitingSnapshot.
type Manager struct {
	cfg       Config
	transport app.Transport
	encoder   *codec.Encoder
	bus       *eventbus.Bus
	log       logger.LoggerInterface
	sup       *reconnect.Supervisor
	ackLimit  *ratelimit.Limiter

	sendMu sync.Mutex

	subsMu sync.RWMutex
	subs   map[domain.SubscriptionKey]domain.Subscription

	booksMu   sync.RWMutex
	books     map[domain.Symbol]*engine.Orderbook
	l3s       map[domain.Symbol]*engine.L3Engine
	precision map[domain.Symbol]domain.Precision

	acksMu      sync.Mutex
	acks        map[int64]pendingAck
	restoring   bool
	restoreWant int
	restoreGot  int

	lastFrameAt  atomic.Int64 // unix nanoseconds
	connected    atomic.Bool
	connSeq      atomic.Int64
	shuttingDown atomic.Bool
	done         chan struct{}

	awaitConnected bool
}

// NewManager builds a Manager over the given transport. cfg's zero value
// is invalid; callers should start from DefaultConfig.
func NewManager(transport app.Transport, cfg Config, log logger.LoggerInterface) *Manager {
	m := &Manager{
		cfg:       cfg,
		transport: transport,
		encoder:   codec.NewEncoder(),
		bus:       eventbus.New(cfg.EventChannelCapacity),
		log:       log,
		sup:       reconnect.NewSupervisor("marketdata-session", cfg.ReconnectPolicy, cfg.Breaker),
		ackLimit:  ratelimit.NewWithBurst(cfg.AckRetryRate, cfg.AckRetryBurst),
		subs:      make(map[domain.SubscriptionKey]domain.Subscription),
		books:     make(map[domain.Symbol]*engine.Orderbook),
		l3s:       make(map[domain.Symbol]*engine.L3Engine),
		precision: make(map[domain.Symbol]domain.Precision),
		acks:      make(map[int64]pendingAck),
		done:      make(chan struct{}),
	}
	m.sup.OnReconnecting(func(attempt int, delay time.Duration) {
		m.bus.Publish(domain.NewReconnectingEvent(attempt, delay))
	})
	return m
}

// Events returns the consumer-facing event channel.
func (m *Manager) Events() <-chan domain.Event { return m.bus.Events() }

// Orderbook returns the L2 engine for symbol, creating it lazily so a
// caller can query a book that hasn't received its first frame yet.
func (m *Manager) Orderbook(symbol domain.Symbol) *engine.Orderbook {
	return m.orderbookFor(symbol)
}

// L3 returns the L3 engine for symbol, created lazily.
func (m *Manager) L3(symbol domain.Symbol) *engine.L3Engine {
	return m.l3For(symbol)
}

func (m *Manager) orderbookFor(symbol domain.Symbol) *engine.Orderbook {
	m.booksMu.Lock()
	defer m.booksMu.Unlock()
	ob, ok := m.books[symbol]
	if !ok {
		ob = engine.New(symbol, m.cfg.EngineConfig)
		m.books[symbol] = ob
		if p, ok := m.precision[symbol]; ok {
			ob.SetPrecision(p)
		}
	}
	return ob
}

func (m *Manager) existingOrderbook(symbol domain.Symbol) (*engine.Orderbook, bool) {
	m.booksMu.RLock()
	defer m.booksMu.RUnlock()
	ob, ok := m.books[symbol]
	return ob, ok
}

func (m *Manager) l3For(symbol domain.Symbol) *engine.L3Engine {
	m.booksMu.Lock()
	defer m.booksMu.Unlock()
	e, ok := m.l3s[symbol]
	if !ok {
		e = engine.NewL3Engine(symbol)
		m.l3s[symbol] = e
	}
	return e
}

func (m *Manager) setPrecision(symbol domain.Symbol, p domain.Precision) {
	m.booksMu.Lock()
	m.precision[symbol] = p
	m.booksMu.Unlock()
}

// Subscribe registers sub as persistent intent (replayed on every future
// reconnect) and, if the transport is currently open, sends it immediately.
func (m *Manager) Subscribe(ctx context.Context, sub domain.Subscription) error {
	m.subsMu.Lock()
	m.subs[sub.Key()] = sub
	m.subsMu.Unlock()

	for s := range sub.Symbols {
		if sub.Channel == domain.ChannelBook {
			m.orderbookFor(s).MarkAwaitingSnapshot()
		}
	}

	if !m.connected.Load() {
		return nil
	}
	return m.sendSubscribe(ctx, sub, false)
}

// Unsubscribe removes key from the persistent set and, if open, sends the
// unsubscribe frame for symbols.
func (m *Manager) Unsubscribe(ctx context.Context, key domain.SubscriptionKey, symbols []domain.Symbol) error {
	m.subsMu.Lock()
	delete(m.subs, key)
	m.subsMu.Unlock()

	if !m.connected.Load() {
		return nil
	}
	frame, id := m.encoder.Unsubscribe(string(key.Channel), symbolStrings(symbols))
	m.trackAck(id, pendingAck{channel: key.Channel, symbols: symbols, isUnsub: true})
	if err := m.send(ctx, frame); err != nil {
		return err
	}
	m.scheduleAckTimeout(id)
	return nil
}

func (m *Manager) sendSubscribe(ctx context.Context, sub domain.Subscription, restoring bool) error {
	symbols := sub.SymbolList()
	frame, id := m.encoder.Subscribe(string(sub.Channel), symbolStrings(symbols), int(sub.Depth), sub.Snapshot, "")
	m.trackAck(id, pendingAck{channel: sub.Channel, symbols: symbols, restoring: restoring, sub: sub})
	if err := m.send(ctx, frame); err != nil {
		return err
	}
	m.scheduleAckTimeout(id)
	return nil
}

func (m *Manager) trackAck(id int64, p pendingAck) {
	m.acksMu.Lock()
	m.acks[id] = p
	m.acksMu.Unlock()
}

// scheduleAckTimeout arms T_sub for a sent request. If it fires with no ack
// received, an unsubscribe is simply reported as failed, but a subscribe is
// retried up to MaxAckRetries times, paced by ackLimit so a venue that never
// acks can't be hammered faster than the configured rate.
func (m *Manager) scheduleAckTimeout(id int64) {
	time.AfterFunc(m.cfg.SubAckTimeout, func() {
		m.acksMu.Lock()
		p, ok := m.acks[id]
		if ok {
			delete(m.acks, id)
		}
		m.acksMu.Unlock()
		if !ok {
			return
		}

		if !p.isUnsub && p.retries < m.cfg.MaxAckRetries && m.ackLimit.Allow() {
			p.retries++
			m.log.Warn(context.Background(), "subscription ack timed out, retrying",
				"channel", string(p.channel), "attempt", p.retries)
			if err := m.retrySubscribe(p); err == nil {
				return
			}
		}

		cause := marketerr.New(marketerr.SubscriptionRejected, marketerr.WithMessage("subscription ack timed out"))
		m.bus.Publish(domain.NewSubscriptionErrorEvent(p.channel, p.symbols, cause))
	})
}

func (m *Manager) retrySubscribe(p pendingAck) error {
	symbols := p.sub.SymbolList()
	frame, id := m.encoder.Subscribe(string(p.sub.Channel), symbolStrings(symbols), int(p.sub.Depth), p.sub.Snapshot, "")
	p.symbols = symbols
	m.trackAck(id, p)
	if err := m.send(context.Background(), frame); err != nil {
		return err
	}
	m.scheduleAckTimeout(id)
	return nil
}

func (m *Manager) send(ctx context.Context, frame []byte) error {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()
	return m.transport.Send(ctx, frame)
}

func symbolStrings(symbols []domain.Symbol) []string {
	out := make([]string, len(symbols))
	for i, s := range symbols {
		out[i] = string(s)
	}
	return out
}

func toPriceLevels(levels []codec.WireLevel) []domain.PriceLevel {
	out := make([]domain.PriceLevel, len(levels))
	for i, l := range levels {
		out[i] = domain.PriceLevel{Price: l.Price.Decimal, Qty: l.Qty.Decimal}
	}
	return out
}

func parseSide(s string) domain.Side {
	if s == "sell" || s == "ask" {
		return domain.SideAsk
	}
	return domain.SideBid
}

func mapL3Kind(k codec.L3EventKind) engine.L3EventKind {
	switch k {
	case codec.L3EventModify:
		return engine.L3Modify
	case codec.L3EventDelete:
		return engine.L3Delete
	default:
		return engine.L3Add
	}
}

func wireOrZero(w *codec.WireDecimal) decimal.Decimal {
	if w == nil {
		return decimal.Zero
	}
	return w.Decimal
}

func nextConnectionID(seq int64) string {
	return fmt.Sprintf("marketfeed-%d-%d", time.Now().UnixNano(), seq)
}
