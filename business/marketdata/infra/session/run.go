package session

import (
	"context"
	"errors"
	"time"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/infra/codec"
	"github.com/fd1az/marketfeed/internal/marketerr"
)

// errConnectionClosed is returned internally by readLoop when the
// transport's message channel closes without ctx being done.
var errConnectionClosed = errors.New("session: transport closed")

// Run drives the session for its lifetime: connect, handshake, read until
// disconnect, reconnect under the supervisor's policy, repeat. It returns
// when ctx is cancelled, shutdown completes, or the reconnect supervisor
// gives up (circuit breaker open or attempt cap exceeded).
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	defer m.bus.Close()

	everConnected := false
	for {
		if err := m.connectWithSupervisor(ctx); err != nil {
			cause := marketerr.New(marketerr.ConnectionFailed, marketerr.WithCause(err))
			m.bus.Publish(domain.NewReconnectFailedEvent(cause))
			return err
		}
		m.connected.Store(true)
		m.connSeq.Add(1)
		m.touchFrame()
		m.awaitConnected = true

		m.sendPersistentSubscriptions(ctx, everConnected)
		everConnected = true

		cause := m.readLoop(ctx)
		m.connected.Store(false)
		_ = m.transport.Close()

		if ctx.Err() != nil {
			m.log.Info(ctx, "session stopped", "reason", ctx.Err().Error())
			return ctx.Err()
		}
		if m.shuttingDown.Load() {
			return nil
		}

		// A dropped connection invalidates every L2 book: each returns to
		// Uninitialized, keeping its known precision, until the fresh
		// snapshot that follows the resubscribe.
		m.booksMu.RLock()
		for sym, ob := range m.books {
			ob.Shutdown()
			if p, ok := m.precision[sym]; ok {
				ob.SetPrecision(p)
			}
		}
		m.booksMu.RUnlock()

		m.bus.Publish(domain.NewDisconnectedEvent(classifyDisconnect(cause)))
	}
}

func (m *Manager) connectWithSupervisor(ctx context.Context) error {
	return m.sup.Run(ctx, func(ctx context.Context) error {
		cctx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
		defer cancel()
		return m.transport.Connect(cctx)
	})
}

// sendPersistentSubscriptions resends every persistent subscription on a
// newly opened connection, per §4.6 step 2. When isReconnect is true (this
// connection followed an earlier successful one, rather than being the
// session's first) it also arms the ack count that gates
// SubscriptionsRestored once every resent subscription is acknowledged.
func (m *Manager) sendPersistentSubscriptions(ctx context.Context, isReconnect bool) {
	m.subsMu.RLock()
	subs := make([]domain.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.subsMu.RUnlock()

	if isReconnect {
		m.acksMu.Lock()
		m.restoring = len(subs) > 0
		m.restoreWant = len(subs)
		m.restoreGot = 0
		m.acksMu.Unlock()
	}

	for _, sub := range subs {
		if err := m.sendSubscribe(ctx, sub, isReconnect); err != nil {
			m.log.Warn(ctx, "failed to send persistent subscription", "channel", string(sub.Channel), "error", err.Error())
		}
	}
}

// readLoop pumps inbound frames, the keep-alive ping, and the heartbeat
// watchdog until the transport closes, ctx is cancelled, or the watchdog
// trips. The returned error classifies why the loop ended.
func (m *Manager) readLoop(ctx context.Context) error {
	pingTicker := time.NewTicker(m.cfg.PingInterval)
	defer pingTicker.Stop()
	watchdog := time.NewTicker(m.cfg.HeartbeatCheckInterval)
	defer watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-m.transport.Messages():
			if !ok {
				return errConnectionClosed
			}
			m.touchFrame()
			m.handleFrame(ctx, raw)

		case <-pingTicker.C:
			frame, _ := m.encoder.Ping()
			if err := m.send(ctx, frame); err != nil {
				m.log.Warn(ctx, "keep-alive ping failed", "error", err.Error())
			}

		case <-watchdog.C:
			if time.Since(m.lastFrame()) > m.cfg.HeartbeatTimeout {
				return marketerr.New(marketerr.ConnectionTimeout)
			}
		}
	}
}

func (m *Manager) touchFrame() { m.lastFrameAt.Store(time.Now().UnixNano()) }
func (m *Manager) lastFrame() time.Time {
	return time.Unix(0, m.lastFrameAt.Load())
}

func classifyDisconnect(cause error) *marketerr.Error {
	if me, ok := marketerr.As(cause); ok {
		return me
	}
	return marketerr.New(marketerr.ConnectionClosed, marketerr.WithCause(cause))
}

func (m *Manager) handleFrame(ctx context.Context, raw []byte) {
	msg, err := codec.Decode(raw)
	if err != nil {
		m.bus.Publish(domain.NewParseErrorEvent(marketerr.New(marketerr.ParseError, marketerr.WithCause(err))))
		return
	}

	switch msg.Kind {
	case codec.KindSnapshot:
		m.handleSnapshot(msg.Snapshot)
	case codec.KindUpdate:
		m.handleUpdate(ctx, msg.Update)
	case codec.KindL3Event:
		m.handleL3Event(ctx, msg.L3Event)
	case codec.KindHeartbeat:
		m.bus.Publish(domain.NewHeartbeatEvent())
	case codec.KindStatus:
		m.handleStatus(msg.Status)
	case codec.KindInstrument:
		m.handleInstrument(msg.Instrument)
	case codec.KindSubscriptionAck:
		m.handleAck(msg.Ack)
	case codec.KindError:
		m.handleVenueError(msg.Err)
	}
}

func (m *Manager) handleSnapshot(snap *codec.SnapshotMessage) {
	for _, entry := range snap.Entries {
		symbol := domain.Symbol(entry.Symbol)
		ob := m.orderbookFor(symbol)
		wasDesync := ob.State() == domain.SyncDesynchronized

		evt := ob.ApplySnapshot(toPriceLevels(entry.Bids), toPriceLevels(entry.Asks), entry.Checksum, entry.Sequence)
		m.bus.Publish(evt)
		if wasDesync {
			m.bus.Publish(domain.NewStateRestoredEvent(symbol))
		}
	}
}

func (m *Manager) handleUpdate(ctx context.Context, upd *codec.UpdateMessage) {
	for _, entry := range upd.Entries {
		symbol := domain.Symbol(entry.Symbol)
		ob := m.orderbookFor(symbol)

		evt := ob.ApplyDelta(toPriceLevels(entry.Bids), toPriceLevels(entry.Asks), entry.Checksum, entry.Sequence)
		m.bus.Publish(evt)
		if evt.Kind == domain.EventChecksumMismatch {
			m.resyncSymbol(ctx, symbol)
		}
	}
}

func (m *Manager) handleL3Event(ctx context.Context, evt *codec.L3EventMessage) {
	symbol := domain.Symbol(evt.Symbol)
	l3 := m.l3For(symbol)
	side := parseSide(evt.Side)
	entry := domain.OrderEntry{OrderID: evt.OrderID, Price: wireOrZero(evt.Price), Qty: wireOrZero(evt.Qty)}

	if err := l3.Apply(mapL3Kind(evt.Kind), side, entry, evt.Sequence); err != nil {
		m.log.Warn(ctx, "l3 event rejected", "symbol", string(symbol), "order_id", evt.OrderID, "error", err.Error())
	}
}

func (m *Manager) handleStatus(status *codec.StatusMessage) {
	m.bus.Publish(domain.NewStatusEvent(status.SystemStatus, status.Version))
	if m.awaitConnected {
		m.awaitConnected = false
		connID := nextConnectionID(m.connSeq.Load())
		m.bus.Publish(domain.NewConnectedEvent(status.Version, connID))
	}
}

func (m *Manager) handleInstrument(inst *codec.InstrumentMessage) {
	symbol := domain.Symbol(inst.Symbol)
	precision := domain.Precision{PriceScale: inst.PriceScale, QtyScale: inst.QtyScale}
	m.setPrecision(symbol, precision)
	if ob, ok := m.existingOrderbook(symbol); ok {
		ob.SetPrecision(precision)
	}
}

func (m *Manager) handleAck(ack *codec.SubscriptionAck) {
	m.acksMu.Lock()
	p, ok := m.acks[ack.ReqID]
	if ok {
		delete(m.acks, ack.ReqID)
	}
	m.acksMu.Unlock()
	if !ok {
		return
	}

	if !ack.OK {
		cause := marketerr.New(marketerr.SubscriptionRejected, marketerr.WithMessage(ack.Error))
		m.bus.Publish(domain.NewSubscriptionErrorEvent(p.channel, p.symbols, cause))
	} else if p.isUnsub {
		m.bus.Publish(domain.NewUnsubscribedEvent(p.channel, p.symbols))
	} else {
		m.bus.Publish(domain.NewSubscribedEvent(p.channel, p.symbols))
	}

	if p.restoring {
		m.acksMu.Lock()
		m.restoreGot++
		done := m.restoring && m.restoreGot >= m.restoreWant
		count := m.restoreWant
		if done {
			m.restoring = false
		}
		m.acksMu.Unlock()
		if done {
			m.bus.Publish(domain.NewSubscriptionsRestoredEvent(count))
		}
	}
}

func (m *Manager) handleVenueError(errMsg *codec.ErrorMessage) {
	cause := marketerr.New(classifyErrorCode(errMsg.Code), marketerr.WithMessage(errMsg.Reason), marketerr.WithContext(errMsg.CorrelationID))
	m.bus.Publish(domain.NewVenueErrorEvent(cause))
}

func classifyErrorCode(code string) marketerr.Kind {
	switch code {
	case "rate_limited", "RATE_LIMITED", "too_many_requests":
		return marketerr.RateLimited
	case "unauthorized", "AUTH_FAILED", "invalid_token":
		return marketerr.AuthenticationFailed
	case "subscription_rejected", "SUBSCRIPTION_REJECTED":
		return marketerr.SubscriptionRejected
	default:
		return marketerr.Internal
	}
}

// resyncSymbol forces a fresh snapshot for symbol without tearing down the
// connection: unsubscribe then resubscribe its book channel. The matching
// persistent Subscription supplies the original depth.
func (m *Manager) resyncSymbol(ctx context.Context, symbol domain.Symbol) {
	m.subsMu.RLock()
	var match *domain.Subscription
	for _, s := range m.subs {
		if s.Channel == domain.ChannelBook && s.HasSymbol(symbol) {
			c := s
			match = &c
			break
		}
	}
	m.subsMu.RUnlock()
	if match == nil {
		return
	}

	single := domain.NewSubscription(domain.ChannelBook, match.Depth, true, symbol)
	unsubFrame, unsubID := m.encoder.Unsubscribe(string(domain.ChannelBook), []string{string(symbol)})
	m.trackAck(unsubID, pendingAck{channel: domain.ChannelBook, symbols: []domain.Symbol{symbol}, isUnsub: true})
	if err := m.send(ctx, unsubFrame); err != nil {
		m.log.Warn(ctx, "resync unsubscribe failed", "symbol", string(symbol), "error", err.Error())
		return
	}
	m.scheduleAckTimeout(unsubID)
	if err := m.sendSubscribe(ctx, single, false); err != nil {
		m.log.Warn(ctx, "resync resubscribe failed", "symbol", string(symbol), "error", err.Error())
	}
}

// Shutdown tears the session down per §5: stops accepting the outcome of
// new subscribe requests, closes the transport (which itself sends a close
// frame and yields wire-level drain), waits up to T_close for Run's read
// loop to observe the close and exit, then marks every book and L3 engine
// Uninitialized. Idempotent: Close on an already-closed transport and a
// second wait on the already-closed done channel are both no-ops.
func (m *Manager) Shutdown(ctx context.Context) {
	m.shuttingDown.Store(true)
	_ = m.transport.Close()

	timeout := time.NewTimer(m.cfg.CloseTimeout)
	defer timeout.Stop()
	select {
	case <-m.done:
	case <-timeout.C:
	case <-ctx.Done():
	}

	m.booksMu.RLock()
	books := make([]domain.Symbol, 0, len(m.books))
	for sym := range m.books {
		books = append(books, sym)
	}
	l3s := make([]domain.Symbol, 0, len(m.l3s))
	for sym := range m.l3s {
		l3s = append(l3s, sym)
	}
	m.booksMu.RUnlock()

	for _, sym := range books {
		if ob, ok := m.existingOrderbook(sym); ok {
			ob.Shutdown()
		}
	}
	for _, sym := range l3s {
		m.l3For(sym).Shutdown()
	}
}
