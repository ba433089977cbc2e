// Package session implements the WebSocket session manager described in
// §4.6: a single cooperative read loop that owns the transport, drives
// the subscription lifecycle, routes inbound frames to per-symbol engine
// state, and emits events on a bounded bus, with a heartbeat watchdog and
// a checksum-mismatch resync path layered on top.
package session

import (
	"time"

	"github.com/fd1az/marketfeed/business/marketdata/domain/engine"
	"github.com/fd1az/marketfeed/business/marketdata/infra/reconnect"
	"github.com/fd1az/marketfeed/internal/circuitbreaker"
)

// Config controls every timeout, retry policy and buffer size the session
// manager uses. DefaultConfig returns one with every field set; zero-value
// fields of a Config built by hand are not filled in.
type Config struct {
	// ConnectTimeout bounds a single Connect call (T_connect).
	ConnectTimeout time.Duration
	// HeartbeatTimeout is T_dead: no frame of any kind observed for this
	// long tears the connection down and enters reconnect.
	HeartbeatTimeout time.Duration
	// HeartbeatCheckInterval is how often the watchdog polls the
	// last-frame timestamp; it must be smaller than HeartbeatTimeout.
	HeartbeatCheckInterval time.Duration
	// SubAckTimeout is T_sub: absence of an ack within this window emits
	// a Subscription::Error event for that request.
	SubAckTimeout time.Duration
	// CloseTimeout is T_close: how long shutdown waits to drain inbound
	// frames for the close acknowledgment before giving up.
	CloseTimeout time.Duration
	// PingInterval is the keep-alive cadence; the protocol's heartbeat
	// watchdog is passive (it just expects *some* frame), so the session
	// proactively pings to keep an otherwise idle connection alive.
	PingInterval time.Duration

	// EventChannelCapacity is the event bus capacity C (default 1024).
	EventChannelCapacity int

	// AckRetryRate and AckRetryBurst pace how fast an unacknowledged
	// subscribe is resent (an unacknowledged unsubscribe is not resent,
	// only reported once it times out); without this a flapping venue that
	// never acks would let the manager hammer it with retries as fast as
	// SubAckTimeout allows.
	AckRetryRate  float64
	AckRetryBurst int
	// MaxAckRetries bounds how many times a single request is resent
	// before giving up and publishing Subscription::Error.
	MaxAckRetries int

	EngineConfig engine.Config

	ReconnectPolicy reconnect.Policy
	Breaker         circuitbreaker.Config
}

// DefaultConfig matches the documented protocol defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:         10 * time.Second,
		HeartbeatTimeout:       60 * time.Second,
		HeartbeatCheckInterval: 5 * time.Second,
		SubAckTimeout:          10 * time.Second,
		CloseTimeout:           5 * time.Second,
		PingInterval:           15 * time.Second,
		EventChannelCapacity:   1024,
		AckRetryRate:           2,
		AckRetryBurst:          5,
		MaxAckRetries:          3,
		EngineConfig:           engine.DefaultConfig(),
		ReconnectPolicy:        reconnect.DefaultPolicy(),
		Breaker:                circuitbreaker.DefaultConfig("marketdata-session"),
	}
}
