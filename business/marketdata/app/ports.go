// Package app contains the session manager's port definitions: the
// narrow interfaces infra/session depends on, so the transport and any
// optional REST fallback can be swapped or mocked independently of the
// concrete websocket/HTTP implementations, following the same
// port/adapter split as business/pricing/app/ports.go's CEXProvider/
// DEXProvider.
package app

import (
	"context"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
)

// Transport is the text-frame duplex connection the session manager reads
// and writes over. internal/wsconn.Client satisfies this.
type Transport interface {
	// Connect establishes the connection. Must be called before Send or
	// Messages produce anything.
	Connect(ctx context.Context) error

	// Send writes one outbound frame.
	Send(ctx context.Context, frame []byte) error

	// Messages returns the channel of inbound frames.
	Messages() <-chan []byte

	// Close tears the connection down. Idempotent.
	Close() error
}

// SnapshotSource is an optional REST fallback seam: a venue that exposes
// a REST orderbook endpoint can be queried directly for a fresh snapshot
// instead of waiting on the next websocket snapshot frame, e.g. right
// after a checksum-mismatch-triggered resubscribe. The core session
// manager never calls out over HTTP itself; a caller that wants this
// behavior supplies an implementation.
type SnapshotSource interface {
	FetchSnapshot(ctx context.Context, symbol domain.Symbol, depth domain.Depth) (domain.Snapshot, error)
}
