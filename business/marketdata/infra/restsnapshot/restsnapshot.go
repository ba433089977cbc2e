// Package restsnapshot implements app.SnapshotSource over a venue's REST
// orderbook endpoint, grounded on this repo's
// business/pricing/infra/binance/provider.go getOrderbookViaHTTP fallback:
// when the websocket hasn't produced a snapshot yet (or a checksum
// mismatch forces a resync), a consumer can fetch one directly instead of
// waiting for the next snapshot frame. The core session manager never
// imports this package; it only depends on the app.SnapshotSource
// interface, so wiring this in is always the caller's choice.
package restsnapshot

import (
	"context"
	"fmt"

	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/internal/decimal"
	"github.com/fd1az/marketfeed/internal/httpclient"
	"github.com/fd1az/marketfeed/internal/marketerr"
)

// depthResponse mirrors the venue's REST orderbook payload shape. Each
// level's price and qty must be a quoted decimal string, parsed with
// decimal.Parse; unlike the websocket codec, a bare JSON number is not
// accepted and fails the decode.
type depthResponse struct {
	Bids     []levelJSON `json:"bids"`
	Asks     []levelJSON `json:"asks"`
	Checksum uint32      `json:"checksum"`
	Sequence uint64      `json:"sequence"`
}

type levelJSON struct {
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

// Source fetches orderbook snapshots over REST.
type Source struct {
	client  httpclient.Client
	baseURL string
}

// New builds a Source that issues GETs against baseURL using client.
func New(client httpclient.Client, baseURL string) *Source {
	return &Source{client: client, baseURL: baseURL}
}

// FetchSnapshot implements app.SnapshotSource.
func (s *Source) FetchSnapshot(ctx context.Context, symbol domain.Symbol, depth domain.Depth) (domain.Snapshot, error) {
	var body depthResponse
	resp, err := s.client.NewRequestWithOptions().
		SetQueryParam("symbol", string(symbol)).
		SetQueryParam("depth", fmt.Sprintf("%d", int(depth))).
		SetResult(&body).
		Get(ctx, s.baseURL+"/orderbook")
	if err != nil {
		return domain.Snapshot{}, marketerr.New(marketerr.ConnectionFailed,
			marketerr.WithMessage("REST snapshot fetch failed"), marketerr.WithCause(err))
	}
	if resp.IsError() {
		return domain.Snapshot{}, marketerr.New(marketerr.ConnectionFailed,
			marketerr.WithMessage(fmt.Sprintf("REST snapshot fetch returned status %d", resp.StatusCode)))
	}

	snap := domain.Snapshot{
		Symbol:   symbol,
		Checksum: body.Checksum,
		Sequence: body.Sequence,
		Bids:     make([]domain.PriceLevel, 0, len(body.Bids)),
		Asks:     make([]domain.PriceLevel, 0, len(body.Asks)),
	}
	for _, l := range body.Bids {
		level, err := parseLevel(l)
		if err != nil {
			return domain.Snapshot{}, marketerr.New(marketerr.ChecksumMismatch,
				marketerr.WithMessage("malformed REST bid level"), marketerr.WithCause(err))
		}
		snap.Bids = append(snap.Bids, level)
	}
	for _, l := range body.Asks {
		level, err := parseLevel(l)
		if err != nil {
			return domain.Snapshot{}, marketerr.New(marketerr.ChecksumMismatch,
				marketerr.WithMessage("malformed REST ask level"), marketerr.WithCause(err))
		}
		snap.Asks = append(snap.Asks, level)
	}
	return snap, nil
}

func parseLevel(l levelJSON) (domain.PriceLevel, error) {
	price, err := decimal.Parse(l.Price)
	if err != nil {
		return domain.PriceLevel{}, err
	}
	qty, err := decimal.Parse(l.Qty)
	if err != nil {
		return domain.PriceLevel{}, err
	}
	return domain.PriceLevel{Price: price, Qty: qty}, nil
}
