// Package marketdata implements the marketdata bounded context: a venue
// websocket session that maintains L2/L3 orderbook state and publishes a
// typed event stream.
package marketdata

import (
	"context"

	marketdataDI "github.com/fd1az/marketfeed/business/marketdata/di"
	"github.com/fd1az/marketfeed/business/marketdata/infra/session"
	"github.com/fd1az/marketfeed/internal/config"
	"github.com/fd1az/marketfeed/internal/di"
	"github.com/fd1az/marketfeed/internal/logger"
	"github.com/fd1az/marketfeed/internal/monolith"
	"github.com/fd1az/marketfeed/internal/wsconn"
)

// Module implements the marketdata bounded context.
type Module struct{}

// RegisterServices registers the transport and session manager with the
// DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, marketdataDI.Transport, func(sr di.ServiceRegistry) *wsconn.Client {
		cfg := sr.Get("config").(*config.Config)

		wsCfg := wsconn.DefaultConfig(cfg.Venue.WebSocketURL, cfg.Venue.Name)
		wsCfg.PingInterval = cfg.Venue.PingInterval
		wsCfg.BufferSize = cfg.Session.EventChannelCapacity

		client, err := wsconn.New(wsCfg)
		if err != nil {
			panic("failed to create websocket transport: " + err.Error())
		}
		return client
	})

	di.RegisterToken(c, marketdataDI.SessionManager, func(sr di.ServiceRegistry) *session.Manager {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		transport := marketdataDI.GetTransport(sr)

		sessCfg := session.DefaultConfig()
		sessCfg.HeartbeatTimeout = cfg.Session.HeartbeatTimeout
		sessCfg.EventChannelCapacity = cfg.Session.EventChannelCapacity
		sessCfg.PingInterval = cfg.Venue.PingInterval
		sessCfg.EngineConfig.HistoryCapacity = cfg.Session.HistoryRingCapacity
		sessCfg.EngineConfig.ChecksumDepth = cfg.Session.TopLevelsDepth
		sessCfg.ReconnectPolicy.Initial = cfg.Session.InitialBackoff
		sessCfg.ReconnectPolicy.Max = cfg.Session.MaxBackoff
		if cfg.Session.AckRetryRatePerSec > 0 {
			sessCfg.AckRetryRate = cfg.Session.AckRetryRatePerSec
		}
		if cfg.Session.AckRetryBurst > 0 {
			sessCfg.AckRetryBurst = cfg.Session.AckRetryBurst
		}
		if cfg.Session.MaxReconnects > 0 {
			sessCfg.ReconnectPolicy.MaxAttempts = cfg.Session.MaxReconnects
		}

		return session.NewManager(transport, sessCfg, log)
	})

	return nil
}

// Startup starts the session manager's read loop in the background. The
// loop runs for the process lifetime; callers observe it through the
// session manager's event channel, not through Startup's return.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	mgr := marketdataDI.GetSessionManager(mono.Services())

	go func() {
		if err := mgr.Run(ctx); err != nil && ctx.Err() == nil {
			log.Error(ctx, "marketdata session stopped", "error", err)
		}
	}()

	log.Info(ctx, "marketdata module started")
	return nil
}
