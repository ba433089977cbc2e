// Package main is the entry point for the marketfeed demo client: it wires
// the marketdata bounded context (venue session, orderbook engine, event
// bus) behind the shared monolith container and either logs the resulting
// event stream to stderr or drives the Bubble Tea dashboard in pkg/ui.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/marketfeed/business/marketdata"
	marketdataDI "github.com/fd1az/marketfeed/business/marketdata/di"
	"github.com/fd1az/marketfeed/business/marketdata/domain"
	"github.com/fd1az/marketfeed/business/marketdata/infra/restsnapshot"
	"github.com/fd1az/marketfeed/business/marketdata/infra/session"
	"github.com/fd1az/marketfeed/internal/apm"
	"github.com/fd1az/marketfeed/internal/config"
	"github.com/fd1az/marketfeed/internal/health"
	"github.com/fd1az/marketfeed/internal/httpclient"
	"github.com/fd1az/marketfeed/internal/logger"
	"github.com/fd1az/marketfeed/internal/metrics"
	"github.com/fd1az/marketfeed/internal/monolith"
	"github.com/fd1az/marketfeed/pkg/ui"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	tuiMode := flag.Bool("tui", false, "Run the interactive book dashboard instead of logging to stderr")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("marketfeed %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !*tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, *tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}
	logWriter := io.Writer(os.Stderr)
	if tuiMode {
		// The dashboard owns the terminal; logging to stderr would tear
		// up its alt-screen rendering, so logs are discarded in this mode.
		logWriter = io.Discard
	}
	log := logger.New(logWriter, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting marketfeed client",
		"version", version,
		"venue", cfg.Venue.Name,
		"symbols", cfg.Venue.Symbols,
	)

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	modules := []monolith.Module{
		&marketdata.Module{},
	}
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	mgr := marketdataDI.GetSessionManager(mono.Services())
	if err := subscribeConfigured(ctx, mgr, cfg); err != nil {
		log.Error(ctx, "initial subscribe failed", "error", err)
	}

	if cfg.Venue.RESTURL != "" {
		if _, err := newSnapshotSource(cfg); err != nil {
			log.Warn(ctx, "REST snapshot fallback unavailable", "error", err)
		} else {
			log.Info(ctx, "REST snapshot fallback configured", "url", cfg.Venue.RESTURL)
		}
	}

	if tuiMode {
		return runTUI(ctx, mgr, cfg)
	}
	return consume(ctx, mgr, log)
}

// runTUI hands the session's event channel to the Bubble Tea dashboard and
// blocks until the user quits or the channel closes, then shuts the
// session down the same way the CLI path does on ctx cancellation.
func runTUI(ctx context.Context, mgr *session.Manager, cfg *config.Config) error {
	symbols := make([]domain.Symbol, 0, len(cfg.Venue.Symbols))
	for _, s := range cfg.Venue.Symbols {
		symbols = append(symbols, domain.Symbol(s))
	}

	model := ui.New(cfg.Venue.Name, symbols, mgr.Events())

	go func() {
		<-ctx.Done()
		mgr.Shutdown(context.Background())
		ui.Quit()
	}()

	return ui.Run(model)
}

// newSnapshotSource builds the optional REST fallback the session manager's
// app.SnapshotSource seam exists for. The core never calls this itself;
// wiring it here is the caller-supplied piece SPEC_FULL's demo wiring
// describes — it's constructed to prove the seam is real, not because the
// rest of this binary calls FetchSnapshot on it yet.
func newSnapshotSource(cfg *config.Config) (*restsnapshot.Source, error) {
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithBaseURL(cfg.Venue.RESTURL),
		httpclient.WithProviderName(cfg.Venue.Name),
		httpclient.WithRequestTimeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return restsnapshot.New(client, cfg.Venue.RESTURL), nil
}

// subscribeConfigured translates the venue config's flat symbol list into
// a book subscription for every configured symbol at the configured depth.
func subscribeConfigured(ctx context.Context, mgr *session.Manager, cfg *config.Config) error {
	symbols := make([]domain.Symbol, 0, len(cfg.Venue.Symbols))
	for _, s := range cfg.Venue.Symbols {
		symbols = append(symbols, domain.Symbol(s))
	}
	if len(symbols) == 0 {
		return nil
	}

	depth := domain.Depth10
	sub := domain.NewSubscription(domain.ChannelBook, depth, true, symbols...)
	if err := mgr.Subscribe(ctx, sub); err != nil {
		return err
	}
	if cfg.Venue.Depth == "L3" {
		l3Sub := domain.NewSubscription(domain.ChannelL3, depth, true, symbols...)
		return mgr.Subscribe(ctx, l3Sub)
	}
	return nil
}

// consume drains the session's event stream until it is closed or ctx is
// cancelled, logging each event. This is the CLI's entire "view": a
// structured log line per market/connection/subscription/backpressure
// event, in wire-delivered order.
func consume(ctx context.Context, mgr *session.Manager, log logger.LoggerInterface) error {
	events := mgr.Events()
	for {
		select {
		case <-ctx.Done():
			mgr.Shutdown(context.Background())
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			logEvent(ctx, log, evt)
		}
	}
}

func logEvent(ctx context.Context, log logger.LoggerInterface, evt domain.Event) {
	switch evt.Kind {
	case domain.EventOrderbookSnapshot, domain.EventOrderbookUpdate:
		if evt.Snapshot == nil {
			return
		}
		bid, hasBid := evt.Snapshot.BestBid()
		ask, hasAsk := evt.Snapshot.BestAsk()
		fields := []interface{}{"symbol", string(evt.Symbol), "kind", string(evt.Kind)}
		if hasBid {
			fields = append(fields, "best_bid", bid.Price.String())
		}
		if hasAsk {
			fields = append(fields, "best_ask", ask.Price.String())
		}
		log.Info(ctx, "book event", fields...)
	case domain.EventChecksumMismatch:
		log.Warn(ctx, "checksum mismatch", "symbol", string(evt.Symbol),
			"expected", evt.ChecksumMismatch.Expected, "computed", evt.ChecksumMismatch.Computed)
	case domain.EventBufferOverflow:
		log.Warn(ctx, "event bus overflow", "dropped", evt.BufferOverflow.DroppedCount)
	case domain.EventConnected:
		log.Info(ctx, "connected", "connection_id", evt.Connected.ConnectionID, "api_version", evt.Connected.APIVersion)
	case domain.EventDisconnected, domain.EventReconnectFailed, domain.EventSubscriptionError:
		if evt.Err != nil {
			log.Warn(ctx, "session error", "kind", string(evt.Kind), "error", evt.Err.Error())
		}
	default:
		log.Debug(ctx, "event", "kind", string(evt.Kind), "symbol", string(evt.Symbol))
	}
}
