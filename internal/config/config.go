// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Venue     VenueConfig     `mapstructure:"venue"`
	Session   SessionConfig   `mapstructure:"session"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// VenueConfig describes the exchange endpoint this process connects to.
type VenueConfig struct {
	Name         string        `mapstructure:"name"`
	WebSocketURL string        `mapstructure:"websocket_url"`
	RESTURL      string        `mapstructure:"rest_url"` // optional, snapshot fallback only
	BearerToken  string        `mapstructure:"bearer_token"`
	Symbols      []string      `mapstructure:"symbols"`
	Depth        string        `mapstructure:"depth"` // e.g. "L2", "L3"
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// SessionConfig tunes the connection lifecycle: reconnect policy, how
// much history the engine retains, and how much slack the event bus and
// ack-retry limiter carry before they start shedding load.
type SessionConfig struct {
	MaxReconnects        int           `mapstructure:"max_reconnects"` // 0 = unlimited
	InitialBackoff       time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff           time.Duration `mapstructure:"max_backoff"`
	HeartbeatTimeout     time.Duration `mapstructure:"heartbeat_timeout"`
	HistoryRingCapacity  int           `mapstructure:"history_ring_capacity"`
	EventChannelCapacity int           `mapstructure:"event_channel_capacity"`
	AckRetryRatePerSec   float64       `mapstructure:"ack_retry_rate_per_sec"`
	AckRetryBurst        int           `mapstructure:"ack_retry_burst"`
	TopLevelsDepth       int           `mapstructure:"top_levels_depth"` // checksum window
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.AutomaticEnv()

	// Bind env vars to config keys
	bindEnvVars(v)

	// Set defaults
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")

	// Venue
	v.BindEnv("venue.name", "ARB_VENUE_NAME", "VENUE_NAME")
	v.BindEnv("venue.websocket_url", "ARB_VENUE_WS_URL", "VENUE_WS_URL")
	v.BindEnv("venue.rest_url", "ARB_VENUE_REST_URL", "VENUE_REST_URL")
	v.BindEnv("venue.bearer_token", "ARB_VENUE_BEARER_TOKEN", "VENUE_BEARER_TOKEN")
	v.BindEnv("venue.symbols", "ARB_VENUE_SYMBOLS", "VENUE_SYMBOLS")
	v.BindEnv("venue.depth", "ARB_VENUE_DEPTH", "VENUE_DEPTH")

	// Session
	v.BindEnv("session.max_reconnects", "ARB_MAX_RECONNECTS")
	v.BindEnv("session.initial_backoff", "ARB_INITIAL_BACKOFF")
	v.BindEnv("session.max_backoff", "ARB_MAX_BACKOFF")
	v.BindEnv("session.heartbeat_timeout", "ARB_HEARTBEAT_TIMEOUT")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "marketfeed")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Venue defaults
	v.SetDefault("venue.name", "demo-venue")
	v.SetDefault("venue.symbols", []string{"BTC-USD"})
	v.SetDefault("venue.depth", "L2")
	v.SetDefault("venue.ping_interval", "15s")

	// Session defaults
	v.SetDefault("session.max_reconnects", 0) // infinite
	v.SetDefault("session.initial_backoff", "500ms")
	v.SetDefault("session.max_backoff", "30s")
	v.SetDefault("session.heartbeat_timeout", "10s")
	v.SetDefault("session.history_ring_capacity", 256)
	v.SetDefault("session.event_channel_capacity", 1024)
	v.SetDefault("session.ack_retry_rate_per_sec", 5.0)
	v.SetDefault("session.ack_retry_burst", 5)
	v.SetDefault("session.top_levels_depth", 10)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "marketfeed")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Venue.WebSocketURL == "" {
		return fmt.Errorf("venue.websocket_url is required")
	}
	if len(c.Venue.Symbols) == 0 {
		return fmt.Errorf("venue.symbols cannot be empty")
	}
	if c.Session.HistoryRingCapacity <= 0 {
		return fmt.Errorf("session.history_ring_capacity must be positive")
	}
	if c.Session.EventChannelCapacity <= 0 {
		return fmt.Errorf("session.event_channel_capacity must be positive")
	}
	if c.Session.TopLevelsDepth <= 0 {
		return fmt.Errorf("session.top_levels_depth must be positive")
	}
	if c.Session.MaxBackoff < c.Session.InitialBackoff {
		return fmt.Errorf("session.max_backoff must be >= session.initial_backoff")
	}
	return nil
}
