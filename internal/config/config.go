// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package config loads Orderboard configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import "time"

// Relay transports. Exactly one is active per deployment.
const (
	TransportSocket    = "socket"
	TransportPusher    = "pusher"
	TransportNATS      = "nats"
	TransportGCPPubSub = "gcppubsub"
)

// Test order display policies.
const (
	TestOrdersDim  = "dim"
	TestOrdersHide = "hide"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Shop      ShopConfig      `koanf:"shop"`
	Relay     RelayConfig     `koanf:"relay"`
	Security  SecurityConfig  `koanf:"security"`
	Dashboard DashboardConfig `koanf:"dashboard"`
	Sentry    SentryConfig    `koanf:"sentry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// LoggingConfig maps onto logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ShopConfig holds commerce platform access.
type ShopConfig struct {
	// URL is the shop domain (my-shop.myshopify.com) or its https base URL.
	URL              string        `koanf:"url"`
	AccessToken      string        `koanf:"access_token"`
	APIVersion       string        `koanf:"api_version"`
	WebhookSecret    string        `koanf:"webhook_secret"`
	ExcludeCancelled bool          `koanf:"exclude_cancelled"`
	Timeout          time.Duration `koanf:"timeout"`
	RateLimit        float64       `koanf:"rate_limit"`
	RateBurst        int           `koanf:"rate_burst"`
}

// RelayConfig selects and configures the event relay.
type RelayConfig struct {
	Transport      string          `koanf:"transport"`
	Channel        string          `koanf:"channel"`
	Event          string          `koanf:"event"`
	PublishTimeout time.Duration   `koanf:"publish_timeout"`
	Pusher         PusherConfig    `koanf:"pusher"`
	NATS           NATSConfig      `koanf:"nats"`
	PubSub         GCPPubSubConfig `koanf:"gcppubsub"`
}

// PusherConfig holds hosted relay credentials.
type PusherConfig struct {
	AppID   string `koanf:"app_id"`
	Key     string `koanf:"key"`
	Secret  string `koanf:"secret"`
	Cluster string `koanf:"cluster"`
	// Host overrides the REST host (tests, self-hosted Pusher-compatible servers).
	Host string `koanf:"host"`
	// SocketURL overrides the websocket endpoint used by the bridge.
	SocketURL string `koanf:"socket_url"`
}

// NATSConfig configures the NATS relay.
type NATSConfig struct {
	URL           string        `koanf:"url"`
	Embedded      bool          `koanf:"embedded"`
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	CloseTimeout  time.Duration `koanf:"close_timeout"`
}

// GCPPubSubConfig configures the Google Cloud Pub/Sub relay.
type GCPPubSubConfig struct {
	ProjectID    string `koanf:"project_id"`
	Topic        string `koanf:"topic"`
	Subscription string `koanf:"subscription"`
	// Endpoint points the client at an emulator when set.
	Endpoint string `koanf:"endpoint"`
}

// SecurityConfig holds the access gate and HTTP hardening settings.
type SecurityConfig struct {
	AuthKey           string        `koanf:"auth_key"`
	CookieName        string        `koanf:"cookie_name"`
	CookieMaxAge      time.Duration `koanf:"cookie_max_age"`
	CookieSecure      bool          `koanf:"cookie_secure"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// DashboardConfig holds view settings.
type DashboardConfig struct {
	MaxOrders    int           `koanf:"max_orders"`
	StartMuted   bool          `koanf:"start_muted"`
	TickInterval time.Duration `koanf:"tick_interval"`
	TestOrders   string        `koanf:"test_orders"`
	SnapshotTTL  time.Duration `koanf:"snapshot_ttl"`
	DedupWindow  time.Duration `koanf:"dedup_window"`
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN              string  `koanf:"dsn"`
	Environment      string  `koanf:"environment"`
	TracesSampleRate float64 `koanf:"traces_sample_rate"`
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}
