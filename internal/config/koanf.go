// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/orderboard/config.yaml",
	"/etc/orderboard/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Shop: ShopConfig{
			APIVersion: "2024-04",
			Timeout:    30 * time.Second,
			RateLimit:  2,
			RateBurst:  4,
		},
		Relay: RelayConfig{
			Transport:      TransportSocket,
			Channel:        "default",
			Event:          "order-created",
			PublishTimeout: 5 * time.Second,
			NATS: NATSConfig{
				URL:           "nats://127.0.0.1:4222",
				Host:          "127.0.0.1",
				Port:          4222,
				SubjectPrefix: "orderboard",
				MaxReconnects: -1,
				ReconnectWait: 2 * time.Second,
				CloseTimeout:  10 * time.Second,
			},
			PubSub: GCPPubSubConfig{
				Topic: "orderboard-orders",
			},
		},
		Security: SecurityConfig{
			CookieName:      "key",
			CookieMaxAge:    7 * 24 * time.Hour,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Dashboard: DashboardConfig{
			MaxOrders:    15,
			StartMuted:   true,
			TickInterval: time.Second,
			TestOrders:   TestOrdersDim,
			SnapshotTTL:  10 * time.Minute,
			DedupWindow:  10 * time.Minute,
		},
		Sentry: SentryConfig{
			TracesSampleRate: 0,
		},
	}
}

// LoadWithKoanf loads configuration in layers: defaults, then the first
// config file found, then environment variables. The result is validated.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Shop.URL = NormalizeShopURL(cfg.Shop.URL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// The unprefixed names match the deployment variables operators already set.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"port":                  "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Shop
	"shop_url":               "shop.url",
	"shop_api_secret_key":    "shop.access_token",
	"shop_api_version":       "shop.api_version",
	"shop_webhook_secret":    "shop.webhook_secret",
	"shop_exclude_cancelled": "shop.exclude_cancelled",
	"shop_timeout":           "shop.timeout",
	"shop_rate_limit":        "shop.rate_limit",
	"shop_rate_burst":        "shop.rate_burst",

	// Relay
	"relay_transport":       "relay.transport",
	"relay_channel":         "relay.channel",
	"relay_event":           "relay.event",
	"relay_publish_timeout": "relay.publish_timeout",

	// Pusher (hosted relay); NEXT_PUBLIC_ names are kept for existing deployments
	"pusher_app_id":                  "relay.pusher.app_id",
	"pusher_app_key":                 "relay.pusher.key",
	"next_public_pusher_app_key":     "relay.pusher.key",
	"pusher_app_secret":              "relay.pusher.secret",
	"pusher_app_cluster":             "relay.pusher.cluster",
	"next_public_pusher_app_cluster": "relay.pusher.cluster",
	"pusher_host":                    "relay.pusher.host",
	"pusher_socket_url":              "relay.pusher.socket_url",

	// NATS
	"nats_url":            "relay.nats.url",
	"nats_embedded":       "relay.nats.embedded",
	"nats_host":           "relay.nats.host",
	"nats_port":           "relay.nats.port",
	"nats_subject_prefix": "relay.nats.subject_prefix",

	// Google Cloud Pub/Sub
	"pubsub_project_id":    "relay.gcppubsub.project_id",
	"pubsub_topic":         "relay.gcppubsub.topic",
	"pubsub_subscription":  "relay.gcppubsub.subscription",
	"pubsub_emulator_host": "relay.gcppubsub.endpoint",

	// Security
	"auth_key":            "security.auth_key",
	"cookie_secure":       "security.cookie_secure",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Dashboard
	"dashboard_max_orders":    "dashboard.max_orders",
	"dashboard_start_muted":   "dashboard.start_muted",
	"dashboard_tick_interval": "dashboard.tick_interval",
	"dashboard_test_orders":   "dashboard.test_orders",
	"dashboard_snapshot_ttl":  "dashboard.snapshot_ttl",

	// Sentry
	"sentry_dsn":                "sentry.dsn",
	"sentry_environment":        "sentry.environment",
	"sentry_traces_sample_rate": "sentry.traces_sample_rate",
}

// envTransformFunc maps a known environment variable to its koanf path.
// Unknown variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
