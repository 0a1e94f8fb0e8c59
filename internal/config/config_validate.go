// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/orderboard/internal/logging"
)

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour

	maxDashboardOrders = 250
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateShop(); err != nil {
		return err
	}
	if err := c.validateRelay(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateDashboard(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateShop() error {
	if c.Shop.URL == "" {
		return fmt.Errorf("SHOP_URL is required")
	}
	if err := validateHTTPURL(c.Shop.URL, "SHOP_URL"); err != nil {
		return err
	}
	if c.Shop.AccessToken == "" {
		return fmt.Errorf("SHOP_API_SECRET_KEY is required")
	}
	if c.Shop.APIVersion == "" {
		return fmt.Errorf("SHOP_API_VERSION must not be empty")
	}
	if c.Shop.Timeout <= 0 {
		return fmt.Errorf("SHOP_TIMEOUT must be positive")
	}
	if c.Shop.RateLimit <= 0 || c.Shop.RateBurst < 1 {
		return fmt.Errorf("SHOP_RATE_LIMIT and SHOP_RATE_BURST must be positive")
	}
	return nil
}

func (c *Config) validateRelay() error {
	if c.Relay.Channel == "" || c.Relay.Event == "" {
		return fmt.Errorf("RELAY_CHANNEL and RELAY_EVENT must not be empty")
	}
	if c.Relay.PublishTimeout <= 0 {
		return fmt.Errorf("RELAY_PUBLISH_TIMEOUT must be positive")
	}

	switch c.Relay.Transport {
	case TransportSocket:
		return nil
	case TransportPusher:
		return c.validatePusher()
	case TransportNATS:
		return c.validateNATS()
	case TransportGCPPubSub:
		return c.validateGCPPubSub()
	default:
		return fmt.Errorf("RELAY_TRANSPORT must be one of: %s, %s, %s, %s, got %q",
			TransportSocket, TransportPusher, TransportNATS, TransportGCPPubSub, c.Relay.Transport)
	}
}

func (c *Config) validatePusher() error {
	p := c.Relay.Pusher
	if p.AppID == "" || p.Key == "" || p.Secret == "" {
		return fmt.Errorf("PUSHER_APP_ID, PUSHER_APP_KEY and PUSHER_APP_SECRET are required when RELAY_TRANSPORT=pusher")
	}
	if p.Cluster == "" && p.Host == "" {
		return fmt.Errorf("PUSHER_APP_CLUSTER (or PUSHER_HOST) is required when RELAY_TRANSPORT=pusher")
	}
	return nil
}

func (c *Config) validateNATS() error {
	n := c.Relay.NATS
	if n.Embedded {
		if n.Port < 0 || n.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 0 and 65535")
		}
		return nil
	}
	if err := validateNATSURL(n.URL); err != nil {
		return fmt.Errorf("NATS_URL: %w", err)
	}
	if n.SubjectPrefix == "" {
		return fmt.Errorf("NATS_SUBJECT_PREFIX must not be empty")
	}
	return nil
}

func (c *Config) validateGCPPubSub() error {
	p := c.Relay.PubSub
	if p.ProjectID == "" || p.Topic == "" {
		return fmt.Errorf("PUBSUB_PROJECT_ID and PUBSUB_TOPIC are required when RELAY_TRANSPORT=gcppubsub")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.AuthKey == "" {
		return fmt.Errorf("AUTH_KEY is required")
	}
	if c.Security.CookieName == "" {
		return fmt.Errorf("cookie name must not be empty")
	}
	if c.Security.CookieMaxAge < time.Second {
		return fmt.Errorf("cookie max age must be at least one second")
	}
	if c.IsProduction() && !c.Security.CookieSecure {
		logging.Warn().Msg("COOKIE_SECURE is false in production; the access cookie will be sent over plain HTTP")
	}
	return c.validateRateLimits()
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

func (c *Config) validateDashboard() error {
	d := c.Dashboard
	if d.MaxOrders < 1 || d.MaxOrders > maxDashboardOrders {
		return fmt.Errorf("DASHBOARD_MAX_ORDERS must be between 1 and %d", maxDashboardOrders)
	}
	if d.TickInterval < 100*time.Millisecond {
		return fmt.Errorf("DASHBOARD_TICK_INTERVAL must be at least 100ms")
	}
	if d.TestOrders != TestOrdersDim && d.TestOrders != TestOrdersHide {
		return fmt.Errorf("DASHBOARD_TEST_ORDERS must be %q or %q", TestOrdersDim, TestOrdersHide)
	}
	if d.SnapshotTTL <= 0 || d.DedupWindow <= 0 {
		return fmt.Errorf("dashboard snapshot TTL and dedup window must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

// IsProduction reports ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment reports an empty or development ENVIRONMENT.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}
