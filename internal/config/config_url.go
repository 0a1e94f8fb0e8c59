// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// validateHTTPURL checks for an http(s) base URL with a host and no path or query.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, u.RawQuery)
	}
	return nil
}

// validateNATSURL accepts nats, tls, ws and wss URLs with a host.
func validateNATSURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	switch u.Scheme {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}

// NormalizeShopURL turns a bare shop domain into an https base URL and
// strips a trailing slash. Empty input stays empty.
func NormalizeShopURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	return strings.TrimRight(s, "/")
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
