// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns a secure default configuration.
// CORS origins default to empty, requiring explicit configuration.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "POST", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

// NewChiMiddlewareFromSecurity bridges the security settings to the
// middleware factory.
func NewChiMiddlewareFromSecurity(sec *config.SecurityConfig) *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = sec.CORSOrigins
	if sec.RateLimitReqs > 0 {
		cfg.RateLimitRequests = sec.RateLimitReqs
	}
	if sec.RateLimitWindow > 0 {
		cfg.RateLimitWindow = sec.RateLimitWindow
	}
	cfg.RateLimitDisabled = sec.RateLimitDisabled
	return NewChiMiddleware(cfg)
}

// ChiMiddleware provides Chi-compatible middleware factories.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates a new Chi middleware factory with the given configuration.
func NewChiMiddleware(config *ChiMiddlewareConfig) *ChiMiddleware {
	if config == nil {
		config = DefaultChiMiddlewareConfig()
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: config.CORSAllowedMethods,
		AllowedHeaders: config.CORSAllowedHeaders,
		MaxAge:         config.CORSMaxAge,
	})

	return &ChiMiddleware{
		config: config,
		cors:   corsHandler,
	}
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitConfig defines rate limit parameters for specific endpoints.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Endpoint-specific rate limits.
var (
	// RateLimitLogin is very strict for key submissions.
	RateLimitLogin = RateLimitConfig{Requests: 5, Window: 5 * time.Minute}

	// RateLimitWebhook leaves room for bursts of order deliveries.
	RateLimitWebhook = RateLimitConfig{Requests: 600, Window: time.Minute}

	// RateLimitWebSocket bounds socket upgrades (page reloads, reconnects).
	RateLimitWebSocket = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitHealth is permissive for monitoring checks.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

func noopMiddleware(next http.Handler) http.Handler { return next }

// RateLimit is the default page limit from the security settings.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitConfig{Requests: m.config.RateLimitRequests, Window: m.config.RateLimitWindow})
}

// RateLimitCustom returns an IP-keyed httprate limiter.
func (m *ChiMiddleware) RateLimitCustom(config RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return noopMiddleware
	}
	return httprate.LimitByIP(config.Requests, config.Window)
}

// RateLimitLogin prevents brute forcing the access key.
func (m *ChiMiddleware) RateLimitLogin() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitLogin)
}

// RateLimitWebhook limits webhook deliveries.
func (m *ChiMiddleware) RateLimitWebhook() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitWebhook)
}

// RateLimitWebSocket limits socket upgrades.
func (m *ChiMiddleware) RateLimitWebSocket() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitWebSocket)
}

// RateLimitHealth limits health checks.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// APISecurityHeaders adds the headers every non-HTML response gets.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

type contextKey string

// CSPNonceContextKey holds the per-request script nonce.
const CSPNonceContextKey contextKey = "csp-nonce"

// CSPNonce returns the nonce stored by PageSecurityHeaders.
func CSPNonce(ctx context.Context) string {
	nonce, _ := ctx.Value(CSPNonceContextKey).(string)
	return nonce
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// PageSecurityHeaders adds APISecurityHeaders plus a nonce-based CSP for
// HTML pages. The nonce is available to templates through CSPNonce.
func PageSecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		inner := APISecurityHeaders()(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nonce, err := generateNonce()
			if err != nil {
				logging.Warn().Err(err).Msg("Failed to generate CSP nonce")
				nonce = ""
			}
			r = r.WithContext(context.WithValue(r.Context(), CSPNonceContextKey, nonce))

			csp := "default-src 'self'; " +
				"script-src 'self' 'nonce-" + nonce + "'; " +
				"style-src 'self' 'unsafe-inline'; " +
				"img-src 'self' data:; " +
				"connect-src 'self' wss: ws:; " +
				"frame-ancestors 'none'; " +
				"base-uri 'self'; " +
				"form-action 'self'"
			w.Header().Set("Content-Security-Policy", csp)
			w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
			inner.ServeHTTP(w, r)
		})
	}
}
