// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/orderboard/internal/auth"
	"github.com/tomtom215/orderboard/internal/middleware"
)

// WebhookPath is where the commerce platform delivers order notifications.
const WebhookPath = "/api/webhook"

// SessionPath answers 204 while the access cookie is valid and 401 once it
// is not. The dashboard script asks it when its socket keeps failing.
const SessionPath = "/api/session"

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// NewRouter builds the HTTP surface.
func NewRouter(h *Handler) http.Handler {
	mw := NewChiMiddlewareFromSecurity(&h.cfg.Security)
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if h.cfg.Sentry.DSN != "" {
		// Repanic hands the panic on to Recoverer after Sentry records it.
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/healthz", func(r chi.Router) {
		r.Use(mw.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.With(mw.RateLimitHealth()).Handle("/metrics", promhttp.Handler())

	// ========================
	// Webhook
	// ========================
	// Every method is routed here; anything but POST is acknowledged and ignored.
	r.With(mw.RateLimitWebhook(), chiMiddleware(middleware.PrometheusMetrics)).
		HandleFunc(WebhookPath, h.Webhook)

	// ========================
	// Access Gate
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(PageSecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		login := h.gate.LoginHandler()
		r.Get(auth.LoginPath, login)
		r.Head(auth.LoginPath, login)
		// Only key submissions count; gate redirects land on the GET.
		r.With(mw.RateLimitLogin()).Post(auth.LoginPath, login)
	})
	r.Group(func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/logout", h.gate.LogoutHandler())
		r.Post("/logout", h.gate.LogoutHandler())
	})

	// ========================
	// Dashboard
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(PageSecurityHeaders())
		r.Use(chiMiddleware(middleware.PrometheusMetrics))
		r.Use(middleware.Compression)
		r.Use(h.gate.Redirect)
		r.Get(auth.HomePath, h.Dashboard)
	})
	r.With(mw.RateLimitWebSocket(), chiMiddleware(middleware.PrometheusMetrics), h.gate.Require).
		Get("/ws", h.DashboardSocket)
	r.With(mw.RateLimit(), APISecurityHeaders(), h.gate.Require).
		Get(SessionPath, h.Session)

	r.With(middleware.Compression).Handle("/static/*", http.StripPrefix("/static/", http.FileServer(StaticFS())))

	return r
}
