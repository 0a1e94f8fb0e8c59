// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package metrics defines Orderboard's Prometheus instruments.
//
// Instruments are registered on the default registry through promauto and
// exposed by the /metrics route. Callers use the Record* helpers so label
// values stay consistent.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderboard_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderboard_api_active_requests",
			Help: "Number of in-flight HTTP requests",
		},
	)

	// Webhook receiver
	WebhookRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_webhook_requests_total",
			Help: "Webhook deliveries by outcome",
		},
		[]string{"outcome"}, // accepted, ignored_method, invalid_signature, duplicate, malformed, filtered, relay_failed
	)

	// Access gate
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_gate_decisions_total",
			Help: "Access gate decisions",
		},
		[]string{"mode", "outcome"}, // redirect|require, allowed|denied
	)

	// Order feed
	FeedFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "orderboard_feed_fetch_duration_seconds",
			Help:    "Duration of order feed GraphQL requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	FeedFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_feed_fetch_errors_total",
			Help: "Order feed failures by reason",
		},
		[]string{"reason"}, // transport, status, graphql, decode, circuit_open, rate_limit
	)

	FeedOrdersFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderboard_feed_orders_fetched_total",
			Help: "Orders returned by the feed",
		},
	)

	// Relay
	RelayPublishes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_relay_publishes_total",
			Help: "Relay publish attempts by transport and result",
		},
		[]string{"transport", "result"},
	)

	RelayPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orderboard_relay_publish_duration_seconds",
			Help:    "Relay publish latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 5},
		},
		[]string{"transport"},
	)

	BridgeMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_relay_bridge_messages_total",
			Help: "Messages received from a broker and handed to the local hub",
		},
		[]string{"transport", "result"}, // delivered, filtered, decode_error, hub_full
	)

	// Hub
	HubSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderboard_hub_subscribers",
			Help: "Current number of hub subscriptions",
		},
	)

	HubEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_hub_events_total",
			Help: "Hub events by result",
		},
		[]string{"result"}, // queued, dropped_full
	)

	HubSlowSubscribers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderboard_hub_slow_subscribers_total",
			Help: "Subscriptions closed because their buffer was full",
		},
	)

	// WebSocket
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "orderboard_websocket_connections",
			Help: "Current number of dashboard WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderboard_websocket_messages_sent_total",
			Help: "Frames written to dashboard sockets",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderboard_websocket_messages_received_total",
			Help: "Control messages read from dashboard sockets",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_websocket_errors_total",
			Help: "WebSocket errors by type",
		},
		[]string{"error_type"},
	)

	// Dashboard views
	DashboardViews = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orderboard_dashboard_views",
			Help: "Dashboard views by lifecycle state",
		},
		[]string{"state"},
	)

	DashboardCues = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orderboard_dashboard_audio_cues_total",
			Help: "Audio cues requested by dashboard views",
		},
	)

	// Cache
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_cache_hits_total",
			Help: "Cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_cache_misses_total",
			Help: "Cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orderboard_cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orderboard_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_circuit_breaker_requests_total",
			Help: "Requests through a circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orderboard_circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderboard_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records one HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest moves the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordWebhook counts a webhook delivery outcome.
func RecordWebhook(outcome string) {
	WebhookRequests.WithLabelValues(outcome).Inc()
}

// RecordGateDecision counts one access check.
func RecordGateDecision(mode string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	GateDecisions.WithLabelValues(mode, outcome).Inc()
}

// RecordFeedFetch records one feed request. reason is ignored on success.
func RecordFeedFetch(duration time.Duration, orders int, reason string, err error) {
	FeedFetchDuration.Observe(duration.Seconds())
	if err != nil {
		FeedFetchErrors.WithLabelValues(reason).Inc()
		return
	}
	FeedOrdersFetched.Add(float64(orders))
}

// RecordRelayPublish records one relay publish.
func RecordRelayPublish(transport string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	RelayPublishes.WithLabelValues(transport, result).Inc()
	RelayPublishDuration.WithLabelValues(transport).Observe(duration.Seconds())
}

// RecordBridgeMessage records a broker message handed to the hub.
func RecordBridgeMessage(transport, result string) {
	BridgeMessages.WithLabelValues(transport, result).Inc()
}

// RecordCacheAccess counts a hit or a miss.
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cacheType).Inc()
	} else {
		CacheMisses.WithLabelValues(cacheType).Inc()
	}
}

// RecordViewTransition moves a dashboard view between state gauges.
// An empty from means the view is new.
func RecordViewTransition(from, to string) {
	if from != "" {
		DashboardViews.WithLabelValues(from).Dec()
	}
	DashboardViews.WithLabelValues(to).Inc()
}
