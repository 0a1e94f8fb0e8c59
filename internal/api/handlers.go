// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/orderboard/internal/auth"
	"github.com/tomtom215/orderboard/internal/cache"
	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/orders"
	"github.com/tomtom215/orderboard/internal/relay"
	"github.com/tomtom215/orderboard/internal/shop"
	ws "github.com/tomtom215/orderboard/internal/websocket"
)

const (
	defaultSnapshotTTL  = 10 * time.Minute
	defaultDedupWindow  = 10 * time.Minute
	dedupCapacity       = 4096
	defaultPublishLimit = 5 * time.Second
)

// Dependencies are the collaborators the handlers need.
type Dependencies struct {
	Config *config.Config
	Feed   shop.Feed
	Relay  relay.Relay
	Hub    *ws.Hub
	Gate   *auth.Gate

	// Broker is the embedded NATS server when this process runs one.
	// Readiness then requires it to be up.
	Broker Broker
}

// Broker reports whether an in-process message broker is serving.
type Broker interface {
	IsRunning() bool
}

// Handler serves the dashboard page, its socket, the webhook receiver and
// the health checks.
type Handler struct {
	cfg    *config.Config
	feed   shop.Feed
	relay  relay.Relay
	hub    *ws.Hub
	gate   *auth.Gate
	broker Broker
	policy orders.TestPolicy

	snapshots *cache.Store[[]orders.Order]
	deduper   *cache.Deduper
	security  *logging.SecurityLogger
	upgrader  websocket.Upgrader

	startTime time.Time
	now       func() time.Time
}

// NewHandler wires the handlers. Close releases the snapshot store.
func NewHandler(deps Dependencies) *Handler {
	cfg := deps.Config

	snapshotTTL := cfg.Dashboard.SnapshotTTL
	if snapshotTTL <= 0 {
		snapshotTTL = defaultSnapshotTTL
	}
	dedupWindow := cfg.Dashboard.DedupWindow
	if dedupWindow <= 0 {
		dedupWindow = defaultDedupWindow
	}

	gate := deps.Gate
	if gate == nil {
		gate = auth.NewGate(&cfg.Security)
	}

	h := &Handler{
		cfg:       cfg,
		feed:      deps.Feed,
		relay:     deps.Relay,
		hub:       deps.Hub,
		gate:      gate,
		broker:    deps.Broker,
		policy:    orders.ParseTestPolicy(cfg.Dashboard.TestOrders),
		snapshots: cache.NewStore[[]orders.Order]("view_snapshot", snapshotTTL),
		deduper:   cache.NewDeduper(dedupCapacity, dedupWindow),
		security:  logging.NewSecurityLogger(),
		startTime: time.Now(),
		now:       time.Now,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// Close stops the snapshot sweeper.
func (h *Handler) Close() {
	h.snapshots.Close()
}

// maxOrders is the dashboard list size.
func (h *Handler) maxOrders() int {
	if h.cfg.Dashboard.MaxOrders > 0 {
		return h.cfg.Dashboard.MaxOrders
	}
	return orders.DefaultLimit
}

func (h *Handler) publishTimeout() time.Duration {
	if h.cfg.Relay.PublishTimeout > 0 {
		return h.cfg.Relay.PublishTimeout
	}
	return defaultPublishLimit
}

// fetchRecent reads the newest orders and applies the test policy.
func (h *Handler) fetchRecent(ctx context.Context) ([]orders.Order, error) {
	list, err := h.feed.Recent(ctx, h.maxOrders())
	if err != nil {
		return nil, err
	}
	return h.policy.Filter(list), nil
}

// checkWebSocketOrigin admits same-host pages and configured origins.
// Browsers always send Origin on sockets, so a missing one is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range h.cfg.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", logging.SanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
