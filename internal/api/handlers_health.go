// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"context"
	"net/http"
	"time"
)

const pingTimeout = 3 * time.Second

// pinger is implemented by feeds that can check their upstream.
type pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus is the readiness report.
type HealthStatus struct {
	Status      string `json:"status"`
	Transport   string `json:"transport"`
	HubRunning  bool   `json:"hub_running"`
	Subscribers int    `json:"subscribers"`
	ShopReached bool   `json:"shop_reachable"`
	// BrokerUp is only reported when an embedded broker is configured.
	BrokerUp     *bool   `json:"embedded_broker_running,omitempty"`
	PendingViews int     `json:"pending_views"`
	Uptime       float64 `json:"uptime"`
}

// HealthLive handles liveness checks.
// Returns 200 OK if the process is alive, regardless of dependencies.
//
// GET /healthz/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, &APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
	})
}

// HealthReady handles readiness checks.
// Returns 503 until the hub runs, a relay is wired, the shop answers and
// any embedded broker is serving.
//
// GET /healthz/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		HubRunning:  h.hub != nil && h.hub.Running(),
		ShopReached: h.pingShop(r.Context()),
		Uptime:      time.Since(h.startTime).Seconds(),
	}
	if h.hub != nil {
		status.Subscribers = h.hub.SubscriberCount()
	}
	if h.relay != nil {
		status.Transport = h.relay.Name()
	}
	status.PendingViews = h.snapshots.GetStats().Keys

	ready := status.HubRunning && h.relay != nil && status.ShopReached
	if h.broker != nil {
		up := h.broker.IsRunning()
		status.BrokerUp = &up
		ready = ready && up
	}
	code := http.StatusOK
	status.Status = "ready"
	if !ready {
		code = http.StatusServiceUnavailable
		status.Status = "not_ready"
	}

	respondJSON(w, r, code, &APIResponse{Success: ready, Data: status})
}

// pingShop reports true for feeds that cannot be pinged.
func (h *Handler) pingShop(ctx context.Context) bool {
	if h.feed == nil {
		return false
	}
	p, ok := h.feed.(pinger)
	if !ok {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx) == nil
}
