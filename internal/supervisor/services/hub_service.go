// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package services

import "context"

// ContextHub is satisfied by *websocket.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService supervises the event hub. Every open dashboard socket
// subscribes through it, and the socket relay and broker bridges publish
// into it.
type HubService struct {
	hub ContextHub
}

// NewHubService wraps hub.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{hub: hub}
}

// Serve runs the hub until ctx ends.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String names the service in supervisor events.
func (s *HubService) String() string {
	return "event-hub"
}
