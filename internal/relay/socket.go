// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package relay

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/orders"
	"github.com/tomtom215/orderboard/internal/websocket"
)

// SocketRelay is the self-hosted relay: publishing goes straight into the
// process hub.
type SocketRelay struct {
	hub    Sink
	route  Route
	closed atomic.Bool
}

// NewSocketRelay publishes into hub on route.
func NewSocketRelay(hub Sink, route Route) *SocketRelay {
	return &SocketRelay{hub: hub, route: route}
}

// Name returns the transport name.
func (r *SocketRelay) Name() string { return config.TransportSocket }

// Publish queues o on the hub. It never blocks.
func (r *SocketRelay) Publish(ctx context.Context, o orders.Order) (err error) {
	start := time.Now()
	defer func() { observe(config.TransportSocket, start, err) }()

	if r.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if !r.hub.Publish(websocket.Event{Channel: r.route.Channel, Name: r.route.Event, Order: o}) {
		return ErrHubFull
	}
	return nil
}

// Close stops further publishes. The hub itself is owned by the caller.
func (r *SocketRelay) Close() error {
	r.closed.Store(true)
	return nil
}
