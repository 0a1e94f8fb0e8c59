// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package relay

import (
	"context"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	pusher "github.com/pusher/pusher-http-go/v5"

	"github.com/tomtom215/orderboard/internal/breaker"
	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/orders"
)

// PusherRelay triggers events through the Pusher Channels REST API.
type PusherRelay struct {
	client  *pusher.Client
	route   Route
	breaker *breaker.Breaker
	closed  atomic.Bool
}

// NewPusherRelay builds a REST client from cfg. A Host with an http://
// scheme turns TLS off (local Pusher-compatible servers).
func NewPusherRelay(cfg *config.PusherConfig, route Route, timeout time.Duration) *PusherRelay {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	client := &pusher.Client{
		AppID:      cfg.AppID,
		Key:        cfg.Key,
		Secret:     cfg.Secret,
		Cluster:    cfg.Cluster,
		Secure:     true,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if cfg.Host != "" {
		host := cfg.Host
		if strings.HasPrefix(host, "http://") {
			client.Secure = false
		}
		host = strings.TrimPrefix(strings.TrimPrefix(host, "http://"), "https://")
		client.Host = strings.TrimRight(host, "/")
	}

	return &PusherRelay{
		client:  client,
		route:   route,
		breaker: breaker.New("relay-" + config.TransportPusher),
	}
}

// Name returns the transport name.
func (r *PusherRelay) Name() string { return config.TransportPusher }

// Publish triggers the configured event with the order as JSON data. The
// REST client has no context support; the HTTP timeout bounds the call.
func (r *PusherRelay) Publish(ctx context.Context, o orders.Order) (err error) {
	start := time.Now()
	defer func() { observe(config.TransportPusher, start, err) }()

	if r.closed.Load() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := EncodeOrder(o)
	if err != nil {
		return err
	}
	return r.breaker.Do(func() error {
		return r.client.Trigger(r.route.Channel, r.route.Event, payload)
	})
}

// Close stops further publishes.
func (r *PusherRelay) Close() error {
	r.closed.Store(true)
	return nil
}
