// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package relay fans "new order" events out to every dashboard session.

Exactly one transport is active per deployment:

  - socket: the in-process hub is the relay
  - pusher: Pusher Channels REST trigger, PusherBridge reads the channel back
  - nats: Watermill NATS publisher, NATSBridge subscribes (optionally embedded server)
  - gcppubsub: Google Cloud Pub/Sub topic, PubSubBridge owns a per-instance subscription

Every broker transport pairs a Relay (publish side) with a Bridge (a
supervised service that receives from the broker and feeds the local hub),
so browsers always attach to the local socket endpoint.

Delivery is best effort: no replay, no ordering across concurrent publishes.
*/
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderboard/internal/metrics"
	"github.com/tomtom215/orderboard/internal/orders"
	"github.com/tomtom215/orderboard/internal/websocket"
)

// Envelope attribute keys carried by broker messages.
const (
	AttrChannel = "channel"
	AttrEvent   = "event"
)

var (
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("relay: closed")
	// ErrHubFull is returned when the local hub cannot queue the event.
	ErrHubFull = errors.New("relay: hub broadcast buffer full")
)

// Relay publishes normalized orders to every dashboard session.
type Relay interface {
	Publish(ctx context.Context, o orders.Order) error
	Name() string
	Close() error
}

// Bridge receives events from a broker and hands them to the local hub.
// Serve blocks until ctx ends; it satisfies suture.Service.
type Bridge interface {
	Serve(ctx context.Context) error
	String() string
}

// Sink is the hub side a bridge delivers into.
type Sink interface {
	Publish(ev websocket.Event) bool
}

// Route names the channel and event a relay publishes on.
type Route struct {
	Channel string
	Event   string
}

// Matches reports whether a received envelope belongs to this route.
func (r Route) Matches(channel, event string) bool {
	return channel == r.Channel && event == r.Event
}

// EncodeOrder is the wire payload of every transport.
func EncodeOrder(o orders.Order) ([]byte, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("encode order %s: %w", o.ID, err)
	}
	return data, nil
}

// DecodeOrder reverses EncodeOrder.
func DecodeOrder(data []byte) (orders.Order, error) {
	var o orders.Order
	if err := json.Unmarshal(data, &o); err != nil {
		return orders.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}

// deliver hands a decoded envelope to the hub, counting the outcome.
func deliver(sink Sink, transport string, route Route, channel, event string, payload []byte) {
	if !route.Matches(channel, event) {
		metrics.RecordBridgeMessage(transport, "filtered")
		return
	}
	o, err := DecodeOrder(payload)
	if err != nil {
		metrics.RecordBridgeMessage(transport, "decode_error")
		return
	}
	if !sink.Publish(websocket.Event{Channel: channel, Name: event, Order: o}) {
		metrics.RecordBridgeMessage(transport, "hub_full")
		return
	}
	metrics.RecordBridgeMessage(transport, "delivered")
}

// observe records one publish attempt.
func observe(transport string, start time.Time, err error) {
	metrics.RecordRelayPublish(transport, time.Since(start), err)
}
