// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package websocket

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/orderboard/internal/dashboard"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/metrics"
	"github.com/tomtom215/orderboard/internal/orders"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

const (
	broadcastBuffer    = 256
	subscriptionBuffer = 32
)

// ErrHubStopped is returned to views subscribing while the hub is not running.
var ErrHubStopped = errors.New("websocket: hub is not running")

// Event is one relay event addressed to a channel.
type Event struct {
	Channel string       `json:"channel"`
	Name    string       `json:"event"`
	Order   orders.Order `json:"data"`
}

// subscriptionIDCounter orders subscriptions for deterministic fan-out.
var subscriptionIDCounter atomic.Uint64

// Subscription receives the orders of one channel/event pair.
type Subscription struct {
	id      uint64
	hub     *Hub
	channel string
	event   string
	ch      chan orders.Order
	once    sync.Once
}

// Events delivers orders until the subscription is closed, by the caller,
// by the hub on shutdown, or because the subscriber fell behind.
func (s *Subscription) Events() <-chan orders.Order { return s.ch }

// Close unsubscribes. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub owns every live subscription in the process. It is created once at
// startup and handed to the relay, the webhook handler and the socket
// handler.
type Hub struct {
	subs      map[*Subscription]bool
	broadcast chan Event
	mu        sync.RWMutex
	running   atomic.Bool
}

// NewHub creates a hub. RunWithContext must be running for events to flow.
func NewHub() *Hub {
	return &Hub{
		subs:      make(map[*Subscription]bool),
		broadcast: make(chan Event, broadcastBuffer),
	}
}

// Subscribe registers interest in event on channel.
func (h *Hub) Subscribe(channel, event string) *Subscription {
	s := &Subscription{
		id:      subscriptionIDCounter.Add(1),
		hub:     h,
		channel: channel,
		event:   event,
		ch:      make(chan orders.Order, subscriptionBuffer),
	}

	h.mu.Lock()
	h.subs[s] = true
	n := len(h.subs)
	h.mu.Unlock()

	metrics.HubSubscribers.Set(float64(n))
	logging.Debug().Str("channel", channel).Str("event", event).Int("total_subscribers", n).Msg("hub subscription added")
	return s
}

// Subscriber adapts the hub to a dashboard view. Subscribing fails while the
// hub loop is not running, so the view can show that it is offline.
func (h *Hub) Subscriber(channel, event string) dashboard.SubscribeFunc {
	return func(context.Context) (dashboard.Subscription, error) {
		if !h.running.Load() {
			return nil, ErrHubStopped
		}
		return h.Subscribe(channel, event), nil
	}
}

// Running reports whether RunWithContext is active.
func (h *Hub) Running() bool { return h.running.Load() }

// Publish queues ev for fan-out. It never blocks and returns false when the
// broadcast buffer is full.
func (h *Hub) Publish(ev Event) bool {
	select {
	case h.broadcast <- ev:
		metrics.HubEvents.WithLabelValues("queued").Inc()
		return true
	default:
		metrics.HubEvents.WithLabelValues("dropped_full").Inc()
		logging.Warn().Str("channel", ev.Channel).Str("event", ev.Name).Msg("broadcast channel full, dropping order event")
		return false
	}
}

// SubscriberCount returns the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// RunWithContext fans queued events out until ctx ends, then closes every
// subscription and returns ctx.Err(). Designed for suture supervision.
//
// Shutdown is checked before each event so a burst of events cannot delay it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		case ev := <-h.broadcast:
			h.fanOut(ev)
		}
	}
}

// logGracefulShutdown closes all subscriptions and logs without an error
// field; cancellation is the expected path.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	count := h.SubscriberCount()
	h.closeAll()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("subscriptions_closed", count).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// fanOut delivers ev to matching subscriptions in id order. A subscription
// whose buffer is full is closed and removed.
func (h *Hub) fanOut(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.sortedLocked()
	var slow []*Subscription
	delivered := 0
	for _, s := range subs {
		if s.channel != ev.Channel || s.event != ev.Name {
			continue
		}
		select {
		case s.ch <- ev.Order:
			delivered++
		default:
			slow = append(slow, s)
		}
	}

	for _, s := range slow {
		h.dropLocked(s)
		metrics.HubSlowSubscribers.Inc()
		logging.Warn().Uint64("subscription", s.id).Msg("dropping slow hub subscriber")
	}
	if len(slow) > 0 {
		metrics.HubSubscribers.Set(float64(len(h.subs)))
	}

	logging.Debug().Str("order", ev.Order.Name).Int("delivered", delivered).Msg("hub event delivered")
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	h.dropLocked(s)
	n := len(h.subs)
	h.mu.Unlock()
	metrics.HubSubscribers.Set(float64(n))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for _, s := range h.sortedLocked() {
		h.dropLocked(s)
	}
	h.mu.Unlock()
	metrics.HubSubscribers.Set(0)
}

// dropLocked removes s and closes its channel exactly once. h.mu must be held.
func (h *Hub) dropLocked(s *Subscription) {
	delete(h.subs, s)
	s.once.Do(func() { close(s.ch) })
}

func (h *Hub) sortedLocked() []*Subscription {
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].id < subs[j].id })
	return subs
}
