// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/orders"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

const (
	testKey     = "dashboard-key"
	testChannel = "orders"
	testEvent   = "order-created"
)

var errShopDown = errors.New("shop unreachable")

// fakeFeed serves a fixed list and counts fetches.
type fakeFeed struct {
	mu      sync.Mutex
	list    []orders.Order
	err     error
	pingErr error
	calls   int
}

func (f *fakeFeed) Recent(_ context.Context, limit int) ([]orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.list) > limit {
		return append([]orders.Order(nil), f.list[:limit]...), nil
	}
	return append([]orders.Order(nil), f.list...), nil
}

func (f *fakeFeed) Ping(context.Context) error { return f.pingErr }

func (f *fakeFeed) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingRelay keeps what was published.
type recordingRelay struct {
	mu        sync.Mutex
	published []orders.Order
	err       error
}

func (r *recordingRelay) Publish(_ context.Context, o orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.published = append(r.published, o)
	return nil
}

func (r *recordingRelay) Name() string { return "recording" }
func (r *recordingRelay) Close() error { return nil }

func (r *recordingRelay) orders() []orders.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]orders.Order(nil), r.published...)
}

func testConfig() *config.Config {
	return &config.Config{
		Security: config.SecurityConfig{
			AuthKey:           testKey,
			RateLimitDisabled: true,
		},
		Relay: config.RelayConfig{
			Channel:        testChannel,
			Event:          testEvent,
			PublishTimeout: time.Second,
		},
		Dashboard: config.DashboardConfig{
			MaxOrders:    15,
			StartMuted:   true,
			TickInterval: time.Hour,
			TestOrders:   config.TestOrdersDim,
		},
	}
}

func sampleOrders(now time.Time) []orders.Order {
	return []orders.Order{
		{
			ID:              "gid://shopify/Order/2",
			Name:            "#1002",
			CustomerName:    "Ada Lovelace",
			Price:           42.5,
			ProcessedAt:     now.Add(-2 * time.Minute).UTC().Format(time.RFC3339),
			FinancialStatus: "PAID",
		},
		{
			ID:              "gid://shopify/Order/1",
			Name:            "#1001",
			IsTest:          true,
			CustomerName:    "Test Buyer",
			Price:           1,
			ProcessedAt:     now.Add(-3 * time.Hour).UTC().Format(time.RFC3339),
			FinancialStatus: "PENDING",
		},
	}
}

// newTestHandler builds a handler over feed and rel. mutate may adjust the
// config before wiring.
func newTestHandler(t *testing.T, feed *fakeFeed, rel *recordingRelay, mutate func(*config.Config)) *Handler {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	h := NewHandler(Dependencies{Config: cfg, Feed: feed, Relay: rel})
	t.Cleanup(h.Close)
	return h
}
