// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

//go:build integration

package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/testinfra"
)

// publishUntilDelivered keeps publishing until the sink sees the order.
// Subscriptions on real brokers become active asynchronously.
func publishUntilDelivered(t *testing.T, r Relay, sink *chanSink, id string) {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, r.Publish(ctx, sampleOrder(id)))
		select {
		case ev := <-sink.events:
			assert.Equal(t, id, ev.Order.ID)
			assert.Equal(t, testRoute.Channel, ev.Channel)
			assert.Equal(t, testRoute.Event, ev.Name)
			return
		case <-time.After(250 * time.Millisecond):
		}
	}
	t.Fatalf("%s never delivered order %s", r.Name(), id)
}

func stopBridge(t *testing.T, cancel context.CancelFunc, served <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-served:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(15 * time.Second):
		t.Fatal("bridge did not stop")
	}
}

func TestIntegration_NATSContainer(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	nc, err := testinfra.NewNATSContainer(ctx)
	require.NoError(t, err)
	testinfra.CleanupContainer(t, nc.Container)

	cfg := &config.NATSConfig{
		URL:           nc.URL,
		SubjectPrefix: "orderboard",
		MaxReconnects: 5,
		ReconnectWait: 250 * time.Millisecond,
		CloseTimeout:  5 * time.Second,
	}

	sink := newChanSink(16)
	bridgeCtx, stop := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- NewNATSBridge(cfg, testRoute, sink).Serve(bridgeCtx) }()

	r, err := NewNATSRelay(cfg, testRoute)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	publishUntilDelivered(t, r, sink, "5150")
	stopBridge(t, stop, served)
}

func TestIntegration_PubSubEmulator(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	emu, err := testinfra.NewPubSubEmulator(ctx)
	require.NoError(t, err)
	testinfra.CleanupContainer(t, emu.Container)

	cfg := &config.GCPPubSubConfig{
		ProjectID: emu.Project,
		Topic:     "orders",
		Endpoint:  emu.Endpoint,
	}

	// The relay creates the topic the bridge subscribes to.
	r, err := NewPubSubRelay(ctx, cfg, testRoute)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	sink := newChanSink(16)
	bridgeCtx, stop := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- NewPubSubBridge(cfg, testRoute, sink).Serve(bridgeCtx) }()

	publishUntilDelivered(t, r, sink, "6060")
	stopBridge(t, stop, served)
}
