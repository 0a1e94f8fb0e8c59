// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package websocket

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/orders"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates a hub and runs it until the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = hub.RunWithContext(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	waitFor(t, hub.Running, "hub to start")
	return hub
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testEvent(id string) Event {
	return Event{Channel: "default", Name: "order-created", Order: orders.Order{ID: id, Name: "#" + id}}
}

func recv(t *testing.T, s *Subscription) (orders.Order, bool) {
	t.Helper()
	select {
	case o, ok := <-s.Events():
		return o, ok
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for order")
		return orders.Order{}, false
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub.subs == nil || hub.broadcast == nil {
		t.Fatal("hub not initialized")
	}
	if cap(hub.broadcast) != broadcastBuffer {
		t.Errorf("broadcast capacity = %d, want %d", cap(hub.broadcast), broadcastBuffer)
	}
	if hub.SubscriberCount() != 0 || hub.Running() {
		t.Error("new hub should be empty and stopped")
	}
}

func TestHub_FanOutToMatchingSubscribers(t *testing.T) {
	hub := setupHub(t)

	a := hub.Subscribe("default", "order-created")
	b := hub.Subscribe("default", "order-created")
	other := hub.Subscribe("other", "order-created")
	otherEvent := hub.Subscribe("default", "order-updated")

	if !hub.Publish(testEvent("1")) {
		t.Fatal("Publish() = false on an empty buffer")
	}

	for _, s := range []*Subscription{a, b} {
		o, ok := recv(t, s)
		if !ok || o.ID != "1" {
			t.Errorf("got %+v, %v", o, ok)
		}
	}

	select {
	case o := <-other.Events():
		t.Errorf("other channel received %+v", o)
	case o := <-otherEvent.Events():
		t.Errorf("other event received %+v", o)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_SubscriptionCloseIdempotent(t *testing.T) {
	hub := setupHub(t)

	s := hub.Subscribe("default", "order-created")
	if hub.SubscriberCount() != 1 {
		t.Fatalf("SubscriberCount() = %d, want 1", hub.SubscriberCount())
	}
	s.Close()
	s.Close()

	if hub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", hub.SubscriberCount())
	}
	if _, ok := <-s.Events(); ok {
		t.Error("closed subscription should have a closed channel")
	}
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := setupHub(t)

	slow := hub.Subscribe("default", "order-created")
	fast := hub.Subscribe("default", "order-created")

	// Fill the slow buffer while the fast subscriber keeps up.
	for i := 0; i < subscriptionBuffer; i++ {
		hub.Publish(testEvent("x"))
		recv(t, fast)
	}
	hub.Publish(testEvent("overflow"))
	if o, _ := recv(t, fast); o.ID != "overflow" {
		t.Fatalf("fast subscriber got %+v", o)
	}

	waitFor(t, func() bool { return hub.SubscriberCount() == 1 }, "slow subscriber removal")

	n := 0
	for range slow.Events() {
		n++
	}
	if n != subscriptionBuffer {
		t.Errorf("slow subscriber drained %d, want %d before close", n, subscriptionBuffer)
	}
}

func TestHub_PublishFullBuffer(t *testing.T) {
	hub := NewHub() // not running, nothing drains the buffer

	for i := 0; i < broadcastBuffer; i++ {
		if !hub.Publish(testEvent("x")) {
			t.Fatalf("Publish() = false at %d", i)
		}
	}
	if hub.Publish(testEvent("overflow")) {
		t.Error("Publish() should report a full buffer")
	}
}

func TestHub_ShutdownClosesSubscriptions(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- hub.RunWithContext(ctx) }()
	waitFor(t, hub.Running, "hub to start")

	s := hub.Subscribe("default", "order-created")
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("RunWithContext() = %v, want context.Canceled", err)
	}
	if _, ok := <-s.Events(); ok {
		t.Error("subscription should be closed on shutdown")
	}
	if hub.SubscriberCount() != 0 || hub.Running() {
		t.Error("hub should be empty and stopped")
	}
}

func TestHub_SubscriberRequiresRunningHub(t *testing.T) {
	hub := NewHub()
	if _, err := hub.Subscriber("default", "order-created")(context.Background()); !errors.Is(err, ErrHubStopped) {
		t.Errorf("Subscriber() on stopped hub = %v, want ErrHubStopped", err)
	}

	hub = setupHub(t)
	sub, err := hub.Subscriber("default", "order-created")(context.Background())
	if err != nil {
		t.Fatalf("Subscriber() = %v", err)
	}
	defer sub.Close()
	if hub.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", hub.SubscriberCount())
	}
}

func TestGetShutdownReason(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := getShutdownReason(ctx); got != ShutdownReasonContextCanceled {
		t.Errorf("canceled: got %s", got)
	}

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if got := getShutdownReason(ctx); got != ShutdownReasonContextDeadline {
		t.Errorf("deadline: got %s", got)
	}
}

func TestHub_ConcurrentOperations(t *testing.T) {
	hub := setupHub(t)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := hub.Subscribe("default", "order-created")
			for j := 0; j < 5; j++ {
				hub.Publish(testEvent("c"))
			}
			s.Close()
		}()
	}
	wg.Wait()

	if hub.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", hub.SubscriberCount())
	}
}
