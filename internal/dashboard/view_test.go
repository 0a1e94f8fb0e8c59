// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/orders"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeSub struct {
	ch        chan orders.Order
	closeOnce sync.Once
	closed    chan struct{}
}

func newFakeSub() *fakeSub {
	return &fakeSub{ch: make(chan orders.Order, 8), closed: make(chan struct{})}
}

func (s *fakeSub) Events() <-chan orders.Order { return s.ch }
func (s *fakeSub) Close()                      { s.closeOnce.Do(func() { close(s.closed) }) }

func (s *fakeSub) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func order(id string, test bool) orders.Order {
	return orders.Order{ID: id, Name: "#" + id, IsTest: test, Price: 10, ProcessedAt: fixedNow.Add(-time.Minute).Format(time.RFC3339)}
}

func testOptions() Options {
	return Options{MaxOrders: 3, TickInterval: time.Hour, StartMuted: false, Now: func() time.Time { return fixedNow }}
}

// nextFrame waits for a frame of the given type, skipping others.
func nextFrame(t *testing.T, v *View, typ string) Frame {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case f, ok := <-v.Frames():
			if !ok {
				t.Fatalf("frames closed while waiting for %s", typ)
			}
			if f.Type == typ {
				return f
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s frame", typ)
		}
	}
}

func startView(t *testing.T, v *View, sub *fakeSub) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- v.Run(ctx, func(context.Context) (Subscription, error) { return sub, nil })
	}()
	f := nextFrame(t, v, FrameStatus)
	if f.Status != StatusLive {
		t.Fatalf("first status = %q, want live", f.Status)
	}
	nextFrame(t, v, FrameRender)
	t.Cleanup(cancel)
	return cancel, errc
}

func TestView_InitialState(t *testing.T) {
	t.Parallel()

	v := NewView([]orders.Order{order("1", false)}, Options{})
	if v.State() != StateInitializing {
		t.Errorf("State() = %s, want initializing", v.State())
	}
	if v.Muted() {
		t.Error("zero Options should not mute")
	}
	if len(v.Orders()) != 1 {
		t.Errorf("Orders() = %d, want 1", len(v.Orders()))
	}
}

func TestView_PrependAndBound(t *testing.T) {
	t.Parallel()

	initial := []orders.Order{order("3", false), order("2", false), order("1", false)}
	v := NewView(initial, testOptions())
	sub := newFakeSub()
	startView(t, v, sub)

	if v.State() != StateLive {
		t.Fatalf("State() = %s, want live", v.State())
	}

	sub.ch <- order("4", false)
	f := nextFrame(t, v, FrameRender)

	if len(f.Orders) != 3 {
		t.Fatalf("orders = %d, want 3", len(f.Orders))
	}
	want := []string{"4", "3", "2"}
	for i, id := range want {
		if f.Orders[i].ID != id {
			t.Errorf("orders[%d] = %s, want %s", i, f.Orders[i].ID, id)
		}
	}
	if !f.Cue {
		t.Error("unmuted non-test order should cue")
	}
}

func TestView_CueRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		muted   bool
		test    bool
		wantCue bool
	}{
		{"unmuted live order", false, false, true},
		{"unmuted test order", false, true, false},
		{"muted live order", true, false, false},
		{"muted test order", true, true, false},
	}

	for i, tt := range tests {
		i, tt := i, tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := testOptions()
			opts.StartMuted = tt.muted
			v := NewView(nil, opts)
			sub := newFakeSub()
			startView(t, v, sub)

			sub.ch <- order(fmt.Sprint(i), tt.test)
			f := nextFrame(t, v, FrameRender)
			if f.Cue != tt.wantCue {
				t.Errorf("Cue = %v, want %v", f.Cue, tt.wantCue)
			}
			if f.Muted != tt.muted {
				t.Errorf("Muted = %v, want %v", f.Muted, tt.muted)
			}
			if f.Orders[0].Dimmed != tt.test {
				t.Errorf("Dimmed = %v, want %v", f.Orders[0].Dimmed, tt.test)
			}
		})
	}
}

func TestView_HidePolicyDropsTestOrders(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.TestPolicy = orders.TestPolicyHide
	v := NewView([]orders.Order{order("t", true), order("1", false)}, opts)
	if got := v.Orders(); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("initial orders = %+v", got)
	}

	v.Receive(order("t2", true))
	if len(v.Orders()) != 1 {
		t.Errorf("hidden test order was prepended")
	}
}

func TestView_SetMutedKeepsSubscription(t *testing.T) {
	t.Parallel()

	v := NewView(nil, testOptions())
	sub := newFakeSub()
	startView(t, v, sub)

	v.SetMuted(true)
	f := nextFrame(t, v, FrameRender)
	if !f.Muted {
		t.Error("render after SetMuted(true) should be muted")
	}
	if sub.isClosed() {
		t.Error("muting must not close the subscription")
	}

	sub.ch <- order("1", false)
	if f := nextFrame(t, v, FrameRender); f.Cue {
		t.Error("muted view must not cue")
	}
}

func TestView_SubscribeFailureEmitsOffline(t *testing.T) {
	t.Parallel()

	v := NewView(nil, testOptions())
	boom := errors.New("relay down")
	err := v.Run(context.Background(), func(context.Context) (Subscription, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want %v", err, boom)
	}
	f := nextFrame(t, v, FrameStatus)
	if f.Status != StatusOffline || f.State != StateInitializing {
		t.Errorf("frame = %+v, want offline/initializing", f)
	}
	if v.State() != StateInitializing {
		t.Errorf("State() = %s, want initializing", v.State())
	}
}

func TestView_SubscriptionLost(t *testing.T) {
	t.Parallel()

	v := NewView(nil, testOptions())
	sub := newFakeSub()
	_, errc := startView(t, v, sub)

	close(sub.ch)
	f := nextFrame(t, v, FrameStatus)
	if f.Status != StatusOffline {
		t.Errorf("status = %s, want offline", f.Status)
	}
	if err := <-errc; !errors.Is(err, ErrSubscriptionLost) {
		t.Errorf("Run() = %v, want ErrSubscriptionLost", err)
	}
	if v.State() != StateDisposed {
		t.Errorf("State() = %s, want disposed", v.State())
	}
}

func TestView_DisposeReleasesEverything(t *testing.T) {
	t.Parallel()

	v := NewView(nil, testOptions())
	sub := newFakeSub()
	_, errc := startView(t, v, sub)

	v.Dispose()
	v.Dispose()

	if err := <-errc; err != nil {
		t.Errorf("Run() = %v, want nil after dispose", err)
	}
	if !sub.isClosed() {
		t.Error("dispose should close the subscription")
	}
	if v.State() != StateDisposed {
		t.Errorf("State() = %s, want disposed", v.State())
	}
	for range v.Frames() {
	}

	v.SetMuted(false) // must not panic on a closed frame channel
	if err := v.Run(context.Background(), nil); !errors.Is(err, ErrDisposed) {
		t.Errorf("Run() after dispose = %v, want ErrDisposed", err)
	}
}

func TestView_ContextCancelDisposes(t *testing.T) {
	t.Parallel()

	v := NewView(nil, testOptions())
	sub := newFakeSub()
	cancel, errc := startView(t, v, sub)

	cancel()
	if err := <-errc; err != nil {
		t.Errorf("Run() = %v", err)
	}
	<-v.Done()
	if !sub.isClosed() {
		t.Error("subscription should be closed")
	}
}

func TestView_TickRerenders(t *testing.T) {
	t.Parallel()

	opts := testOptions()
	opts.TickInterval = 10 * time.Millisecond
	v := NewView([]orders.Order{order("1", false)}, opts)
	startView(t, v, newFakeSub())

	f := nextFrame(t, v, FrameRender)
	if f.Cue {
		t.Error("tick frames never cue")
	}
	if f.Orders[0].Age != "a minute ago" {
		t.Errorf("Age = %q", f.Orders[0].Age)
	}
}

func TestBuildCard(t *testing.T) {
	t.Parallel()

	o := orders.Order{ID: "1", Price: orders.ParsePrice("bad"), ProcessedAt: fixedNow.Format(time.RFC3339), IsTest: true}
	c := BuildCard(o, fixedNow)
	if c.PriceLabel != "NaN" {
		t.Errorf("PriceLabel = %q, want NaN", c.PriceLabel)
	}
	if c.Color != "hsl(75, 0%, 99%)" {
		t.Errorf("Color = %q", c.Color)
	}
	if !c.Dimmed {
		t.Error("test order should be dimmed")
	}
}
