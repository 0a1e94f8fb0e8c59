// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package dashboard holds one live order board per browser session.

A View owns a bounded most-recent-first list, a mute flag and a relay
subscription. Its lifecycle is a small state machine:

	initializing --subscribed--> live
	initializing --dispose-----> disposed
	live         --dispose-----> disposed

While live, every incoming order is prepended (the list never exceeds its
limit) and a render frame is emitted. The frame requests an audio cue only
when the view is unmuted and the order is not a test order. A ticker
re-renders relative ages and freshness colors.
*/
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/metrics"
	"github.com/tomtom215/orderboard/internal/orders"
)

// View states.
const (
	StateInitializing = "initializing"
	StateLive         = "live"
	StateDisposed     = "disposed"
)

const (
	triggerSubscribed = "subscribed"
	triggerDispose    = "dispose"
)

var (
	// ErrDisposed is returned when a disposed view is run again.
	ErrDisposed = errors.New("dashboard: view disposed")
	// ErrSubscriptionLost is returned when the relay closes the subscription.
	ErrSubscriptionLost = errors.New("dashboard: subscription closed")
)

// Subscription is a live feed of new orders.
type Subscription interface {
	Events() <-chan orders.Order
	Close()
}

// SubscribeFunc opens a subscription for one view.
type SubscribeFunc func(ctx context.Context) (Subscription, error)

// Options configures a View. Zero values take the defaults.
type Options struct {
	MaxOrders    int
	TickInterval time.Duration
	StartMuted   bool
	TestPolicy   orders.TestPolicy
	FrameBuffer  int
	Now          func() time.Time
}

func (o *Options) applyDefaults() {
	if o.MaxOrders <= 0 {
		o.MaxOrders = orders.DefaultLimit
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.TestPolicy == "" {
		o.TestPolicy = orders.TestPolicyDim
	}
	if o.FrameBuffer <= 0 {
		o.FrameBuffer = 16
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// View is one dashboard session.
type View struct {
	opts    Options
	list    *orders.List
	machine *stateless.StateMachine

	mu     sync.Mutex
	muted  bool
	sub    Subscription
	frames chan Frame
	closed bool

	done        chan struct{}
	disposeOnce sync.Once
}

// NewView creates a view seeded with initial, most recent first.
func NewView(initial []orders.Order, opts Options) *View {
	opts.applyDefaults()

	v := &View{
		opts:   opts,
		list:   orders.NewList(opts.MaxOrders, opts.TestPolicy.Filter(initial)),
		muted:  opts.StartMuted,
		frames: make(chan Frame, opts.FrameBuffer),
		done:   make(chan struct{}),
	}

	v.machine = stateless.NewStateMachine(StateInitializing)
	v.machine.Configure(StateInitializing).
		Permit(triggerSubscribed, StateLive).
		Permit(triggerDispose, StateDisposed)
	v.machine.Configure(StateLive).
		Permit(triggerDispose, StateDisposed)
	v.machine.Configure(StateDisposed).
		Ignore(triggerDispose).
		Ignore(triggerSubscribed)
	v.machine.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		from, _ := t.Source.(string)
		to, _ := t.Destination.(string)
		metrics.RecordViewTransition(from, to)
	})

	metrics.RecordViewTransition("", StateInitializing)
	return v
}

// Frames delivers frames until the view is disposed, then closes.
func (v *View) Frames() <-chan Frame { return v.frames }

// Done is closed once the view is disposed.
func (v *View) Done() <-chan struct{} { return v.done }

// State returns the lifecycle state.
func (v *View) State() string {
	s, _ := v.machine.MustState().(string)
	return s
}

// Muted reports the mute flag.
func (v *View) Muted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.muted
}

// SetMuted changes the mute flag and re-renders. It never touches the
// subscription.
func (v *View) SetMuted(muted bool) {
	v.mu.Lock()
	v.muted = muted
	v.mu.Unlock()
	v.emit(v.render(false))
}

// Orders returns the current list.
func (v *View) Orders() []orders.Order { return v.list.Snapshot() }

// Run subscribes and processes events until ctx ends, the view is disposed
// or the subscription is lost. A failed subscription emits an offline status
// frame and leaves the view initializing.
func (v *View) Run(ctx context.Context, subscribe SubscribeFunc) error {
	if v.State() != StateInitializing {
		return ErrDisposed
	}

	sub, err := subscribe(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Dashboard subscription failed")
		v.emit(v.status(StatusOffline))
		return err
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		sub.Close()
		return ErrDisposed
	}
	v.sub = sub
	v.mu.Unlock()

	if err := v.machine.Fire(triggerSubscribed); err != nil {
		sub.Close()
		return err
	}
	v.emit(v.status(StatusLive))
	v.emit(v.render(false))

	ticker := time.NewTicker(v.opts.TickInterval)
	defer ticker.Stop()

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			v.Dispose()
			return nil

		case <-v.done:
			return nil

		case o, ok := <-events:
			if !ok {
				if v.isClosed() {
					return nil
				}
				v.emit(v.status(StatusOffline))
				v.Dispose()
				return ErrSubscriptionLost
			}
			v.Receive(o)

		case <-ticker.C:
			v.emit(v.render(false))
		}
	}
}

// Receive applies one incoming order: filter, prepend, render, cue.
func (v *View) Receive(o orders.Order) {
	if !v.opts.TestPolicy.Allows(o) {
		return
	}
	v.list.Prepend(o)

	cue := !v.Muted() && !o.IsTest
	if cue {
		metrics.DashboardCues.Inc()
	}
	v.emit(v.render(cue))
}

// Dispose releases the subscription, stops the loop and closes Frames.
// It is safe to call more than once.
func (v *View) Dispose() {
	v.disposeOnce.Do(func() {
		if err := v.machine.Fire(triggerDispose); err != nil {
			logging.Warn().Err(err).Msg("Dashboard dispose transition failed")
		}

		v.mu.Lock()
		sub := v.sub
		v.sub = nil
		v.closed = true
		close(v.frames)
		v.mu.Unlock()

		if sub != nil {
			sub.Close()
		}
		close(v.done)
	})
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *View) render(cue bool) Frame {
	return Frame{
		Type:   FrameRender,
		State:  v.State(),
		Muted:  v.Muted(),
		Cue:    cue,
		Orders: BuildCards(v.list.Snapshot(), v.opts.Now()),
	}
}

func (v *View) status(status string) Frame {
	return Frame{
		Type:   FrameStatus,
		State:  v.State(),
		Status: status,
		Muted:  v.Muted(),
	}
}

// emit never blocks; a frame that does not fit is dropped and the next
// tick catches the browser up.
func (v *View) emit(f Frame) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	select {
	case v.frames <- f:
	default:
		logging.Debug().Str("type", f.Type).Bool("cue", f.Cue).Msg("Dashboard frame dropped, writer is behind")
	}
}
