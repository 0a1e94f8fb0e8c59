// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout bounds how long each service gets to stop.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c *TreeConfig) applyDefaults() {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Tree is the process supervisor.
//
// Three layers restart independently:
//   - hub: the in-process event hub every dashboard socket subscribes to
//   - relay: broker bridges feeding the hub, and the relay lifecycle
//   - api: the HTTP server
//
// A broker outage restarts its bridge with backoff while pages, the webhook
// receiver and already open sockets keep working.
type Tree struct {
	root   *suture.Supervisor
	hub    *suture.Supervisor
	relay  *suture.Supervisor
	api    *suture.Supervisor
	config TreeConfig
}

// NewTree builds the supervisor hierarchy. Supervisor events go to logger.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	config.applyDefaults()

	// MustHook has a pointer receiver.
	hook := (&sutureslog.Handler{Logger: logger}).MustHook()

	spec := func(h suture.EventHook) suture.Spec {
		return suture.Spec{
			EventHook:        h,
			FailureThreshold: config.FailureThreshold,
			FailureDecay:     config.FailureDecay,
			FailureBackoff:   config.FailureBackoff,
			Timeout:          config.ShutdownTimeout,
		}
	}

	// Children inherit the hook when added to the root.
	t := &Tree{
		root:   suture.New("orderboard", spec(hook)),
		hub:    suture.New("hub-layer", spec(nil)),
		relay:  suture.New("relay-layer", spec(nil)),
		api:    suture.New("api-layer", spec(nil)),
		config: config,
	}
	t.root.Add(t.hub)
	t.root.Add(t.relay)
	t.root.Add(t.api)
	return t
}

// Root returns the root supervisor.
func (t *Tree) Root() *suture.Supervisor {
	return t.root
}

// AddHubService adds the event hub.
func (t *Tree) AddHubService(svc suture.Service) suture.ServiceToken {
	return t.hub.Add(svc)
}

// AddRelayService adds a bridge or relay lifecycle service.
func (t *Tree) AddRelayService(svc suture.Service) suture.ServiceToken {
	return t.relay.Add(svc)
}

// AddAPIService adds the HTTP server.
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve runs the tree until ctx is cancelled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground runs the tree in a goroutine. The channel receives the
// result when it stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
