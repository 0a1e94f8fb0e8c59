// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package relay

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
)

// Set is the active transport: the publishing relay, the bridges that must
// run under supervision, and the embedded NATS server when one was started.
type Set struct {
	Relay    Relay
	Bridges  []Bridge
	Embedded *EmbeddedServer
}

// RouteFor returns the channel and event names from cfg.
func RouteFor(cfg *config.RelayConfig) Route {
	return Route{Channel: cfg.Channel, Event: cfg.Event}
}

// New builds the transport selected by cfg.Transport. hub receives every
// event the bridges read back.
func New(ctx context.Context, cfg *config.RelayConfig, hub Sink) (*Set, error) {
	route := RouteFor(cfg)

	switch cfg.Transport {
	case config.TransportSocket, "":
		return &Set{Relay: NewSocketRelay(hub, route)}, nil

	case config.TransportPusher:
		return &Set{
			Relay:   NewPusherRelay(&cfg.Pusher, route, cfg.PublishTimeout),
			Bridges: []Bridge{NewPusherBridge(&cfg.Pusher, route, hub)},
		}, nil

	case config.TransportNATS:
		natsCfg := cfg.NATS
		set := &Set{}
		if natsCfg.Embedded {
			srv, err := NewEmbeddedServer(&natsCfg)
			if err != nil {
				return nil, err
			}
			set.Embedded = srv
			natsCfg.URL = srv.ClientURL()
			logging.Info().Str("url", natsCfg.URL).Msg("Embedded NATS server started")
		}
		r, err := NewNATSRelay(&natsCfg, route)
		if err != nil {
			if set.Embedded != nil {
				_ = set.Embedded.Shutdown(ctx)
			}
			return nil, err
		}
		set.Relay = r
		set.Bridges = []Bridge{NewNATSBridge(&natsCfg, route, hub)}
		return set, nil

	case config.TransportGCPPubSub:
		r, err := NewPubSubRelay(ctx, &cfg.PubSub, route)
		if err != nil {
			return nil, err
		}
		return &Set{
			Relay:   r,
			Bridges: []Bridge{NewPubSubBridge(&cfg.PubSub, route, hub)},
		}, nil
	}

	return nil, fmt.Errorf("unknown relay transport %q", cfg.Transport)
}

// Close closes the relay, then stops the embedded server.
func (s *Set) Close(ctx context.Context) error {
	var result *multierror.Error
	if s.Relay != nil {
		if err := s.Relay.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close %s relay: %w", s.Relay.Name(), err))
		}
	}
	if s.Embedded != nil {
		if err := s.Embedded.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("shutdown embedded NATS: %w", err))
		}
	}
	return result.ErrorOrNil()
}
