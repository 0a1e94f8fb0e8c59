// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/orderboard/internal/logging"
)

// RelayCloser is satisfied by *relay.Set.
type RelayCloser interface {
	Close(ctx context.Context) error
}

// RelayService ties the relay set to the supervisor's lifetime: it idles
// while the process runs and closes every relay, plus the embedded NATS
// server when there is one, once the tree stops. A webhook that races the
// shutdown gets ErrClosed from its relay and is still answered 200.
type RelayService struct {
	relays          RelayCloser
	shutdownTimeout time.Duration
}

// NewRelayService wraps relays. shutdownTimeout defaults to 10s.
func NewRelayService(relays RelayCloser, shutdownTimeout time.Duration) *RelayService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &RelayService{relays: relays, shutdownTimeout: shutdownTimeout}
}

// Serve blocks until ctx ends, then closes the relays.
func (s *RelayService) Serve(ctx context.Context) error {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.relays.Close(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("Relay shutdown incomplete")
		return fmt.Errorf("relay shutdown: %w", err)
	}
	return ctx.Err()
}

// String names the service in supervisor events.
func (s *RelayService) String() string {
	return "relay-lifecycle"
}
