// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/orderboard/internal/logging"
)

const defaultShutdownTimeout = 10 * time.Second

// HTTPServer is the *http.Server lifecycle.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// HTTPServerService supervises an HTTP server.
//
//	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router}
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
type HTTPServerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
}

// NewHTTPServerService wraps server. shutdownTimeout bounds connection
// draining and defaults to 10s.
func NewHTTPServerService(server HTTPServer, shutdownTimeout time.Duration) *HTTPServerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &HTTPServerService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve listens until ctx ends, then shuts the server down. A listener
// failure is returned so the supervisor restarts the service.
func (h *HTTPServerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		err := h.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// ctx is already done; shutdown gets its own deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()
	if err := h.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("HTTP server did not drain before the shutdown timeout")
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	<-errCh
	logging.Info().Msg("HTTP server stopped")
	return ctx.Err()
}

// String names the service in supervisor events.
func (h *HTTPServerService) String() string {
	return "http-server"
}
