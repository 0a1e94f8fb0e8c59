// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/orderboard/internal/api"
	"github.com/tomtom215/orderboard/internal/auth"
	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/relay"
	"github.com/tomtom215/orderboard/internal/shop"
	"github.com/tomtom215/orderboard/internal/supervisor"
	"github.com/tomtom215/orderboard/internal/supervisor/services"
	ws "github.com/tomtom215/orderboard/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "orderboard",
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("transport", cfg.Relay.Transport).
		Str("channel", cfg.Relay.Channel).
		Str("event", cfg.Relay.Event).
		Msg("Starting Orderboard")

	flushSentry := initSentry(cfg)
	defer flushSentry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub()

	relays, err := relay.New(ctx, &cfg.Relay, hub)
	if err != nil {
		logging.Fatal().Err(err).Str("transport", cfg.Relay.Transport).Msg("Failed to initialize relay")
	}
	logging.Info().
		Str("relay", relays.Relay.Name()).
		Int("bridges", len(relays.Bridges)).
		Bool("embedded_nats", relays.Embedded != nil).
		Msg("Relay initialized")

	deps := api.Dependencies{
		Config: cfg,
		Feed:   shop.NewClient(&cfg.Shop),
		Relay:  relays.Relay,
		Hub:    hub,
		Gate:   auth.NewGate(&cfg.Security),
	}
	// Assigned only when set; a typed nil would make readiness call into it.
	if relays.Embedded != nil {
		deps.Broker = relays.Embedded
	}
	handler := api.NewHandler(deps)
	defer handler.Close()

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		// Dashboard sockets are long-lived; the write pump sets its own deadlines.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddHubService(services.NewHubService(hub))
	for _, b := range relays.Bridges {
		tree.AddRelayService(b)
	}
	tree.AddRelayService(services.NewRelayService(relays, cfg.Server.ShutdownTimeout))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree stopped with error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Orderboard stopped")
}
