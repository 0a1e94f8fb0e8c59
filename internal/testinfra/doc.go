// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package testinfra starts real brokers in Docker for integration tests.
//
// Everything here is behind the integration build tag:
//
//	go test -tags integration ./internal/relay/...
//
// NATSContainer runs a stock NATS server; PubSubEmulator runs the gcloud
// Pub/Sub emulator. Both give back the address the relay config expects:
//
//	func TestRelayAgainstNATS(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    nc, err := testinfra.NewNATSContainer(ctx)
//	    require.NoError(t, err)
//	    testinfra.CleanupContainer(t, nc.Container)
//
//	    r, err := relay.NewNATSRelay(&config.NATSConfig{URL: nc.URL}, route)
//	}
//
// Unit tests use the embedded NATS server and pstest instead and need no
// Docker.
package testinfra
