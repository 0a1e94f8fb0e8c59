// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

//go:build integration

package testinfra

import (
	"context"
	"fmt"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultNATSImage is the NATS server image.
	DefaultNATSImage = "nats:2.10-alpine"
	natsPort         = "4222/tcp"

	// DefaultPubSubImage ships the gcloud Pub/Sub emulator.
	DefaultPubSubImage = "gcr.io/google.com/cloudsdktool/google-cloud-cli:emulators"
	pubsubPort         = "8085/tcp"

	// PubSubProject is the project id the emulator is started with.
	PubSubProject = "orderboard-test"
)

// NATSContainer is a running NATS server.
type NATSContainer struct {
	testcontainers.Container
	URL string
}

// NewNATSContainer starts a NATS server and waits until it accepts clients.
//
//	nc, err := testinfra.NewNATSContainer(ctx)
//	...
//	cfg := &config.NATSConfig{URL: nc.URL}
func NewNATSContainer(ctx context.Context, opts ...Option) (*NATSContainer, error) {
	cfg := newContainerConfig(DefaultNATSImage, opts)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.image,
			ExposedPorts: []string{natsPort},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(natsPort),
				wait.ForLog("Server is ready"),
			).WithStartupTimeout(cfg.startTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create nats container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, natsPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}
	return &NATSContainer{Container: container, URL: fmt.Sprintf("nats://%s:%s", host, port.Port())}, nil
}

// PubSubEmulator is a running Pub/Sub emulator.
type PubSubEmulator struct {
	testcontainers.Container
	// Endpoint is host:port for config.GCPPubSubConfig.Endpoint.
	Endpoint string
	Project  string
}

// NewPubSubEmulator starts the gcloud Pub/Sub emulator.
func NewPubSubEmulator(ctx context.Context, opts ...Option) (*PubSubEmulator, error) {
	cfg := newContainerConfig(DefaultPubSubImage, opts)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.image,
			ExposedPorts: []string{pubsubPort},
			Cmd: []string{
				"gcloud", "beta", "emulators", "pubsub", "start",
				"--host-port=0.0.0.0:8085",
				"--project=" + PubSubProject,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort(pubsubPort),
				wait.ForLog("Server started"),
			).WithStartupTimeout(cfg.startTimeout),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create pubsub emulator: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, pubsubPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}
	return &PubSubEmulator{
		Container: container,
		Endpoint:  fmt.Sprintf("%s:%s", host, port.Port()),
		Project:   PubSubProject,
	}, nil
}
