// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

//go:build integration

package testinfra

import (
	"context"
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
)

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if !IsDockerAvailable() {
		t.Skip("Skipping test: Docker not available")
	}
}

// IsDockerAvailable checks if the Docker daemon answers.
func IsDockerAvailable() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return exec.CommandContext(ctx, "docker", "info").Run() == nil
}

// CleanupContainer terminates container at the end of the test, logging
// instead of failing when Docker refuses.
func CleanupContainer(t *testing.T, container testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})
}

// ContainerLogs returns the container's combined output for failure messages.
func ContainerLogs(ctx context.Context, container testcontainers.Container) string {
	rc, err := container.Logs(ctx)
	if err != nil {
		return "logs unavailable: " + err.Error()
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "logs unreadable: " + err.Error()
	}
	return string(b)
}

// startTimeoutOption sets how long a container may take to become ready.
type startTimeoutOption time.Duration

// WithStartTimeout overrides the readiness timeout of any container helper.
func WithStartTimeout(d time.Duration) Option {
	return startTimeoutOption(d)
}

func (o startTimeoutOption) apply(c *containerConfig) { c.startTimeout = time.Duration(o) }

type imageOption string

// WithImage overrides the container image.
func WithImage(image string) Option {
	return imageOption(image)
}

func (o imageOption) apply(c *containerConfig) { c.image = string(o) }

// Option configures a container helper.
type Option interface {
	apply(*containerConfig)
}

type containerConfig struct {
	image        string
	startTimeout time.Duration
}

func newContainerConfig(image string, opts []Option) *containerConfig {
	cfg := &containerConfig{image: image, startTimeout: 60 * time.Second}
	for _, o := range opts {
		o.apply(cfg)
	}
	return cfg
}
