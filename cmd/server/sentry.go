// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package main

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
)

const sentryFlushTimeout = 2 * time.Second

// initSentry enables error reporting when a DSN is configured. The returned
// func flushes buffered events and is safe to call when Sentry is off.
func initSentry(cfg *config.Config) func() {
	if cfg.Sentry.DSN == "" {
		logging.Info().Msg("Sentry disabled (no DSN)")
		return func() {}
	}

	env := cfg.Sentry.Environment
	if env == "" {
		env = cfg.Server.Environment
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Release:          "orderboard@" + version,
		Environment:      env,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		AttachStacktrace: true,
	}); err != nil {
		logging.Warn().Err(err).Msg("Sentry initialization failed, continuing without error reporting")
		return func() {}
	}

	logging.Info().Str("environment", env).Msg("Sentry initialized")
	return func() { sentry.Flush(sentryFlushTimeout) }
}
