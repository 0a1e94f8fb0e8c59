// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package breaker wraps sony/gobreaker with the settings and Prometheus
// bookkeeping shared by the feed client and the broker relays.
//
// Configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
//
// The breaker uses real time for its interval and timeout. Tests that need
// deterministic tripping build one with NewWithSettings.
package breaker

import (
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/metrics"
)

// Breaker guards calls to one remote dependency.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker[any]
	name string
}

// DefaultSettings returns the production settings for name.
func DefaultSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Str("breaker", name).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},
	}
}

// New creates a breaker with DefaultSettings.
func New(name string) *Breaker {
	return NewWithSettings(DefaultSettings(name))
}

// NewWithSettings creates a breaker from st. OnStateChange is replaced with
// the metrics hook.
func NewWithSettings(st gobreaker.Settings) *Breaker {
	name := st.Name
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	st.OnStateChange = func(name string, from, to gobreaker.State) {
		fromStr, toStr := StateString(from), StateString(to)
		logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

		metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		if to == gobreaker.StateClosed {
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
		}
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](st), name: name}
}

// Name returns the breaker name used in metrics.
func (b *Breaker) Name() string { return b.name }

// State returns the current state as "closed", "half-open" or "open".
func (b *Breaker) State() string { return StateString(b.cb.State()) }

// Do runs fn under the breaker.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.execute(func() (any, error) { return nil, fn() })
	return err
}

// Execute runs fn under the breaker and casts its result.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	res, err := b.execute(func() (any, error) { return fn() })
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", res)
	}
	return typed, nil
}

// IsOpen reports whether err came from the breaker rejecting the call.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (b *Breaker) execute(fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if IsOpen(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Str("breaker", b.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
			counts := b.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// StateString names a gobreaker state for logs and metric labels.
func StateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
