// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package freshness maps an order's age to a background lightness and a
// relative-time label.
//
// Lightness runs linearly from MaxLightness for a brand new order down to
// MinLightness at Window, and stays at MinLightness beyond it.
package freshness

import (
	"fmt"
	"math"
	"time"
)

const (
	// Window is the age at which an order reaches MinLightness.
	Window = 7 * 24 * time.Hour

	// MaxLightness is used for an order processed just now.
	MaxLightness = 99.0
	// MinLightness is used for an order Window old or older.
	MinLightness = 85.0

	// Hue and Saturation fix the rest of the HSL color.
	Hue        = 75
	Saturation = 85
)

// Ratio returns elapsed/Window in minutes. Future timestamps give 0.
func Ratio(processedAt, now time.Time) float64 {
	elapsed := now.Sub(processedAt).Minutes()
	if elapsed <= 0 {
		return 0
	}
	return elapsed / Window.Minutes()
}

// Lightness is non-increasing in age inside the window and constant beyond it.
func Lightness(processedAt, now time.Time) float64 {
	r := Ratio(processedAt, now)
	if r >= 1 {
		return MinLightness
	}
	return MaxLightness - (MaxLightness-MinLightness)*r
}

// LightnessOf parses an RFC 3339 timestamp; unparseable input is treated as
// an old order.
func LightnessOf(ts string, now time.Time) float64 {
	t, err := Parse(ts)
	if err != nil {
		return MinLightness
	}
	return Lightness(t, now)
}

// Parse reads RFC 3339 timestamps with or without fractional seconds.
func Parse(ts string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	return t, nil
}

// Color renders an hsl() CSS color. Dimmed cards drop the saturation.
func Color(lightness float64, dimmed bool) string {
	sat := Saturation
	if dimmed {
		sat = 0
	}
	l := math.Round(lightness*100) / 100
	return fmt.Sprintf("hsl(%d, %d%%, %g%%)", Hue, sat, l)
}
