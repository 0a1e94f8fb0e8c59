// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package freshness

import (
	"math"
	"testing"
	"time"
)

var now = time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func TestLightness(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"just now", 0, MaxLightness},
		{"future clamps to fresh", -time.Hour, MaxLightness},
		{"half window", Window / 2, (MaxLightness + MinLightness) / 2},
		{"exactly one week", Window, MinLightness},
		{"older than a week", 30 * 24 * time.Hour, MinLightness},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Lightness(now.Add(-tt.age), now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Lightness(age %v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestLightnessMonotonic(t *testing.T) {
	t.Parallel()

	prev := math.Inf(1)
	for age := time.Duration(0); age <= 9*24*time.Hour; age += 37 * time.Minute {
		l := Lightness(now.Add(-age), now)
		if l > prev {
			t.Fatalf("lightness increased at age %v: %v > %v", age, l, prev)
		}
		if l < MinLightness || l > MaxLightness {
			t.Fatalf("lightness %v out of range at age %v", l, age)
		}
		prev = l
	}
}

func TestLightnessOf(t *testing.T) {
	t.Parallel()

	if got := LightnessOf("garbage", now); got != MinLightness {
		t.Errorf("unparseable = %v, want %v", got, MinLightness)
	}
	if got := LightnessOf("2024-05-08T12:00:00.000Z", now); got != MaxLightness {
		t.Errorf("fractional seconds = %v, want %v", got, MaxLightness)
	}
	if got := LightnessOf("2024-05-08T14:00:00+02:00", now); got != MaxLightness {
		t.Errorf("offset timestamp = %v, want %v", got, MaxLightness)
	}
}

func TestColor(t *testing.T) {
	t.Parallel()

	if got := Color(99, false); got != "hsl(75, 85%, 99%)" {
		t.Errorf("Color = %q", got)
	}
	if got := Color(85.123, true); got != "hsl(75, 0%, 85.12%)" {
		t.Errorf("dimmed Color = %q", got)
	}
}

func TestFromNow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		age  time.Duration
		want string
	}{
		{10 * time.Second, "a few seconds ago"},
		{60 * time.Second, "a minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{60 * time.Minute, "an hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{30 * time.Hour, "a day ago"},
		{4 * day, "4 days ago"},
		{30 * day, "a month ago"},
		{91 * day, "3 months ago"},
		{400 * day, "a year ago"},
		{3 * 365 * day, "3 years ago"},
		{-20 * time.Second, "in a few seconds"},
		// Units are rounded before the boundary checks.
		{44*time.Second + 400*time.Millisecond, "a few seconds ago"},
		{44*time.Second + 600*time.Millisecond, "a minute ago"},
		{89 * time.Second, "a minute ago"},
		{90 * time.Second, "2 minutes ago"},
		{44*time.Minute + 20*time.Second, "44 minutes ago"},
		{44*time.Minute + 40*time.Second, "an hour ago"},
		{89 * time.Minute, "an hour ago"},
		{90 * time.Minute, "2 hours ago"},
		{21*time.Hour + 40*time.Minute, "a day ago"},
		{25*day + 13*time.Hour, "a month ago"},
		{10 * 30 * day, "10 months ago"},
		{11 * 30 * day, "a year ago"},
		{-2 * time.Hour, "in 2 hours"},
	}

	for _, tt := range tests {
		if got := FromNow(now.Add(-tt.age), now); got != tt.want {
			t.Errorf("FromNow(age %v) = %q, want %q", tt.age, got, tt.want)
		}
	}
}

func TestFromNowString(t *testing.T) {
	t.Parallel()

	if got := FromNowString("nope", now); got != "" {
		t.Errorf("unparseable = %q, want empty", got)
	}
	if got := FromNowString("2024-05-08T11:55:00Z", now); got != "5 minutes ago" {
		t.Errorf("got %q", got)
	}
}
