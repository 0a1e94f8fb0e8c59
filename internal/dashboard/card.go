// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package dashboard

import (
	"time"

	"github.com/tomtom215/orderboard/internal/freshness"
	"github.com/tomtom215/orderboard/internal/orders"
)

// Frame types sent to the browser.
const (
	FrameRender = "render"
	FrameStatus = "status"
)

// Connection status values carried by status frames.
const (
	StatusLive    = "live"
	StatusOffline = "offline"
)

// Card is one rendered order.
type Card struct {
	orders.Order
	Color      string `json:"color"`
	Age        string `json:"age"`
	PriceLabel string `json:"priceLabel"`
	Dimmed     bool   `json:"dimmed"`
}

// Frame is one message to the browser.
type Frame struct {
	Type   string `json:"type"`
	State  string `json:"state"`
	Status string `json:"status,omitempty"`
	Muted  bool   `json:"muted"`
	Cue    bool   `json:"cue"`
	Orders []Card `json:"orders"`
}

// BuildCard renders o as of now. Test orders are dimmed.
func BuildCard(o orders.Order, now time.Time) Card {
	dimmed := o.IsTest
	return Card{
		Order:      o,
		Color:      freshness.Color(freshness.LightnessOf(o.ProcessedAt, now), dimmed),
		Age:        freshness.FromNowString(o.ProcessedAt, now),
		PriceLabel: o.Price.String(),
		Dimmed:     dimmed,
	}
}

// BuildCards renders list in order.
func BuildCards(list []orders.Order, now time.Time) []Card {
	cards := make([]Card, len(list))
	for i := range list {
		cards[i] = BuildCard(list[i], now)
	}
	return cards
}
