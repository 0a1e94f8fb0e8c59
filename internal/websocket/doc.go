// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package websocket is the in-process connection registry behind the order
dashboard.

Key Components:

  - Hub: owns every subscription and fans relay events out to them
  - Subscription: one channel/event interest with a buffered order stream
  - Client: binds a browser connection to one dashboard.View

Architecture:

	relay / bridge ──Publish──▶ Hub ──fan-out──▶ Subscription ──▶ View ──frames──▶ Client ──▶ browser

The hub is created once at startup and passed by reference; there is no
package-level registry. Fan-out never blocks: a subscriber whose buffer is
full is closed and removed, and its view reports itself offline.

Each client has two goroutines:
  - readPump: reads control messages (mute, ping), disposes the view on disconnect
  - writePump: writes view frames, pong replies and keepalive pings

Configuration:
  - writeWait: 10 seconds (time allowed to write a message)
  - pongWait: 60 seconds (time allowed to read a pong)
  - pingPeriod: 54 seconds (must be < pongWait)
  - maxMessageSize: 512 KB

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	view := dashboard.NewView(initial, opts)
	websocket.NewClient(conn, view).Serve(ctx, hub.Subscriber("default", "order-created"))

	hub.Publish(websocket.Event{Channel: "default", Name: "order-created", Order: o})
*/
package websocket
