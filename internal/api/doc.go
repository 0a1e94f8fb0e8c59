// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package api serves the dashboard's HTTP surface on a Chi router.

Routes:

	GET  /                 dashboard page (cookie gate, 307 to /login)
	GET  /ws               live view socket (cookie gate, 401)
	GET  /api/session      204 while the cookie passes the gate, else 401
	ANY  /api/webhook      order webhook receiver, always an empty body
	GET  /login, POST      key form and cookie (only POST is rate limited)
	GET|POST /logout       clears the cookie
	GET  /healthz/live     liveness
	GET  /healthz/ready    readiness (hub, relay, shop, embedded broker)
	GET  /metrics          Prometheus
	GET  /static/*         stylesheet and script

The page handler stores the list it rendered under a view id. The socket
that the page opens with ?view={id} starts its view from that snapshot, so
the browser never sees the list jump between page load and the first live
frame. Reconnects without a usable id fetch the list again.

Mute belongs to the page. The script dials /ws?muted={state} and repeats the
state once the socket opens, so a reconnect never resets an operator's
unmute.

Webhook outcomes:

	non-POST                 200, ignored
	bad HMAC                 401
	unparseable or invalid   400
	duplicate webhook id     200, ignored
	filtered order           200, ignored
	relay publish failure    200, logged
	relayed                  200

Usage:

	h := api.NewHandler(api.Dependencies{
		Config: cfg,
		Feed:   shopClient,
		Relay:  relays.Relay,
		Hub:    hub,
	})
	defer h.Close()
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: api.NewRouter(h)}
*/
package api
