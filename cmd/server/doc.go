// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package main runs the Orderboard server.

Orderboard shows a shop's most recent orders on a wall display. New orders
arrive through the platform's order-created webhook, are relayed to every
open dashboard and fade from bright to pale as they age.

# Startup

 1. Configuration: koanf (defaults, config.yaml, environment)
 2. Logging: zerolog
 3. Sentry (when SENTRY_DSN is set)
 4. Event hub and relay transport (socket, pusher, nats, gcppubsub)
 5. HTTP handlers: dashboard, socket, webhook, login, health
 6. Supervisor tree: hub, relay bridges, HTTP server

# Configuration

	PORT=3000
	LOG_LEVEL=info
	LOG_FORMAT=json

	SHOP_URL=my-shop.myshopify.com
	SHOP_API_SECRET_KEY=<admin access token>
	SHOP_WEBHOOK_SECRET=<webhook signing secret>   # optional HMAC check

	AUTH_KEY=<dashboard key>                       # cookie "key" must match

	RELAY_TRANSPORT=socket                         # socket, pusher, nats, gcppubsub
	RELAY_CHANNEL=default
	RELAY_EVENT=order-created

	PUSHER_APP_ID=... PUSHER_APP_KEY=... PUSHER_APP_SECRET=... PUSHER_APP_CLUSTER=...
	NATS_URL=nats://127.0.0.1:4222  NATS_EMBEDDED=true
	PUBSUB_PROJECT_ID=...  PUBSUB_TOPIC=orderboard-orders  PUBSUB_EMULATOR_HOST=...

	DASHBOARD_TEST_ORDERS=dim                      # dim or hide
	DASHBOARD_START_MUTED=true

# Signals

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT. Relays are closed and the embedded NATS server, if any,
is shut down.
*/
package main
