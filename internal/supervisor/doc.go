// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package supervisor runs the long-lived services under suture v4.

	Root ("orderboard")
	├── hub-layer
	│   └── HubService
	├── relay-layer
	│   ├── nats-bridge | pusher-bridge | gcppubsub-bridge (per transport)
	│   └── RelayService (closes relays and the embedded NATS server)
	└── api-layer
	    └── HTTPServerService

Each layer restarts on its own. A bridge that loses its broker is restarted
with suture's backoff; the HTTP server and the hub are not touched.

Supervisor events are logged through sutureslog on the process logger:

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddHubService(services.NewHubService(hub))
	for _, b := range relays.Bridges {
		tree.AddRelayService(b)
	}
	tree.AddRelayService(services.NewRelayService(relays, 10*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	err := tree.Serve(ctx)
*/
package supervisor
