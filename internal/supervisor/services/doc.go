// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package services adapts components to suture.Service.

	type Service interface {
	    Serve(ctx context.Context) error
	}

HTTPServerService turns ListenAndServe into Serve with a bounded graceful
Shutdown. HubService names the hub's RunWithContext loop. RelayService
holds the relay set open for the life of the process and closes it on
shutdown. Relay bridges already implement Serve and String and are added
to the tree as they are.

Every wrapper implements fmt.Stringer; suture uses it in its log events.
*/
package services
