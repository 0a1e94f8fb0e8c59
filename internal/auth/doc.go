// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package auth implements the shared-secret access gate in front of the
dashboard.

The secret lives in a cookie (default name "key"). A request is admitted
when the cookie equals the configured secret exactly; the comparison is
constant time. Pages use Gate.Redirect (307 to /login), the dashboard socket
uses Gate.Require (401).

The login form stores whatever is submitted and redirects home, so a wrong
key simply lands back on the login page:

	gate := auth.NewGate(&cfg.Security)
	r.Get("/login", gate.LoginHandler())
	r.Post("/login", gate.LoginHandler())
	r.With(gate.Redirect).Get("/", dashboardPage)
	r.With(gate.Require).Get("/ws", dashboardSocket)

Denied requests are written to the security log with path, client address
and reason. Cookie values are never logged.
*/
package auth
