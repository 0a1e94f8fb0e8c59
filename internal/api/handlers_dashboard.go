// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"

	"github.com/tomtom215/orderboard/internal/dashboard"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/orders"
	ws "github.com/tomtom215/orderboard/internal/websocket"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// StaticFS serves the dashboard stylesheet and script.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// pageCard carries the color as trusted CSS; html/template rejects
// function notation like hsl() in style attributes otherwise.
type pageCard struct {
	dashboard.Card
	Style template.CSS
}

type dashboardPage struct {
	ViewID string
	Muted  bool
	Nonce  string
	Cards  []pageCard
}

type errorPage struct {
	Status  int
	Message string
}

// Dashboard renders the order list.
// GET /
//
// The fetched list is kept under a view id so the socket that follows can
// start from exactly what the page showed.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	list, err := h.fetchRecent(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to load recent orders")
		captureError(r, err)
		h.renderError(w, http.StatusBadGateway, "Orders could not be loaded from the shop.")
		return
	}

	viewID := uuid.NewString()
	h.snapshots.Set(viewID, list)

	cards := dashboard.BuildCards(list, h.now())
	page := dashboardPage{
		ViewID: viewID,
		Muted:  h.cfg.Dashboard.StartMuted,
		Nonce:  CSPNonce(r.Context()),
		Cards:  make([]pageCard, len(cards)),
	}
	for i, c := range cards {
		page.Cards[i] = pageCard{Card: c, Style: template.CSS(c.Color)} //nolint:gosec // color is generated, never user input
	}

	h.renderTemplate(w, http.StatusOK, "dashboard.html", page)
}

// DashboardSocket upgrades to the live view.
// GET /ws?view={id}
func (h *Handler) DashboardSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil || !h.hub.Running() {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Live updates are not available")
		return
	}

	initial, err := h.seed(r)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to seed dashboard view")
		captureError(r, err)
		respondError(w, r, http.StatusBadGateway, ErrCodeUpstream, "Orders could not be loaded from the shop")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	view := dashboard.NewView(initial, dashboard.Options{
		MaxOrders:    h.maxOrders(),
		TickInterval: h.cfg.Dashboard.TickInterval,
		StartMuted:   h.startMuted(r),
		TestPolicy:   h.policy,
		Now:          h.now,
	})

	client := ws.NewClient(conn, view)
	logging.Ctx(r.Context()).Debug().Uint64("client", client.ID()).Msg("Dashboard socket connected")
	client.Serve(r.Context(), h.hub.Subscriber(h.cfg.Relay.Channel, h.cfg.Relay.Event))
	logging.Ctx(r.Context()).Debug().Uint64("client", client.ID()).Msg("Dashboard socket closed")
}

// Session confirms the caller still passes the gate.
// GET /api/session
func (h *Handler) Session(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusNoContent)
}

// startMuted honours the mute state the page already holds, so a reconnect
// keeps an operator's unmute. Without a valid ?muted= the configured default
// applies.
func (h *Handler) startMuted(r *http.Request) bool {
	if m, err := strconv.ParseBool(r.URL.Query().Get("muted")); err == nil {
		return m
	}
	return h.cfg.Dashboard.StartMuted
}

// seed returns the page's snapshot once, or a fresh fetch for reconnects.
func (h *Handler) seed(r *http.Request) ([]orders.Order, error) {
	if id := r.URL.Query().Get("view"); id != "" {
		if list, ok := h.snapshots.Get(id); ok {
			h.snapshots.Delete(id)
			return list, nil
		}
	}
	return h.fetchRecent(r.Context())
}

func (h *Handler) renderTemplate(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		logging.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Debug().Err(err).Msg("Failed to write page")
	}
}

func (h *Handler) renderError(w http.ResponseWriter, status int, message string) {
	h.renderTemplate(w, status, "error.html", errorPage{Status: status, Message: message})
}

// captureError reports err to the request's Sentry hub. It is a no-op when
// Sentry is not configured.
func captureError(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("path", r.URL.Path)
		hub.CaptureException(err)
	})
}
