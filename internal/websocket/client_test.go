// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/orderboard/internal/dashboard"
	"github.com/tomtom215/orderboard/internal/orders"
)

// setupDashboardServer serves one dashboard view per connection, wired to hub.
func setupDashboardServer(t *testing.T, hub *Hub, opts dashboard.Options, views chan<- *dashboard.View) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		view := dashboard.NewView(nil, opts)
		if views != nil {
			views <- view
		}
		NewClient(conn, view).Serve(context.Background(), hub.Subscriber("default", "order-created"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// dialWebSocket establishes a WebSocket connection to the test server
func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readFrame reads frames until one matches typ.
func readFrame(t *testing.T, conn *websocket.Conn, typ string) dashboard.Frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read %s frame: %v", typ, err)
		}
		var f dashboard.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.Fatalf("decode frame %s: %v", data, err)
		}
		if f.Type == typ {
			return f
		}
	}
}

func viewOptions() dashboard.Options {
	return dashboard.Options{TickInterval: time.Hour}
}

func TestClient_Constants(t *testing.T) {
	if writeWait != 10*time.Second {
		t.Errorf("writeWait = %v", writeWait)
	}
	if pongWait != 60*time.Second {
		t.Errorf("pongWait = %v", pongWait)
	}
	if pingPeriod != (pongWait*9)/10 {
		t.Errorf("pingPeriod = %v", pingPeriod)
	}
	if maxMessageSize != 512*1024 {
		t.Errorf("maxMessageSize = %d", maxMessageSize)
	}
}

func TestClient_ReceivesPublishedOrders(t *testing.T) {
	hub := setupHub(t)
	srv := setupDashboardServer(t, hub, viewOptions(), nil)
	conn := dialWebSocket(t, srv)

	if f := readFrame(t, conn, dashboard.FrameStatus); f.Status != dashboard.StatusLive {
		t.Fatalf("status = %q, want live", f.Status)
	}
	readFrame(t, conn, dashboard.FrameRender)
	waitFor(t, func() bool { return hub.SubscriberCount() == 1 }, "subscription")

	hub.Publish(Event{Channel: "default", Name: "order-created", Order: orders.Order{ID: "1", Name: "#1001", Price: 12.5, ProcessedAt: time.Now().Format(time.RFC3339)}})

	f := readFrame(t, conn, dashboard.FrameRender)
	if len(f.Orders) != 1 || f.Orders[0].Name != "#1001" {
		t.Fatalf("orders = %+v", f.Orders)
	}
	if f.Orders[0].PriceLabel != "12.50" {
		t.Errorf("PriceLabel = %q", f.Orders[0].PriceLabel)
	}
	if !f.Cue {
		t.Error("unmuted view should cue for a live order")
	}
}

func TestClient_MuteControlMessage(t *testing.T) {
	hub := setupHub(t)
	srv := setupDashboardServer(t, hub, viewOptions(), nil)
	conn := dialWebSocket(t, srv)
	readFrame(t, conn, dashboard.FrameRender)

	if err := conn.WriteJSON(map[string]interface{}{"type": MessageTypeMute, "data": true}); err != nil {
		t.Fatal(err)
	}
	if f := readFrame(t, conn, dashboard.FrameRender); !f.Muted {
		t.Error("render after mute should be muted")
	}

	waitFor(t, func() bool { return hub.SubscriberCount() == 1 }, "subscription")
	hub.Publish(testEvent("2"))
	if f := readFrame(t, conn, dashboard.FrameRender); f.Cue {
		t.Error("muted view must not cue")
	}
}

func TestClient_PingPong(t *testing.T) {
	hub := setupHub(t)
	srv := setupDashboardServer(t, hub, viewOptions(), nil)
	conn := dialWebSocket(t, srv)
	readFrame(t, conn, dashboard.FrameRender)

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatal(err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read pong: %v", err)
		}
		if msg.Type == MessageTypePong {
			return
		}
	}
}

func TestClient_DisconnectDisposesView(t *testing.T) {
	hub := setupHub(t)
	views := make(chan *dashboard.View, 1)
	srv := setupDashboardServer(t, hub, viewOptions(), views)
	conn := dialWebSocket(t, srv)
	readFrame(t, conn, dashboard.FrameRender)
	view := <-views

	_ = conn.Close()

	select {
	case <-view.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("view was not disposed after disconnect")
	}
	waitFor(t, func() bool { return hub.SubscriberCount() == 0 }, "subscription release")
}

func TestClient_StoppedHubReportsOffline(t *testing.T) {
	hub := NewHub() // never started
	srv := setupDashboardServer(t, hub, viewOptions(), nil)
	conn := dialWebSocket(t, srv)

	f := readFrame(t, conn, dashboard.FrameStatus)
	if f.Status != dashboard.StatusOffline {
		t.Errorf("status = %q, want offline", f.Status)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected normal close after offline view, got %v", err)
	}
}

func TestClient_HubShutdownClosesSocket(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.RunWithContext(ctx) }()
	waitFor(t, hub.Running, "hub to start")

	srv := setupDashboardServer(t, hub, viewOptions(), nil)
	conn := dialWebSocket(t, srv)
	readFrame(t, conn, dashboard.FrameRender)
	waitFor(t, func() bool { return hub.SubscriberCount() == 1 }, "subscription")

	cancel()

	if f := readFrame(t, conn, dashboard.FrameStatus); f.Status != dashboard.StatusOffline {
		t.Errorf("status = %q, want offline", f.Status)
	}
}
