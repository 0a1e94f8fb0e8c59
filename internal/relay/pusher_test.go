// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package relay

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/orderboard/internal/config"
)

// triggerBody is the REST trigger request sent by the Pusher client.
type triggerBody struct {
	Name     string   `json:"name"`
	Channels []string `json:"channels"`
	Data     string   `json:"data"`
}

type fakePusherREST struct {
	mu       sync.Mutex
	triggers []triggerBody
	status   int
}

func (f *fakePusherREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/events") {
		http.NotFound(w, r)
		return
	}
	var body triggerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.triggers = append(f.triggers, body)
	status := f.status
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte("{}"))
}

func (f *fakePusherREST) received() []triggerBody {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]triggerBody(nil), f.triggers...)
}

func TestPusherRelayTrigger(t *testing.T) {
	rest := &fakePusherREST{}
	srv := httptest.NewServer(rest)
	defer srv.Close()

	r := NewPusherRelay(&config.PusherConfig{AppID: "123", Key: "key", Secret: "secret", Host: srv.URL}, testRoute, time.Second)
	assert.Equal(t, config.TransportPusher, r.Name())
	assert.False(t, r.client.Secure)

	require.NoError(t, r.Publish(context.Background(), sampleOrder("321")))

	got := rest.received()
	require.Len(t, got, 1)
	assert.Equal(t, testRoute.Event, got[0].Name)
	assert.Equal(t, []string{testRoute.Channel}, got[0].Channels)

	o, err := DecodeOrder([]byte(got[0].Data))
	require.NoError(t, err)
	assert.Equal(t, "321", o.ID)
}

func TestPusherRelayFailure(t *testing.T) {
	srv := httptest.NewServer(&fakePusherREST{status: http.StatusForbidden})
	defer srv.Close()

	r := NewPusherRelay(&config.PusherConfig{AppID: "123", Key: "key", Secret: "secret", Host: srv.URL}, testRoute, time.Second)
	assert.Error(t, r.Publish(context.Background(), sampleOrder("1")))

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Publish(context.Background(), sampleOrder("1")), ErrClosed)
}

func TestPusherSocketURL(t *testing.T) {
	u := PusherSocketURL(&config.PusherConfig{Key: "abc", Cluster: "eu"})
	assert.True(t, strings.HasPrefix(u, "wss://ws-eu.pusher.com/app/abc?"), u)
	assert.Contains(t, u, "protocol=7")

	assert.Equal(t, "ws://localhost:6001/app/abc", PusherSocketURL(&config.PusherConfig{SocketURL: "ws://localhost:6001/app/abc"}))
}

func TestDataBytes(t *testing.T) {
	got, err := dataBytes(json.RawMessage(`"{\"id\":\"1\"}"`))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))

	got, err = dataBytes(json.RawMessage(`{"id":"1"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))

	_, err = dataBytes(nil)
	assert.Error(t, err)
}

// fakePusherSocket speaks enough of the Pusher protocol to drive the bridge:
// handshake, subscribe, one ping, then the given events.
func fakePusherSocket(t *testing.T, events []pusherFrame, pong chan<- struct{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		established, _ := json.Marshal(`{"socket_id":"123.456","activity_timeout":30}`)
		if err := conn.WriteJSON(pusherFrame{Event: pusherConnectionEstablished, Data: established}); err != nil {
			return
		}

		var sub struct {
			Event string `json:"event"`
			Data  struct {
				Channel string `json:"channel"`
			} `json:"data"`
		}
		if err := conn.ReadJSON(&sub); err != nil || sub.Event != pusherSubscribe {
			return
		}
		_ = conn.WriteJSON(pusherFrame{Event: pusherSubscribed, Channel: sub.Data.Channel, Data: json.RawMessage(`"{}"`)})
		_ = conn.WriteJSON(pusherFrame{Event: pusherPing, Data: json.RawMessage(`{}`)})

		var reply pusherFrame
		if err := conn.ReadJSON(&reply); err != nil || reply.Event != pusherPong {
			return
		}
		pong <- struct{}{}

		for _, f := range events {
			if err := conn.WriteJSON(f); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestPusherBridge(t *testing.T) {
	payload, err := EncodeOrder(sampleOrder("777"))
	require.NoError(t, err)
	asString, err := json.Marshal(string(payload))
	require.NoError(t, err)

	events := []pusherFrame{
		{Event: "order-paid", Channel: testRoute.Channel, Data: asString},
		{Event: testRoute.Event, Channel: testRoute.Channel, Data: asString},
	}
	pong := make(chan struct{}, 1)
	srv := fakePusherSocket(t, events, pong)
	defer srv.Close()

	sink := newChanSink(4)
	bridge := NewPusherBridge(&config.PusherConfig{SocketURL: "ws" + strings.TrimPrefix(srv.URL, "http")}, testRoute, sink)
	assert.Equal(t, "pusher-bridge", bridge.String())

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- bridge.Serve(ctx) }()

	select {
	case <-pong:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge never answered the ping")
	}

	ev := sink.next(t, 2*time.Second)
	assert.Equal(t, "777", ev.Order.ID)
	assert.Equal(t, testRoute.Event, ev.Name)
	assert.Empty(t, sink.events, "filtered event must not reach the hub")

	cancel()
	select {
	case err := <-served:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not stop")
	}
}

func TestPusherBridgeDialFailure(t *testing.T) {
	bridge := NewPusherBridge(&config.PusherConfig{SocketURL: "ws://127.0.0.1:1/app/none"}, testRoute, newChanSink(1))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.ErrorContains(t, bridge.Serve(ctx), "dial pusher")
}
