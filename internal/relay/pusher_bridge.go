// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package relay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
)

// Pusher protocol events used by the bridge.
const (
	pusherConnectionEstablished = "pusher:connection_established"
	pusherSubscribe             = "pusher:subscribe"
	pusherSubscribed            = "pusher_internal:subscription_succeeded"
	pusherPing                  = "pusher:ping"
	pusherPong                  = "pusher:pong"
	pusherError                 = "pusher:error"

	pusherProtocolVersion = "7"
	pusherWriteWait       = 10 * time.Second
	pusherDefaultTimeout  = 120 * time.Second
)

// pusherFrame is one message of the Pusher websocket protocol. Data is a
// JSON string for server events and an object for client requests.
type pusherFrame struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type pusherEstablished struct {
	SocketID        string `json:"socket_id"`
	ActivityTimeout int    `json:"activity_timeout"`
}

// PusherSocketURL returns the websocket endpoint for cfg.
func PusherSocketURL(cfg *config.PusherConfig) string {
	if cfg.SocketURL != "" {
		return cfg.SocketURL
	}
	q := url.Values{}
	q.Set("protocol", pusherProtocolVersion)
	q.Set("client", "orderboard-go")
	q.Set("version", "1.0")
	return fmt.Sprintf("wss://ws-%s.pusher.com/app/%s?%s", cfg.Cluster, url.PathEscape(cfg.Key), q.Encode())
}

// PusherBridge is a Pusher Channels websocket client that subscribes to the
// relay channel and feeds the local hub.
type PusherBridge struct {
	url    string
	route  Route
	sink   Sink
	dialer *websocket.Dialer
}

// NewPusherBridge creates a bridge; the connection is made in Serve.
func NewPusherBridge(cfg *config.PusherConfig, route Route, sink Sink) *PusherBridge {
	return &PusherBridge{
		url:    PusherSocketURL(cfg),
		route:  route,
		sink:   sink,
		dialer: websocket.DefaultDialer,
	}
}

func (b *PusherBridge) String() string { return "pusher-bridge" }

// Serve runs one connection until ctx ends or the connection fails.
func (b *PusherBridge) Serve(ctx context.Context) error {
	conn, resp, err := b.dialer.DialContext(ctx, b.url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("dial pusher: %w", err)
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
	}()

	err = b.run(conn)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (b *PusherBridge) run(conn *websocket.Conn) error {
	timeout := pusherDefaultTimeout

	for {
		// Pusher sends pings inside its activity timeout; twice that means
		// the connection is dead.
		if err := conn.SetReadDeadline(time.Now().Add(2 * timeout)); err != nil {
			return err
		}
		var f pusherFrame
		if err := conn.ReadJSON(&f); err != nil {
			return fmt.Errorf("read pusher frame: %w", err)
		}

		switch f.Event {
		case pusherConnectionEstablished:
			var est pusherEstablished
			if err := unmarshalData(f.Data, &est); err != nil {
				return fmt.Errorf("connection_established: %w", err)
			}
			if est.ActivityTimeout > 0 {
				timeout = time.Duration(est.ActivityTimeout) * time.Second
			}
			logging.Info().Str("socket_id", est.SocketID).Str("channel", b.route.Channel).Msg("Pusher bridge connected")
			if err := b.write(conn, pusherFrame{Event: pusherSubscribe, Data: mustJSON(map[string]string{"channel": b.route.Channel})}); err != nil {
				return err
			}

		case pusherSubscribed:
			logging.Info().Str("channel", f.Channel).Msg("Pusher bridge subscribed")

		case pusherPing:
			if err := b.write(conn, pusherFrame{Event: pusherPong, Data: json.RawMessage(`{}`)}); err != nil {
				return err
			}

		case pusherError:
			logging.Warn().RawJSON("data", f.Data).Msg("Pusher bridge received an error")

		default:
			if f.Channel == "" {
				continue
			}
			payload, err := dataBytes(f.Data)
			if err != nil {
				deliver(b.sink, config.TransportPusher, b.route, f.Channel, f.Event, nil)
				continue
			}
			deliver(b.sink, config.TransportPusher, b.route, f.Channel, f.Event, payload)
		}
	}
}

func (b *PusherBridge) write(conn *websocket.Conn, f pusherFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(pusherWriteWait)); err != nil {
		return err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// dataBytes unwraps Pusher's string-encoded data field. Raw objects are
// passed through.
func dataBytes(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty data")
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func unmarshalData(raw json.RawMessage, v interface{}) error {
	data, err := dataBytes(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
