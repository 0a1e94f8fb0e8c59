// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package websocket

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/orderboard/internal/dashboard"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// Control message types read from the browser.
const (
	MessageTypeMute = "mute"
	MessageTypePing = "ping"
	MessageTypePong = "pong"
)

// Message is a control message from the browser.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

var clientIDCounter atomic.Uint64

// Client binds one browser connection to one dashboard view.
type Client struct {
	id      uint64
	conn    *websocket.Conn
	view    *dashboard.View
	control chan Message
}

// NewClient creates a client for conn rendering view.
func NewClient(conn *websocket.Conn, view *dashboard.View) *Client {
	return &Client{
		id:      clientIDCounter.Add(1),
		conn:    conn,
		view:    view,
		control: make(chan Message, 8),
	}
}

// ID returns the client's unique identifier.
func (c *Client) ID() uint64 {
	return c.id
}

// Serve runs the view and both pumps. It blocks until the browser
// disconnects or the view ends, and always disposes the view.
func (c *Client) Serve(ctx context.Context, subscribe dashboard.SubscribeFunc) {
	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	go c.writePump()
	go func() {
		err := c.view.Run(ctx, subscribe)
		if err != nil && !errors.Is(err, dashboard.ErrDisposed) {
			logging.Warn().Uint64("client", c.id).Err(err).Msg("dashboard view stopped")
		}
		// A view that could not subscribe never closes its frames on its own.
		c.view.Dispose()
	}()

	c.readPump()
}

// readPump reads control messages until the connection fails, then disposes
// the view so the write side and the subscription wind down.
func (c *Client) readPump() {
	defer func() {
		c.view.Dispose()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				metrics.WSErrors.WithLabelValues("unexpected_close").Inc()
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			return
		}
		metrics.WSMessagesReceived.Inc()
		c.handle(msg)
	}
}

func (c *Client) handle(msg Message) {
	switch msg.Type {
	case MessageTypeMute:
		var muted bool
		if err := json.Unmarshal(msg.Data, &muted); err != nil {
			metrics.WSErrors.WithLabelValues("bad_control").Inc()
			logging.Debug().Err(err).Msg("ignoring malformed mute message")
			return
		}
		c.view.SetMuted(muted)
	case MessageTypePing:
		select {
		case c.control <- Message{Type: MessageTypePong}:
		default:
		}
	default:
		metrics.WSErrors.WithLabelValues("unknown_type").Inc()
	}
}

// writePump writes view frames, pong replies and keepalive pings. It owns
// all writes to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	frames := c.view.Frames()
	for {
		select {
		case frame, ok := <-frames:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if !ok {
				// The view was disposed.
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.writeJSON(frame); err != nil {
				metrics.WSErrors.WithLabelValues("write").Inc()
				logging.Debug().Err(err).Msg("failed to write frame")
				return
			}

		case msg := <-c.control:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.writeJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.WSMessagesSent.Inc()
	return nil
}
