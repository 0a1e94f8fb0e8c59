// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data
}

type fakeBroker bool

func (b fakeBroker) IsRunning() bool { return bool(b) }

func TestHealthLive(t *testing.T) {
	h := newTestHandler(t, &fakeFeed{}, &recordingRelay{}, nil)
	w := httptest.NewRecorder()
	h.HealthLive(w, httptest.NewRequest(http.MethodGet, "/healthz/live", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeResponse(t, w)["alive"])
}

func TestHealthReady(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		_, h := liveServer(t, &fakeFeed{})
		w := httptest.NewRecorder()
		h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w)
		assert.Equal(t, "ready", data["status"])
		assert.Equal(t, "socket", data["transport"])
	})

	t.Run("hub stopped", func(t *testing.T) {
		h := newTestHandler(t, &fakeFeed{}, &recordingRelay{}, nil)
		w := httptest.NewRecorder()
		h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, false, decodeResponse(t, w)["hub_running"])
	})

	t.Run("pending views", func(t *testing.T) {
		_, h := liveServer(t, &fakeFeed{})
		h.snapshots.Set("view-1", nil)
		h.snapshots.Set("view-2", nil)
		w := httptest.NewRecorder()
		h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w)
		assert.EqualValues(t, 2, data["pending_views"])
		_, reported := data["embedded_broker_running"]
		assert.False(t, reported, "no embedded broker configured")
	})

	t.Run("embedded broker", func(t *testing.T) {
		for _, running := range []bool{true, false} {
			_, h := liveServer(t, &fakeFeed{})
			h.broker = fakeBroker(running)
			w := httptest.NewRecorder()
			h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

			want := http.StatusOK
			if !running {
				want = http.StatusServiceUnavailable
			}
			assert.Equal(t, want, w.Code, "broker running=%v", running)
			assert.Equal(t, running, decodeResponse(t, w)["embedded_broker_running"])
		}
	})

	t.Run("shop unreachable", func(t *testing.T) {
		_, h := liveServer(t, &fakeFeed{pingErr: errShopDown})
		w := httptest.NewRecorder()
		h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, false, decodeResponse(t, w)["shop_reachable"])
	})
}
