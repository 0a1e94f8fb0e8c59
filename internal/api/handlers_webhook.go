// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/metrics"
	"github.com/tomtom215/orderboard/internal/orders"
	"github.com/tomtom215/orderboard/internal/validation"
)

// Webhook headers set by the commerce platform.
const (
	HeaderWebhookHMAC  = "X-Shopify-Hmac-Sha256"
	HeaderWebhookID    = "X-Shopify-Webhook-Id"
	HeaderWebhookTopic = "X-Shopify-Topic"

	maxWebhookBody = 1 << 20
)

// Webhook receives order-created notifications.
// POST /api/webhook
//
// Responses never carry a body. Anything other than POST, duplicates,
// filtered orders and relay failures all answer 200; the platform only
// needs to know the delivery arrived. Bad signatures get 401 and payloads
// that do not parse or validate get 400.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if r.Method != http.MethodPost {
		metrics.RecordWebhook("ignored_method")
		respondEmpty(w, http.StatusOK)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		metrics.RecordWebhook("malformed")
		respondEmpty(w, http.StatusBadRequest)
		return
	}

	if secret := h.cfg.Shop.WebhookSecret; secret != "" {
		if !verifyWebhookSignature(body, r.Header.Get(HeaderWebhookHMAC), secret) {
			h.security.LogWebhookRejected(r.RemoteAddr, "invalid signature")
			metrics.RecordWebhook("invalid_signature")
			respondEmpty(w, http.StatusUnauthorized)
			return
		}
	}

	var payload orders.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Webhook payload is not valid JSON")
		metrics.RecordWebhook("malformed")
		respondEmpty(w, http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStruct(&payload); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Webhook payload failed validation")
		metrics.RecordWebhook("malformed")
		respondEmpty(w, http.StatusBadRequest)
		return
	}

	if h.deduper.IsDuplicate(r.Header.Get(HeaderWebhookID)) {
		metrics.RecordWebhook("duplicate")
		respondEmpty(w, http.StatusOK)
		return
	}

	o := orders.FromWebhook(&payload)
	if (h.cfg.Shop.ExcludeCancelled && payload.Cancelled()) || !h.policy.Allows(o) {
		metrics.RecordWebhook("filtered")
		respondEmpty(w, http.StatusOK)
		return
	}

	// The platform may hang up once it has its 200; the publish must not
	// be cancelled with it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.publishTimeout())
	defer cancel()

	log := logging.Ctx(r.Context())
	if err := h.relay.Publish(ctx, o); err != nil {
		log.Error().Err(err).
			Str("order", o.ID).
			Str("transport", h.relay.Name()).
			Msg("Failed to relay webhook order")
		metrics.RecordWebhook("relay_failed")
		respondEmpty(w, http.StatusOK)
		return
	}

	log.Info().
		Str("order", o.ID).
		Str("name", logging.SanitizeLogValue(o.Name)).
		Bool("test", o.IsTest).
		Str("topic", logging.SanitizeLogValue(r.Header.Get(HeaderWebhookTopic))).
		Dur("duration", time.Since(start)).
		Msg("Webhook order relayed")
	metrics.RecordWebhook("accepted")
	respondEmpty(w, http.StatusOK)
}

// verifyWebhookSignature checks the base64 HMAC-SHA256 of the raw body.
func verifyWebhookSignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	given, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(given, mac.Sum(nil))
}
