// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/tomtom215/orderboard/internal/orders"
)

func TestValidateStruct_WebhookPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    orders.WebhookPayload
		wantFields []string
	}{
		{
			name:    "valid",
			payload: orders.WebhookPayload{ID: "1", ProcessedAt: "2024-05-01T10:00:00-04:00"},
		},
		{
			name:       "missing id",
			payload:    orders.WebhookPayload{ProcessedAt: "2024-05-01T10:00:00Z"},
			wantFields: []string{"id"},
		},
		{
			name:       "missing both",
			payload:    orders.WebhookPayload{},
			wantFields: []string{"id", "processed_at"},
		},
		{
			name:       "bad timestamp",
			payload:    orders.WebhookPayload{ID: "1", ProcessedAt: "yesterday"},
			wantFields: []string{"processed_at"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(&tt.payload)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v", err)
				}
				return
			}

			var ve *RequestValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *RequestValidationError, got %v", err)
			}
			if len(ve.Errors()) != len(tt.wantFields) {
				t.Fatalf("errors = %v, want fields %v", ve.Errors(), tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if ve.Errors()[i].Field() != f {
					t.Errorf("field[%d] = %q, want %q", i, ve.Errors()[i].Field(), f)
				}
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	err := ValidateStruct(&orders.WebhookPayload{ProcessedAt: "nope"})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "id is required") || !strings.Contains(msg, "processed_at must be an RFC 3339 timestamp") {
		t.Errorf("message = %q", msg)
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator should return the same instance")
	}
}
