// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package orders

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Price is an order total. NaN marks a total that could not be parsed.
type Price float64

// ParsePrice parses a decimal amount. Empty, malformed and non-finite
// input all yield NaN.
func ParsePrice(s string) Price {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return Price(math.NaN())
	}
	return Price(f)
}

// Valid reports whether the price parsed.
func (p Price) Valid() bool {
	return !math.IsNaN(float64(p))
}

// String renders two decimals, or NaN.
func (p Price) String() string {
	if !p.Valid() {
		return "NaN"
	}
	return strconv.FormatFloat(float64(p), 'f', 2, 64)
}

// MarshalJSON writes a JSON number, or the string "NaN" which JSON numbers
// cannot express.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return []byte(`"NaN"`), nil
	}
	return []byte(strconv.FormatFloat(float64(p), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts a number, a decimal string, "NaN" or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = Price(math.NaN())
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("price: %w", err)
		}
		*p = ParsePrice(s)
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("price: invalid number %q", data)
		}
		*p = Price(f)
	}
	return nil
}

// WebhookID is a platform order id. Ids exceed 2^53, so numeric ids keep
// their literal digits instead of passing through float64.
type WebhookID string

// UnmarshalJSON accepts a JSON number or string.
func (id *WebhookID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("id: %w", err)
		}
		*id = WebhookID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id: invalid number %q", data)
		}
		*id = WebhookID(n.String())
	}
	return nil
}
