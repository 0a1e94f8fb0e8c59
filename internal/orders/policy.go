// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package orders

// TestPolicy decides how test orders are shown.
type TestPolicy string

const (
	// TestPolicyDim shows test orders desaturated. They never trigger a cue.
	TestPolicyDim TestPolicy = "dim"
	// TestPolicyHide drops test orders from the feed and the relay.
	TestPolicyHide TestPolicy = "hide"
)

// ParseTestPolicy maps a config value to a policy, defaulting to dim.
func ParseTestPolicy(s string) TestPolicy {
	if TestPolicy(s) == TestPolicyHide {
		return TestPolicyHide
	}
	return TestPolicyDim
}

// Allows reports whether o should be displayed.
func (p TestPolicy) Allows(o Order) bool {
	return !(p == TestPolicyHide && o.IsTest)
}

// Filter returns the orders p allows, preserving order.
func (p TestPolicy) Filter(list []Order) []Order {
	out := make([]Order, 0, len(list))
	for _, o := range list {
		if p.Allows(o) {
			out = append(out, o)
		}
	}
	return out
}
