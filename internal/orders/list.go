// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package orders

import "sync"

// DefaultLimit is how many orders a dashboard shows.
const DefaultLimit = 15

// PrependBounded returns a new slice with o first followed by list, cut to
// limit entries. list is not modified and nothing is re-sorted.
func PrependBounded(list []Order, o Order, limit int) []Order {
	if limit < 1 {
		return []Order{}
	}
	n := len(list) + 1
	if n > limit {
		n = limit
	}
	out := make([]Order, n)
	out[0] = o
	copy(out[1:], list)
	return out
}

// List is a bounded most-recent-first order list safe for concurrent use.
type List struct {
	mu    sync.RWMutex
	limit int
	items []Order
}

// NewList seeds a list with initial (already most-recent-first), truncated to limit.
func NewList(limit int, initial []Order) *List {
	if limit < 1 {
		limit = DefaultLimit
	}
	if len(initial) > limit {
		initial = initial[:limit]
	}
	items := make([]Order, len(initial))
	copy(items, initial)
	return &List{limit: limit, items: items}
}

// Prepend adds o at the head, evicting the tail when full.
func (l *List) Prepend(o Order) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = PrependBounded(l.items, o, l.limit)
}

// Snapshot returns a copy of the current contents.
func (l *List) Snapshot() []Order {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Order, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the current number of orders.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Limit returns the capacity.
func (l *List) Limit() int {
	return l.limit
}
