// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package cache

import (
	"sync"
	"time"
)

type lruNode struct {
	key       string
	expiresAt time.Time
	prev      *lruNode
	next      *lruNode
}

// Deduper remembers recently seen keys in a bounded LRU with TTL.
// Webhook deliveries are retried by the platform with the same delivery id,
// so a seen id inside the window is a redelivery.
type Deduper struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	items    map[string]*lruNode
	// head.next is most recent, tail.prev least recent
	head, tail *lruNode
}

// NewDeduper creates a deduper holding at most capacity keys for ttl each.
func NewDeduper(capacity int, ttl time.Duration) *Deduper {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	d := &Deduper{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*lruNode, capacity),
		head:     &lruNode{},
		tail:     &lruNode{},
	}
	d.head.next = d.tail
	d.tail.prev = d.head
	return d
}

// IsDuplicate reports whether key was seen within the TTL and records it
// otherwise. An empty key is never a duplicate and is not recorded.
func (d *Deduper) IsDuplicate(key string) bool {
	if key == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if n, ok := d.items[key]; ok {
		if !now.After(n.expiresAt) {
			d.unlink(n)
			d.pushFront(n)
			return true
		}
		d.unlink(n)
		delete(d.items, key)
	}

	n := &lruNode{key: key, expiresAt: now.Add(d.ttl)}
	d.pushFront(n)
	d.items[key] = n
	for len(d.items) > d.capacity {
		oldest := d.tail.prev
		d.unlink(oldest)
		delete(d.items, oldest.key)
	}
	return false
}

// Len returns the number of remembered keys.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

func (d *Deduper) pushFront(n *lruNode) {
	n.prev = d.head
	n.next = d.head.next
	d.head.next.prev = n
	d.head.next = n
}

func (d *Deduper) unlink(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}
