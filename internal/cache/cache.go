// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package cache provides the in-memory TTL store that hands rendered order
// snapshots from the page to its socket, and the LRU used to drop
// redelivered webhooks.
package cache

import (
	"sync"
	"time"

	"github.com/tomtom215/orderboard/internal/metrics"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is a thread-safe TTL map. Expired entries are dropped lazily on
// access and by a periodic sweep until Close.
type Store[V any] struct {
	name    string
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]entry[V]

	stop      chan struct{}
	closeOnce sync.Once
	stats     Stats
}

// Stats is a snapshot of store activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// NewStore creates a store whose entries live for ttl. name labels metrics.
// The sweep runs every ttl/2 (at least once a second).
func NewStore[V any](name string, ttl time.Duration) *Store[V] {
	s := &Store[V]{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
		stop:    make(chan struct{}),
	}
	interval := ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	go s.cleanupLoop(interval)
	return s
}

// Get returns the value for key if present and unexpired.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if ok && s.now().After(e.expiresAt) {
		delete(s.entries, key)
		s.stats.Evictions++
		ok = false
	}
	if !ok {
		s.stats.Misses++
		metrics.RecordCacheAccess(s.name, false)
		var zero V
		return zero, false
	}
	s.stats.Hits++
	metrics.RecordCacheAccess(s.name, true)
	return e.value, true
}

// Set stores value under key with the default TTL.
func (s *Store[V]) Set(key string, value V) {
	s.SetWithTTL(key, value, s.ttl)
}

// SetWithTTL stores value under key for ttl.
func (s *Store[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	s.mu.Lock()
	s.entries[key] = entry[V]{value: value, expiresAt: s.now().Add(ttl)}
	n := len(s.entries)
	s.mu.Unlock()
	metrics.CacheSize.WithLabelValues(s.name).Set(float64(n))
}

// Delete removes key.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	if _, ok := s.entries[key]; ok {
		delete(s.entries, key)
		s.stats.Evictions++
	}
	n := len(s.entries)
	s.mu.Unlock()
	metrics.CacheSize.WithLabelValues(s.name).Set(float64(n))
}

// Len returns the number of stored entries, expired or not.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetStats returns a copy of the counters.
func (s *Store[V]) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Keys = len(s.entries)
	return st
}

// Close stops the sweep goroutine. The store stays usable.
func (s *Store[V]) Close() {
	s.closeOnce.Do(func() { close(s.stop) })
}

func (s *Store[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *Store[V]) cleanup() {
	now := s.now()
	s.mu.Lock()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			s.stats.Evictions++
		}
	}
	n := len(s.entries)
	s.mu.Unlock()
	metrics.CacheSize.WithLabelValues(s.name).Set(float64(n))
}
