// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test-metrics", "200"))
	RecordAPIRequest("GET", "/test-metrics", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/test-metrics", "200"))

	if after-before != 1 {
		t.Errorf("request counter delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("active = %v, want %v", got, before)
	}
}

func TestRecordFeedFetch(t *testing.T) {
	beforeOrders := testutil.ToFloat64(FeedOrdersFetched)
	beforeErr := testutil.ToFloat64(FeedFetchErrors.WithLabelValues("graphql"))

	RecordFeedFetch(time.Second, 15, "", nil)
	RecordFeedFetch(time.Second, 0, "graphql", errors.New("throttled"))

	if got := testutil.ToFloat64(FeedOrdersFetched) - beforeOrders; got != 15 {
		t.Errorf("orders fetched delta = %v, want 15", got)
	}
	if got := testutil.ToFloat64(FeedFetchErrors.WithLabelValues("graphql")) - beforeErr; got != 1 {
		t.Errorf("graphql errors delta = %v, want 1", got)
	}
}

func TestRecordRelayPublish(t *testing.T) {
	ok := RelayPublishes.WithLabelValues("test", "success")
	fail := RelayPublishes.WithLabelValues("test", "failure")
	okBefore, failBefore := testutil.ToFloat64(ok), testutil.ToFloat64(fail)

	RecordRelayPublish("test", time.Millisecond, nil)
	RecordRelayPublish("test", time.Millisecond, errors.New("down"))

	if testutil.ToFloat64(ok)-okBefore != 1 || testutil.ToFloat64(fail)-failBefore != 1 {
		t.Error("expected one success and one failure")
	}
}

func TestRecordViewTransition(t *testing.T) {
	live := DashboardViews.WithLabelValues("live")
	initGauge := DashboardViews.WithLabelValues("initializing")
	liveBefore, initBefore := testutil.ToFloat64(live), testutil.ToFloat64(initGauge)

	RecordViewTransition("", "initializing")
	RecordViewTransition("initializing", "live")

	if got := testutil.ToFloat64(initGauge); got != initBefore {
		t.Errorf("initializing = %v, want %v", got, initBefore)
	}
	if got := testutil.ToFloat64(live); got != liveBefore+1 {
		t.Errorf("live = %v, want %v", got, liveBefore+1)
	}
}

func TestRecordCacheAccess(t *testing.T) {
	hits := CacheHits.WithLabelValues("test")
	misses := CacheMisses.WithLabelValues("test")
	h, m := testutil.ToFloat64(hits), testutil.ToFloat64(misses)

	RecordCacheAccess("test", true)
	RecordCacheAccess("test", false)
	RecordCacheAccess("test", false)

	if testutil.ToFloat64(hits)-h != 1 || testutil.ToFloat64(misses)-m != 2 {
		t.Error("unexpected cache counters")
	}
}
