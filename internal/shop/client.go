// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

/*
Package shop is the order feed source: one GraphQL request to the commerce
platform's Admin API returning the most recent orders, newest first.

Resilience:
  - Circuit breaker "shop-api" fails fast while the API is down
  - A token bucket limiter keeps page loads from exceeding the API budget
  - No retries: a failed fetch is reported to the caller as-is
*/
package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/orderboard/internal/breaker"
	"github.com/tomtom215/orderboard/internal/config"
	"github.com/tomtom215/orderboard/internal/logging"
	"github.com/tomtom215/orderboard/internal/metrics"
	"github.com/tomtom215/orderboard/internal/orders"
)

// AccessTokenHeader carries the Admin API token.
const AccessTokenHeader = "X-Shopify-Access-Token"

// BreakerName labels the feed circuit breaker in metrics.
const BreakerName = "shop-api"

// maxErrorBodySize caps how much of an error response ends up in an error.
const maxErrorBodySize = 1024

// ErrUpstream wraps every failure talking to the commerce API.
var ErrUpstream = errors.New("shop: upstream request failed")

const recentOrdersQuery = `query RecentOrders($first: Int!, $query: String) {
  orders(first: $first, reverse: true, sortKey: PROCESSED_AT, query: $query) {
    edges {
      node {
        id
        name
        test
        customer { displayName }
        totalPriceSet { shopMoney { amount currencyCode } }
        processedAt
        displayFinancialStatus
        cancelledAt
      }
    }
  }
}`

const pingQuery = `query Ping { shop { name } }`

// Feed is what page handlers need from the order source.
type Feed interface {
	Recent(ctx context.Context, limit int) ([]orders.Order, error)
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type ordersConnection struct {
	Edges []struct {
		Node orders.FeedNode `json:"node"`
	} `json:"edges"`
}

type ordersResponse struct {
	Data *struct {
		Orders *ordersConnection `json:"orders"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type pingResponse struct {
	Data *struct {
		Shop *struct {
			Name string `json:"name"`
		} `json:"shop"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// Client talks to the Admin GraphQL endpoint.
type Client struct {
	http             *resty.Client
	endpoint         string
	excludeCancelled bool
	limiter          *rate.Limiter
	breaker          *breaker.Breaker
}

// NewClient builds a client for cfg. cfg.URL must already be normalized to
// an https base URL.
func NewClient(cfg *config.ShopConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader(AccessTokenHeader, cfg.AccessToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		http:             httpClient,
		endpoint:         GraphQLEndpoint(cfg.URL, cfg.APIVersion),
		excludeCancelled: cfg.ExcludeCancelled,
		limiter:          rate.NewLimiter(limit, burst),
		breaker:          breaker.New(BreakerName),
	}
}

// GraphQLEndpoint returns {base}/admin/api/{version}/graphql.json.
func GraphQLEndpoint(baseURL, version string) string {
	return fmt.Sprintf("%s/admin/api/%s/graphql.json", strings.TrimRight(baseURL, "/"), version)
}

// Recent returns up to limit orders, most recent first.
func (c *Client) Recent(ctx context.Context, limit int) ([]orders.Order, error) {
	if limit <= 0 {
		limit = orders.DefaultLimit
	}

	vars := map[string]interface{}{"first": limit, "query": nil}
	if c.excludeCancelled {
		vars["query"] = "NOT status:cancelled"
	}

	start := time.Now()
	var out ordersResponse
	err := c.post(ctx, graphQLRequest{Query: recentOrdersQuery, Variables: vars}, &out)
	if err == nil {
		err = graphQLErr(out.Errors)
	}
	if err == nil && (out.Data == nil || out.Data.Orders == nil) {
		err = fmt.Errorf("%w: response has no data.orders", ErrUpstream)
	}
	if err != nil {
		metrics.RecordFeedFetch(time.Since(start), 0, fetchReason(err), err)
		return nil, err
	}

	edges := out.Data.Orders.Edges
	if len(edges) > limit {
		edges = edges[:limit]
	}
	result := make([]orders.Order, len(edges))
	for i := range edges {
		result[i] = orders.FromFeed(&edges[i].Node)
	}

	metrics.RecordFeedFetch(time.Since(start), len(result), "", nil)
	logging.Debug().Int("orders", len(result)).Dur("duration", time.Since(start)).Msg("Fetched recent orders")
	return result, nil
}

// Ping checks credentials with the smallest possible query.
func (c *Client) Ping(ctx context.Context) error {
	var out pingResponse
	if err := c.post(ctx, graphQLRequest{Query: pingQuery}, &out); err != nil {
		return err
	}
	if err := graphQLErr(out.Errors); err != nil {
		return err
	}
	if out.Data == nil || out.Data.Shop == nil {
		return fmt.Errorf("%w: response has no data.shop", ErrUpstream)
	}
	return nil
}

func (c *Client) post(ctx context.Context, body graphQLRequest, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrUpstream, err)
	}

	err := c.breaker.Do(func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(body).
			SetResult(result).
			Post(c.endpoint)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUpstream, err)
		}
		if resp.IsError() {
			return &StatusError{Code: resp.StatusCode(), Body: truncate(resp.String(), maxErrorBodySize)}
		}
		return nil
	})
	if breaker.IsOpen(err) {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return err
}

// StatusError is a non-2xx response from the API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("shop: HTTP %d: %s", e.Code, e.Body)
}

// Unwrap lets callers match ErrUpstream.
func (e *StatusError) Unwrap() error { return ErrUpstream }

func graphQLErr(errs []graphQLError) error {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return fmt.Errorf("%w: graphql: %s", ErrUpstream, strings.Join(msgs, "; "))
}

func fetchReason(err error) string {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return "status"
	case breaker.IsOpen(err):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case strings.Contains(err.Error(), "graphql:"):
		return "graphql"
	case strings.Contains(err.Error(), "no data"):
		return "shape"
	default:
		return "transport"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
