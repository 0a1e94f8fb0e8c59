// Orderboard - Real-time Order Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderboard

// Package orders defines the flat order view model and the normalizers that
// build it from the commerce platform's GraphQL feed and webhook payloads.
//
// Normalization never fails on well-formed input: a price that does not
// parse becomes NaN for that one order and everything else is kept.
package orders

import (
	"strings"
)

// Order is the display model shared by the feed, the relay and the dashboard.
type Order struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	IsTest          bool   `json:"isTest"`
	CustomerName    string `json:"customerName"`
	Price           Price  `json:"price"`
	ProcessedAt     string `json:"processedAt"`
	FinancialStatus string `json:"financialStatus"`
}

// FeedNode is one order node of the GraphQL orders connection.
type FeedNode struct {
	ID                     string        `json:"id"`
	Name                   string        `json:"name"`
	Test                   bool          `json:"test"`
	Customer               *FeedCustomer `json:"customer"`
	TotalPriceSet          MoneyBag      `json:"totalPriceSet"`
	ProcessedAt            string        `json:"processedAt"`
	DisplayFinancialStatus string        `json:"displayFinancialStatus"`
	CancelledAt            *string       `json:"cancelledAt"`
}

// FeedCustomer is the customer block of a feed node.
type FeedCustomer struct {
	DisplayName string `json:"displayName"`
}

// MoneyBag holds an amount in the shop's currency.
type MoneyBag struct {
	ShopMoney Money `json:"shopMoney"`
}

// Money is a decimal amount as the platform sends it.
type Money struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// WebhookCustomer is the customer block of an order webhook.
type WebhookCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// WebhookPayload is the order-created webhook body. Only the fields the
// dashboard shows are decoded.
type WebhookPayload struct {
	ID              WebhookID        `json:"id" validate:"required"`
	Name            string           `json:"name"`
	Test            bool             `json:"test"`
	Customer        *WebhookCustomer `json:"customer"`
	TotalPrice      string           `json:"total_price"`
	ProcessedAt     string           `json:"processed_at" validate:"required,rfc3339"`
	FinancialStatus string           `json:"financial_status"`
	CancelledAt     *string          `json:"cancelled_at"`
}

// FromFeed normalizes a GraphQL node.
func FromFeed(n *FeedNode) Order {
	customer := ""
	if n.Customer != nil {
		customer = strings.TrimSpace(n.Customer.DisplayName)
	}
	return Order{
		ID:              n.ID,
		Name:            n.Name,
		IsTest:          n.Test,
		CustomerName:    customer,
		Price:           ParsePrice(n.TotalPriceSet.ShopMoney.Amount),
		ProcessedAt:     n.ProcessedAt,
		FinancialStatus: n.DisplayFinancialStatus,
	}
}

// FromWebhook normalizes a webhook payload. The display name falls back to
// the id when the payload has none.
func FromWebhook(p *WebhookPayload) Order {
	id := string(p.ID)
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = id
	}
	customer := ""
	if p.Customer != nil {
		customer = strings.TrimSpace(p.Customer.FirstName + " " + p.Customer.LastName)
	}
	return Order{
		ID:              id,
		Name:            name,
		IsTest:          p.Test,
		CustomerName:    customer,
		Price:           ParsePrice(p.TotalPrice),
		ProcessedAt:     p.ProcessedAt,
		FinancialStatus: p.FinancialStatus,
	}
}

// Cancelled reports whether the payload describes a cancelled order.
func (p *WebhookPayload) Cancelled() bool {
	return p.CancelledAt != nil && *p.CancelledAt != ""
}
