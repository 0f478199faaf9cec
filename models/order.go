package models

import "encoding/json"

// OrderStatus is the canonical order state. Only open is non-terminal.
// Unknown vendor statuses pass through as-is.
type OrderStatus string

const (
	OrderStatusOpen     OrderStatus = "open"
	OrderStatusClosed   OrderStatus = "closed"
	OrderStatusCanceled OrderStatus = "canceled"
	OrderStatusRejected OrderStatus = "rejected"
)

// OrderType is the canonical order type vocabulary.
type OrderType string

const (
	OrderTypeLimit      OrderType = "limit"
	OrderTypeMarket     OrderType = "market"
	OrderTypeStop       OrderType = "stop"
	OrderTypeStopLimit  OrderType = "stop limit"
	OrderTypeTakeProfit OrderType = "take profit"
)

// Order is a canonical order snapshot as reported by the venue.
type Order struct {
	ID            string  `json:"id"`
	ClientOrderID *string `json:"clientOrderId"`
	Timestamp     *int64  `json:"timestamp"`
	Symbol        string  `json:"symbol"`

	Type        OrderType `json:"type"`
	Side        Side      `json:"side"`
	TimeInForce *string   `json:"timeInForce"`
	PostOnly    *bool     `json:"postOnly"`

	Price        *string `json:"price"`
	TriggerPrice *string `json:"triggerPrice"`
	Amount       *string `json:"amount"`
	Remaining    *string `json:"remaining"`

	Status OrderStatus `json:"status"`
	Fee    *Fee        `json:"fee"`

	Info json.RawMessage `json:"info"`
}
