package models

import "encoding/json"

// BookLevel is a single price level of an order book side.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OrderBook is a depth snapshot. Asks are sorted ascending and bids
// descending by price, with at most one level per price.
type OrderBook struct {
	Symbol    string      `json:"symbol"`
	Timestamp *int64      `json:"timestamp"`
	Nonce     int64       `json:"nonce"`
	Asks      []BookLevel `json:"asks"`
	Bids      []BookLevel `json:"bids"`

	Info json.RawMessage `json:"info"`
}
