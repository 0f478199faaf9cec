package models

import "encoding/json"

// Market describes a tradable pair in exchange-agnostic form. Precision is
// expressed as a tick size (the smallest accepted increment), not as a
// decimal-place count.
type Market struct {
	ID      string `json:"id"`
	Symbol  string `json:"symbol"`
	Base    string `json:"base"`
	Quote   string `json:"quote"`
	BaseID  string `json:"baseId"`
	QuoteID string `json:"quoteId"`
	Active  bool   `json:"active"`

	// Maker and Taker are fee rates as decimal strings.
	Maker string `json:"maker"`
	Taker string `json:"taker"`

	AmountTick string `json:"amountTick"`
	PriceTick  string `json:"priceTick"`

	MinAmount *string `json:"minAmount"`
	MaxAmount *string `json:"maxAmount"`
	MinPrice  *string `json:"minPrice"`

	// Info carries the verbatim vendor payload for debugging. Canonical
	// fields above are the ones consumers must trust.
	Info json.RawMessage `json:"info"`
}
