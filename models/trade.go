package models

import "encoding/json"

// Side is the canonical order side. Unrecognized vendor tokens pass
// through unchanged so new vendor values do not break normalization.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Fee is a charged fee denominated in a specific currency.
type Fee struct {
	Currency string `json:"currency"`
	Cost     string `json:"cost"`
}

// Trade is a single execution, public or private.
type Trade struct {
	ID        string `json:"id"`
	Timestamp *int64 `json:"timestamp"`
	Symbol    string `json:"symbol"`
	Side      Side   `json:"side"`
	Price     string `json:"price"`
	Amount    string `json:"amount"`

	OrderID      *string `json:"order"`
	TakerOrMaker *string `json:"takerOrMaker"`
	Fee          *Fee    `json:"fee"`

	Info json.RawMessage `json:"info"`
}
