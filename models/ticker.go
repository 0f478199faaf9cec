package models

import "encoding/json"

// Ticker is a 24h market statistics snapshot. Numeric fields stay decimal
// strings; absent vendor fields are nil, never zero.
type Ticker struct {
	Symbol    string `json:"symbol"`
	Timestamp *int64 `json:"timestamp"`

	Bid  *string `json:"bid"`
	Ask  *string `json:"ask"`
	Last *string `json:"last"`

	High *string `json:"high"`
	Low  *string `json:"low"`

	BaseVolume  *string `json:"baseVolume"`
	QuoteVolume *string `json:"quoteVolume"`

	// Change is the absolute 24h price change, Percentage the relative one.
	Change     *string `json:"change"`
	Percentage *string `json:"percentage"`

	Info json.RawMessage `json:"info"`
}
