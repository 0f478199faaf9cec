package models

import "encoding/json"

// Balance is the per-currency account balance. Free is derived as
// total minus used.
type Balance struct {
	Currency string `json:"currency"`
	Used     string `json:"used"`
	Total    string `json:"total"`
	Free     string `json:"free"`

	Info json.RawMessage `json:"info"`
}

// Balances indexes balances by canonical currency code.
type Balances map[string]Balance
