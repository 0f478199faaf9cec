package btcmarkets

import (
	"encoding/json"
	"strings"

	"coinbridge/trading"
)

// exactErrors maps vendor error codes (and exact messages) to canonical
// kinds. Matched before broadErrors so a precise code always wins over a
// keyword hit.
var exactErrors = map[string]error{
	"InsufficientFund":           trading.ErrInsufficientFunds,
	"InvalidPrice":               trading.ErrInvalidOrder,
	"InvalidAmount":              trading.ErrInvalidOrder,
	"MissingArgument":            trading.ErrBadRequest,
	"OrderAlreadyCancelled":      trading.ErrInvalidOrder,
	"OrderNotFound":              trading.ErrOrderNotFound,
	"OrderStatusIsFinal":         trading.ErrInvalidOrder,
	"InvalidPaginationParameter": trading.ErrBadRequest,
}

// broadErrors matches substrings of the vendor message. BTC Markets needs
// no broad rules today; the slice keeps match order deterministic should
// one be added.
var broadErrors = []struct {
	substr string
	kind   error
}{}

// classifyError inspects a response body for the vendor error envelope
// and maps it to a canonical error. Lookup order: exact message, exact
// code, broad substring, then a generic exchange error that preserves the
// vendor code and message. A body without an error code is not an error
// and yields nil.
func classifyError(body []byte) error {
	var payload errorData
	if err := json.Unmarshal(body, &payload); err != nil {
		// Arrays and other non-envelope payloads are valid responses.
		return nil
	}
	if payload.Code == "" {
		return nil
	}
	if kind, ok := exactErrors[payload.Message]; ok {
		return trading.NewError(kind, payload.Code, payload.Message)
	}
	if kind, ok := exactErrors[payload.Code]; ok {
		return trading.NewError(kind, payload.Code, payload.Message)
	}
	for _, rule := range broadErrors {
		if strings.Contains(payload.Message, rule.substr) {
			return trading.NewError(rule.kind, payload.Code, payload.Message)
		}
	}
	return trading.NewError(trading.ErrExchange, payload.Code, payload.Message)
}
