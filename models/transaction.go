package models

import "encoding/json"

// TransactionType distinguishes fund movements.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus is the canonical transfer state. Unknown vendor
// statuses pass through as-is.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusOK        TransactionStatus = "ok"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is a deposit or withdrawal. Amount is net of the fee.
type Transaction struct {
	ID        string          `json:"id"`
	TxID      *string         `json:"txid"`
	Type      TransactionType `json:"type"`
	Timestamp *int64          `json:"timestamp"`
	Updated   *int64          `json:"updated"`
	Currency  string          `json:"currency"`
	Amount    *string         `json:"amount"`

	Status TransactionStatus `json:"status"`

	// Address and Tag are split out of the vendor's composite
	// "address?dt=tag" field when the delimiter is present.
	Address *string `json:"address"`
	Tag     *string `json:"tag"`

	Comment *string `json:"comment"`
	Fee     *Fee    `json:"fee"`

	Info json.RawMessage `json:"info"`
}
