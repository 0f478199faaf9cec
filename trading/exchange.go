// Package trading defines the exchange-agnostic surface every connector
// implements, so a routing layer can treat all venues interchangeably.
package trading

import (
	"context"

	"github.com/google/uuid"

	"coinbridge/models"
)

// Query narrows history requests. Symbol filters trades and orders,
// Currency filters transactions; Since is epoch milliseconds. Nil fields
// are omitted from the vendor request.
type Query struct {
	Symbol   string
	Currency string
	Since    *int64
	Limit    *int
}

// CreateOrderParams carries everything needed to place an order. Amount,
// Price and TriggerPrice are decimal strings; empty string means unset.
type CreateOrderParams struct {
	Symbol string
	Type   models.OrderType
	Side   models.Side
	Amount string

	// Price is required for limit and stop limit orders.
	Price string
	// TriggerPrice is required for stop, stop limit and take profit orders.
	TriggerPrice string

	ClientOrderID string
	TimeInForce   string
	PostOnly      bool
	// SelfTrade is the venue's self-trade prevention flag ("A" allow,
	// "P" prevent).
	SelfTrade    string
	TargetAmount string
}

// WithdrawParams describes an outgoing funds transfer.
type WithdrawParams struct {
	Currency string
	Amount   string
	Address  string
	Tag      string
}

// Exchange is the canonical connector interface. Every call issues at most
// one network request and returns either canonical entities or a
// classified *Error; nothing is retried or cached at this layer.
type Exchange interface {
	FetchMarkets(ctx context.Context) ([]models.Market, error)
	FetchTime(ctx context.Context) (int64, error)
	FetchTicker(ctx context.Context, symbol string) (*models.Ticker, error)
	FetchOrderBook(ctx context.Context, symbol string) (*models.OrderBook, error)
	FetchTrades(ctx context.Context, symbol string, limit *int) ([]models.Trade, error)
	FetchOHLCV(ctx context.Context, symbol, timeframe string, since *int64, limit *int) ([]models.Candle, error)

	CreateOrder(ctx context.Context, params CreateOrderParams) (*models.Order, error)
	CancelOrder(ctx context.Context, id string) (*models.Order, error)
	CancelOrders(ctx context.Context, ids []string) ([]models.Order, error)
	FetchOrder(ctx context.Context, id string) (*models.Order, error)
	FetchOrders(ctx context.Context, q Query) ([]models.Order, error)
	FetchOpenOrders(ctx context.Context, q Query) ([]models.Order, error)
	// FetchClosedOrders may be emulated by filtering the full order list
	// when the venue has no dedicated endpoint; completeness is then
	// bounded by the venue's pagination limit.
	FetchClosedOrders(ctx context.Context, q Query) ([]models.Order, error)
	FetchMyTrades(ctx context.Context, q Query) ([]models.Trade, error)

	FetchBalance(ctx context.Context) (models.Balances, error)
	FetchDeposits(ctx context.Context, q Query) ([]models.Transaction, error)
	FetchWithdrawals(ctx context.Context, q Query) ([]models.Transaction, error)
	FetchDepositsWithdrawals(ctx context.Context, q Query) ([]models.Transaction, error)
	Withdraw(ctx context.Context, params WithdrawParams) (*models.Transaction, error)
}

// NewClientOrderID generates a collision-safe client order id for callers
// that do not supply their own.
func NewClientOrderID() string {
	return uuid.NewString()
}
