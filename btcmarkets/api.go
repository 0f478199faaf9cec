package btcmarkets

// Wire-level payload shapes of the BTC Markets REST v3 API. Optional
// fields are pointers so an absent field stays distinguishable from an
// empty value and is never mistaken for real data.

type marketData struct {
	MarketID       string  `json:"marketId"`
	BaseAssetName  string  `json:"baseAssetName"`
	QuoteAssetName string  `json:"quoteAssetName"`
	MinOrderAmount *string `json:"minOrderAmount"`
	MaxOrderAmount *string `json:"maxOrderAmount"`
	AmountDecimals string  `json:"amountDecimals"`
	PriceDecimals  string  `json:"priceDecimals"`
	Status         string  `json:"status"`
}

type tickerData struct {
	MarketID     *string `json:"marketId"`
	BestBid      *string `json:"bestBid"`
	BestAsk      *string `json:"bestAsk"`
	LastPrice    *string `json:"lastPrice"`
	Volume24h    *string `json:"volume24h"`
	VolumeQte24h *string `json:"volumeQte24h"`
	Price24h     *string `json:"price24h"`
	PricePct24h  *string `json:"pricePct24h"`
	Low24h       *string `json:"low24h"`
	High24h      *string `json:"high24h"`
	Timestamp    *string `json:"timestamp"`
}

// orderBookData carries the depth snapshot. snapshotId is a microsecond
// epoch that doubles as the book nonce.
type orderBookData struct {
	MarketID   string      `json:"marketId"`
	SnapshotID int64       `json:"snapshotId"`
	Asks       [][2]string `json:"asks"`
	Bids       [][2]string `json:"bids"`
}

type tradeData struct {
	ID            *string `json:"id"`
	MarketID      *string `json:"marketId"`
	Timestamp     *string `json:"timestamp"`
	Price         *string `json:"price"`
	Amount        *string `json:"amount"`
	Side          *string `json:"side"`
	Fee           *string `json:"fee"`
	OrderID       *string `json:"orderId"`
	LiquidityType *string `json:"liquidityType"`
	ClientOrderID *string `json:"clientOrderId"`
}

type orderData struct {
	OrderID       *string `json:"orderId"`
	MarketID      *string `json:"marketId"`
	Side          *string `json:"side"`
	Type          *string `json:"type"`
	CreationTime  *string `json:"creationTime"`
	Price         *string `json:"price"`
	Amount        *string `json:"amount"`
	OpenAmount    *string `json:"openAmount"`
	Status        *string `json:"status"`
	ClientOrderID *string `json:"clientOrderId"`
	TimeInForce   *string `json:"timeInForce"`
	PostOnly      *bool   `json:"postOnly"`
	TriggerPrice  *string `json:"triggerPrice"`
}

type paymentDetailData struct {
	TxID    *string `json:"txId"`
	Address *string `json:"address"`
}

type transactionData struct {
	ID            *string            `json:"id"`
	AssetName     *string            `json:"assetName"`
	Amount        *string            `json:"amount"`
	Type          *string            `json:"type"`
	CreationTime  *string            `json:"creationTime"`
	Status        *string            `json:"status"`
	Description   *string            `json:"description"`
	Fee           *string            `json:"fee"`
	LastUpdate    *string            `json:"lastUpdate"`
	PaymentDetail *paymentDetailData `json:"paymentDetail"`
}

type balanceData struct {
	AssetName string  `json:"assetName"`
	Balance   *string `json:"balance"`
	Available *string `json:"available"`
	Locked    *string `json:"locked"`
}

type timeData struct {
	Timestamp string `json:"timestamp"`
}

// errorData is the vendor error envelope: {"code": ..., "message": ...}.
type errorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
