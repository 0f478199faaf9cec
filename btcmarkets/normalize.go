package btcmarkets

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"coinbridge/config"
	"coinbridge/internal/num"
	"coinbridge/models"
	"coinbridge/trading"
)

// quoteAUD is the venue's fixed reference currency. It drives the fee
// currency rule and the minimum price limit.
const quoteAUD = "AUD"

// defaultFees is the venue's standard schedule for non-AUD quotes.
var defaultFees = config.FeeSchedule{Maker: "-0.0005", Taker: "0.0020"}

// audFees applies to markets quoted in AUD unless overridden by config.
var audFees = config.FeeSchedule{Maker: "0.0085", Taker: "0.0085"}

// parse8601 converts a vendor ISO-8601 timestamp (microsecond precision)
// into epoch milliseconds. Absent or malformed input yields nil, never
// zero.
func parse8601(s *string) *int64 {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func iso8601(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02T15:04:05.000Z")
}

// normalizeSide maps the vendor side tokens onto the canonical vocabulary.
// Unrecognized tokens pass through unchanged so new vendor values do not
// break callers; already-canonical input is returned as-is.
func normalizeSide(side string) models.Side {
	switch side {
	case "Bid":
		return models.SideBuy
	case "Ask":
		return models.SideSell
	default:
		return models.Side(side)
	}
}

func vendorSide(side models.Side) string {
	if side == models.SideBuy {
		return "Bid"
	}
	return "Ask"
}

var orderStatuses = map[string]models.OrderStatus{
	"Accepted":            models.OrderStatusOpen,
	"Placed":              models.OrderStatusOpen,
	"Partially Matched":   models.OrderStatusOpen,
	"Fully Matched":       models.OrderStatusClosed,
	"Cancelled":           models.OrderStatusCanceled,
	"Partially Cancelled": models.OrderStatusCanceled,
	"Failed":              models.OrderStatusRejected,
}

func parseOrderStatus(status *string) models.OrderStatus {
	if status == nil {
		return ""
	}
	if s, ok := orderStatuses[*status]; ok {
		return s
	}
	return models.OrderStatus(*status)
}

var transactionStatuses = map[string]models.TransactionStatus{
	"Accepted":              models.TransactionStatusPending,
	"Pending Authorization": models.TransactionStatusPending,
	"Complete":              models.TransactionStatusOK,
	"Cancelled":             models.TransactionStatusCancelled,
	"Failed":                models.TransactionStatusFailed,
}

func parseTransactionStatus(status *string) models.TransactionStatus {
	if status == nil {
		return ""
	}
	if s, ok := transactionStatuses[*status]; ok {
		return s
	}
	return models.TransactionStatus(*status)
}

func parseTransactionType(typ *string) models.TransactionType {
	if typ == nil {
		return ""
	}
	switch strings.ToLower(*typ) {
	case "withdraw", "withdrawal":
		return models.TransactionWithdrawal
	case "deposit":
		return models.TransactionDeposit
	default:
		return models.TransactionType(strings.ToLower(*typ))
	}
}

// splitAddress separates a destination tag from the vendor's composite
// "address?dt=tag" form. The tag stays nil when the delimiter is absent.
func splitAddress(address string) (string, *string) {
	parts := strings.SplitN(address, "?dt=", 2)
	if len(parts) == 2 {
		return parts[0], &parts[1]
	}
	return address, nil
}

// symbolFromMarketID converts the vendor "BASE-QUOTE" market id into the
// canonical "BASE/QUOTE" symbol.
func symbolFromMarketID(marketID string) string {
	return strings.Replace(marketID, "-", "/", 1)
}

// resolveFees picks the fee schedule for a market by quote currency:
// config overrides first, then the venue's AUD schedule, then the
// default. Resolved once at market-list normalization time.
func resolveFees(quote string, overrides map[string]config.FeeSchedule) config.FeeSchedule {
	if fees, ok := overrides[quote]; ok {
		return fees
	}
	if quote == quoteAUD {
		return audFees
	}
	return defaultFees
}

func parseMarket(data marketData, info json.RawMessage, fees config.FeeSchedule) (models.Market, error) {
	amountTick, err := num.TickFromDecimals(data.AmountDecimals)
	if err != nil {
		return models.Market{}, fmt.Errorf("market %s: %w", data.MarketID, err)
	}
	priceTick, err := num.TickFromDecimals(data.PriceDecimals)
	if err != nil {
		return models.Market{}, fmt.Errorf("market %s: %w", data.MarketID, err)
	}
	base := strings.ToUpper(data.BaseAssetName)
	quote := strings.ToUpper(data.QuoteAssetName)
	m := models.Market{
		ID:         data.MarketID,
		Symbol:     base + "/" + quote,
		Base:       base,
		Quote:      quote,
		BaseID:     data.BaseAssetName,
		QuoteID:    data.QuoteAssetName,
		Active:     data.Status == "Online",
		Maker:      fees.Maker,
		Taker:      fees.Taker,
		AmountTick: amountTick,
		PriceTick:  priceTick,
		MinAmount:  data.MinOrderAmount,
		MaxAmount:  data.MaxOrderAmount,
		Info:       info,
	}
	if quote == quoteAUD {
		minPrice := priceTick
		m.MinPrice = &minPrice
	}
	return m, nil
}

func parseTicker(data tickerData, info json.RawMessage, market *models.Market) *models.Ticker {
	symbol := ""
	if market != nil {
		symbol = market.Symbol
	} else if data.MarketID != nil {
		symbol = symbolFromMarketID(*data.MarketID)
	}
	return &models.Ticker{
		Symbol:      symbol,
		Timestamp:   parse8601(data.Timestamp),
		Bid:         data.BestBid,
		Ask:         data.BestAsk,
		Last:        data.LastPrice,
		High:        data.High24h,
		Low:         data.Low24h,
		BaseVolume:  data.Volume24h,
		QuoteVolume: data.VolumeQte24h,
		Change:      data.Price24h,
		Percentage:  data.PricePct24h,
		Info:        info,
	}
}

// parseBookSide converts raw [price, size] pairs into canonical levels:
// duplicate price levels are merged by summing sizes and the side is
// sorted, ascending for asks and descending for bids.
func parseBookSide(raw [][2]string, descending bool) ([]models.BookLevel, error) {
	merged := make(map[string]string, len(raw))
	order := make([]string, 0, len(raw))
	for _, pair := range raw {
		price, size := pair[0], pair[1]
		if existing, ok := merged[price]; ok {
			sum, err := num.Add(existing, size)
			if err != nil {
				return nil, err
			}
			merged[price] = sum
			continue
		}
		merged[price] = size
		order = append(order, price)
	}
	var sortErr error
	sort.Slice(order, func(i, j int) bool {
		c, err := num.Cmp(order[i], order[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if descending {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	levels := make([]models.BookLevel, 0, len(order))
	for _, price := range order {
		levels = append(levels, models.BookLevel{Price: price, Size: merged[price]})
	}
	return levels, nil
}

func parseOrderBook(data orderBookData, info json.RawMessage, market *models.Market) (*models.OrderBook, error) {
	symbol := ""
	if market != nil {
		symbol = market.Symbol
	} else if data.MarketID != "" {
		symbol = symbolFromMarketID(data.MarketID)
	}
	asks, err := parseBookSide(data.Asks, false)
	if err != nil {
		return nil, fmt.Errorf("orderbook %s asks: %w", data.MarketID, err)
	}
	bids, err := parseBookSide(data.Bids, true)
	if err != nil {
		return nil, fmt.Errorf("orderbook %s bids: %w", data.MarketID, err)
	}
	book := &models.OrderBook{
		Symbol: symbol,
		Nonce:  data.SnapshotID,
		Asks:   asks,
		Bids:   bids,
		Info:   info,
	}
	if data.SnapshotID != 0 {
		// The snapshot id is a microsecond epoch. Integer division keeps
		// the millisecond timestamp exact for arbitrarily large ids.
		ts := data.SnapshotID / 1000
		book.Timestamp = &ts
	}
	return book, nil
}

// parseTrade handles both public and private executions. The fee is
// denominated in the quote currency when the quote is AUD, otherwise in
// the base currency; this venue rule determines the units a downstream
// accounting system assigns to collected fees.
func parseTrade(data tradeData, info json.RawMessage, market *models.Market) *models.Trade {
	symbol, base, quote := "", "", ""
	if market != nil {
		symbol, base, quote = market.Symbol, market.Base, market.Quote
	} else if data.MarketID != nil {
		symbol = symbolFromMarketID(*data.MarketID)
		if i := strings.Index(symbol, "/"); i >= 0 {
			base, quote = symbol[:i], symbol[i+1:]
		}
	}
	trade := &models.Trade{
		Timestamp: parse8601(data.Timestamp),
		Symbol:    symbol,
		OrderID:   data.OrderID,
		Info:      info,
	}
	if data.ID != nil {
		trade.ID = *data.ID
	}
	if data.Side != nil {
		trade.Side = normalizeSide(*data.Side)
	}
	if data.Price != nil {
		trade.Price = *data.Price
	}
	if data.Amount != nil {
		trade.Amount = *data.Amount
	}
	if data.LiquidityType != nil {
		role := strings.ToLower(*data.LiquidityType)
		trade.TakerOrMaker = &role
	}
	if data.Fee != nil {
		feeCurrency := base
		if quote == quoteAUD {
			feeCurrency = quote
		}
		trade.Fee = &models.Fee{Currency: feeCurrency, Cost: *data.Fee}
	}
	return trade
}

func parseOrder(data orderData, info json.RawMessage, market *models.Market) *models.Order {
	symbol := ""
	if market != nil {
		symbol = market.Symbol
	} else if data.MarketID != nil {
		symbol = symbolFromMarketID(*data.MarketID)
	}
	order := &models.Order{
		ClientOrderID: data.ClientOrderID,
		Timestamp:     parse8601(data.CreationTime),
		Symbol:        symbol,
		TimeInForce:   data.TimeInForce,
		PostOnly:      data.PostOnly,
		Price:         data.Price,
		TriggerPrice:  data.TriggerPrice,
		Amount:        data.Amount,
		Remaining:     data.OpenAmount,
		Status:        parseOrderStatus(data.Status),
		Info:          info,
	}
	if data.OrderID != nil {
		order.ID = *data.OrderID
	}
	if data.Side != nil {
		order.Side = normalizeSide(*data.Side)
	}
	if data.Type != nil {
		order.Type = models.OrderType(strings.ToLower(*data.Type))
	}
	return order
}

// parseTransaction normalizes a deposit/withdrawal record. The reported
// amount includes the fee, so the fee is subtracted before exposure.
func parseTransaction(data transactionData, info json.RawMessage) (*models.Transaction, error) {
	tx := &models.Transaction{
		Type:      parseTransactionType(data.Type),
		Timestamp: parse8601(data.CreationTime),
		Updated:   parse8601(data.LastUpdate),
		Status:    parseTransactionStatus(data.Status),
		Comment:   data.Description,
		Info:      info,
	}
	if data.ID != nil {
		tx.ID = *data.ID
	}
	if data.AssetName != nil {
		tx.Currency = strings.ToUpper(*data.AssetName)
	}
	if data.PaymentDetail != nil {
		tx.TxID = data.PaymentDetail.TxID
		if data.PaymentDetail.Address != nil {
			address, tag := splitAddress(*data.PaymentDetail.Address)
			tx.Address = &address
			tx.Tag = tag
		}
	}
	amount := data.Amount
	if data.Fee != nil {
		tx.Fee = &models.Fee{Currency: tx.Currency, Cost: *data.Fee}
		if amount != nil {
			net, err := num.Sub(*amount, *data.Fee)
			if err != nil {
				return nil, fmt.Errorf("transaction %s: %w", tx.ID, err)
			}
			amount = &net
		}
	}
	tx.Amount = amount
	return tx, nil
}

func parseBalance(data balanceData, info json.RawMessage) (models.Balance, error) {
	used, total := "0", "0"
	if data.Locked != nil {
		used = *data.Locked
	}
	if data.Balance != nil {
		total = *data.Balance
	}
	free, err := num.Sub(total, used)
	if err != nil {
		return models.Balance{}, fmt.Errorf("balance %s: %w", data.AssetName, err)
	}
	return models.Balance{
		Currency: strings.ToUpper(data.AssetName),
		Used:     used,
		Total:    total,
		Free:     free,
		Info:     info,
	}, nil
}

// parseCandle decodes the 6-element vendor array
// [isoTimestamp, open, high, low, close, volume].
func parseCandle(raw []string) (models.Candle, error) {
	if len(raw) < 6 {
		return models.Candle{}, fmt.Errorf("candle has %d elements, want 6", len(raw))
	}
	ts := parse8601(&raw[0])
	if ts == nil {
		return models.Candle{}, fmt.Errorf("candle has unparseable timestamp %q", raw[0])
	}
	return models.Candle{
		Timestamp: *ts,
		Open:      raw[1],
		High:      raw[2],
		Low:       raw[3],
		Close:     raw[4],
		Volume:    raw[5],
	}, nil
}

// orderTypeTokens maps canonical order types to vendor tokens. Unmapped
// types are transmitted verbatim.
var orderTypeTokens = map[models.OrderType]string{
	models.OrderTypeLimit:      "Limit",
	models.OrderTypeMarket:     "Market",
	models.OrderTypeStop:       "Stop",
	models.OrderTypeStopLimit:  "Stop Limit",
	models.OrderTypeTakeProfit: "Take Profit",
}

// buildCreateOrder turns canonical order parameters into the vendor
// request body. Required-field validation happens here, before any
// network attempt; all outgoing numerics are rounded to the market's tick
// size so no more precision than the venue accepts is transmitted.
func buildCreateOrder(p trading.CreateOrderParams, m models.Market) (map[string]any, error) {
	amount, err := num.RoundToTick(p.Amount, m.AmountTick, num.RoundDown)
	if err != nil {
		return nil, trading.NewError(trading.ErrBadRequest, "", fmt.Sprintf("invalid amount: %v", err))
	}
	lowercaseType := models.OrderType(strings.ToLower(string(p.Type)))
	typeToken, ok := orderTypeTokens[lowercaseType]
	if !ok {
		typeToken = string(p.Type)
	}
	body := map[string]any{
		"marketId": m.ID,
		"amount":   amount,
		"side":     vendorSide(p.Side),
		"type":     typeToken,
	}

	priceRequired := lowercaseType == models.OrderTypeLimit || lowercaseType == models.OrderTypeStopLimit
	triggerPriceRequired := lowercaseType == models.OrderTypeStop ||
		lowercaseType == models.OrderTypeStopLimit ||
		lowercaseType == models.OrderTypeTakeProfit

	if priceRequired {
		if p.Price == "" {
			return nil, trading.NewError(trading.ErrArgumentsRequired, "",
				fmt.Sprintf("createOrder requires a price argument for a %s order", p.Type))
		}
		price, err := num.RoundToTick(p.Price, m.PriceTick, num.RoundNearest)
		if err != nil {
			return nil, trading.NewError(trading.ErrBadRequest, "", fmt.Sprintf("invalid price: %v", err))
		}
		body["price"] = price
	}
	if triggerPriceRequired {
		if p.TriggerPrice == "" {
			return nil, trading.NewError(trading.ErrArgumentsRequired, "",
				fmt.Sprintf("createOrder requires a triggerPrice parameter for a %s order", p.Type))
		}
		triggerPrice, err := num.RoundToTick(p.TriggerPrice, m.PriceTick, num.RoundNearest)
		if err != nil {
			return nil, trading.NewError(trading.ErrBadRequest, "", fmt.Sprintf("invalid trigger price: %v", err))
		}
		body["triggerPrice"] = triggerPrice
	}
	if p.TargetAmount != "" {
		targetAmount, err := num.RoundToTick(p.TargetAmount, m.AmountTick, num.RoundDown)
		if err != nil {
			return nil, trading.NewError(trading.ErrBadRequest, "", fmt.Sprintf("invalid target amount: %v", err))
		}
		body["targetAmount"] = targetAmount
	}
	if p.ClientOrderID != "" {
		body["clientOrderId"] = p.ClientOrderID
	}
	if p.TimeInForce != "" {
		body["timeInForce"] = p.TimeInForce
	}
	if p.PostOnly {
		body["postOnly"] = true
	}
	if p.SelfTrade != "" {
		body["selfTrade"] = p.SelfTrade
	}
	return body, nil
}

// buildWithdraw turns canonical withdrawal parameters into the vendor
// request body. A destination tag is re-joined into the venue's composite
// address form.
func buildWithdraw(p trading.WithdrawParams) map[string]any {
	body := map[string]any{
		"currency_id": p.Currency,
		"amount":      p.Amount,
	}
	if p.Currency != quoteAUD {
		body["toAddress"] = p.Address
	}
	if p.Tag != "" {
		body["toAddress"] = p.Address + "?dt=" + p.Tag
	}
	return body
}
