package btcmarkets

import (
	"encoding/json"
	"errors"
	"testing"

	"coinbridge/config"
	"coinbridge/models"
	"coinbridge/trading"
)

func strPtr(s string) *string { return &s }

func TestParse8601(t *testing.T) {
	cases := []struct {
		name string
		in   *string
		want *int64
	}{
		{"microsecond precision", strPtr("2020-08-09T18:28:23.280000Z"), int64Ptr(1596997703280)},
		{"whole second", strPtr("2020-08-09T19:08:23.280000Z"), int64Ptr(1597000103280)},
		{"nil", nil, nil},
		{"empty", strPtr(""), nil},
		{"garbage", strPtr("not-a-timestamp"), nil},
	}
	for _, tc := range cases {
		got := parse8601(tc.in)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("%s: parse8601 = %d, want nil", tc.name, *got)
		case tc.want != nil && got == nil:
			t.Errorf("%s: parse8601 = nil, want %d", tc.name, *tc.want)
		case tc.want != nil && *got != *tc.want:
			t.Errorf("%s: parse8601 = %d, want %d", tc.name, *got, *tc.want)
		}
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestNormalizeSide(t *testing.T) {
	if got := normalizeSide("Bid"); got != models.SideBuy {
		t.Errorf("normalizeSide(Bid) = %q, want buy", got)
	}
	if got := normalizeSide("Ask"); got != models.SideSell {
		t.Errorf("normalizeSide(Ask) = %q, want sell", got)
	}
	// Already-canonical input is a fixed point.
	if got := normalizeSide(string(normalizeSide("Bid"))); got != models.SideBuy {
		t.Errorf("normalizeSide applied twice = %q, want buy", got)
	}
	if got := normalizeSide("Cross"); got != models.Side("Cross") {
		t.Errorf("unknown side did not pass through: %q", got)
	}
}

func TestOrderStatusMapping(t *testing.T) {
	cases := map[string]models.OrderStatus{
		"Accepted":            models.OrderStatusOpen,
		"Placed":              models.OrderStatusOpen,
		"Partially Matched":   models.OrderStatusOpen,
		"Fully Matched":       models.OrderStatusClosed,
		"Cancelled":           models.OrderStatusCanceled,
		"Partially Cancelled": models.OrderStatusCanceled,
		"Failed":              models.OrderStatusRejected,
		"Brand New Status":    models.OrderStatus("Brand New Status"),
	}
	for vendor, want := range cases {
		if got := parseOrderStatus(&vendor); got != want {
			t.Errorf("parseOrderStatus(%q) = %q, want %q", vendor, got, want)
		}
	}
	if got := parseOrderStatus(nil); got != "" {
		t.Errorf("parseOrderStatus(nil) = %q, want empty", got)
	}
}

func TestTransactionStatusMapping(t *testing.T) {
	cases := map[string]models.TransactionStatus{
		"Accepted":              models.TransactionStatusPending,
		"Pending Authorization": models.TransactionStatusPending,
		"Complete":              models.TransactionStatusOK,
		"Cancelled":             models.TransactionStatusCancelled,
		"Failed":                models.TransactionStatusFailed,
		"Quarantined":           models.TransactionStatus("Quarantined"),
	}
	for vendor, want := range cases {
		if got := parseTransactionStatus(&vendor); got != want {
			t.Errorf("parseTransactionStatus(%q) = %q, want %q", vendor, got, want)
		}
	}
}

func TestParseTransactionType(t *testing.T) {
	cases := map[string]models.TransactionType{
		"Withdraw":   models.TransactionWithdrawal,
		"Withdrawal": models.TransactionWithdrawal,
		"Deposit":    models.TransactionDeposit,
		"Transfer":   models.TransactionType("transfer"),
	}
	for vendor, want := range cases {
		if got := parseTransactionType(&vendor); got != want {
			t.Errorf("parseTransactionType(%q) = %q, want %q", vendor, got, want)
		}
	}
}

func TestSplitAddress(t *testing.T) {
	address, tag := splitAddress("1B9DsnSYQ54VMqFHVJYdGoLMCYzFwrQzsj?dt=873874545")
	if address != "1B9DsnSYQ54VMqFHVJYdGoLMCYzFwrQzsj" {
		t.Errorf("address = %q", address)
	}
	if tag == nil || *tag != "873874545" {
		t.Errorf("tag = %v, want 873874545", tag)
	}

	address, tag = splitAddress("1B9DsnSYQ54VMqFHVJYdGoLMCYzFwrQzsj")
	if address != "1B9DsnSYQ54VMqFHVJYdGoLMCYzFwrQzsj" || tag != nil {
		t.Errorf("plain address mangled: %q tag=%v", address, tag)
	}
}

func TestSymbolFromMarketID(t *testing.T) {
	if got := symbolFromMarketID("BAT-AUD"); got != "BAT/AUD" {
		t.Errorf("symbolFromMarketID = %q, want BAT/AUD", got)
	}
}

func TestResolveFees(t *testing.T) {
	overrides := map[string]config.FeeSchedule{
		"AUD": {Maker: "0.0010", Taker: "0.0012"},
	}
	if got := resolveFees("AUD", overrides); got.Maker != "0.0010" || got.Taker != "0.0012" {
		t.Errorf("override not applied: %+v", got)
	}
	if got := resolveFees("AUD", nil); got != audFees {
		t.Errorf("AUD default = %+v, want %+v", got, audFees)
	}
	if got := resolveFees("BTC", nil); got != defaultFees {
		t.Errorf("non-AUD default = %+v, want %+v", got, defaultFees)
	}
}

func audMarketData() (marketData, json.RawMessage) {
	raw := json.RawMessage(`{"marketId":"BAT-AUD","baseAssetName":"BAT","quoteAssetName":"AUD","minOrderAmount":"1","maxOrderAmount":"1000000","amountDecimals":"8","priceDecimals":"4","status":"Online"}`)
	var md marketData
	_ = json.Unmarshal(raw, &md)
	return md, raw
}

func TestParseMarket(t *testing.T) {
	md, raw := audMarketData()
	m, err := parseMarket(md, raw, resolveFees("AUD", nil))
	if err != nil {
		t.Fatalf("parseMarket failed: %v", err)
	}
	if m.Symbol != "BAT/AUD" || m.Base != "BAT" || m.Quote != "AUD" {
		t.Errorf("symbol split wrong: %s %s/%s", m.Symbol, m.Base, m.Quote)
	}
	if !m.Active {
		t.Error("Online market not active")
	}
	if m.AmountTick != "0.00000001" {
		t.Errorf("AmountTick = %q", m.AmountTick)
	}
	if m.PriceTick != "0.0001" {
		t.Errorf("PriceTick = %q", m.PriceTick)
	}
	if m.Maker != "0.0085" || m.Taker != "0.0085" {
		t.Errorf("AUD fees = %s/%s", m.Maker, m.Taker)
	}
	if m.MinPrice == nil || *m.MinPrice != "0.0001" {
		t.Errorf("AUD market MinPrice = %v, want price tick", m.MinPrice)
	}
	if m.MinAmount == nil || *m.MinAmount != "1" {
		t.Errorf("MinAmount = %v", m.MinAmount)
	}
}

func TestParseMarketNonAUD(t *testing.T) {
	raw := json.RawMessage(`{"marketId":"ETH-BTC","baseAssetName":"ETH","quoteAssetName":"BTC","amountDecimals":"8","priceDecimals":"8","status":"Offline"}`)
	var md marketData
	if err := json.Unmarshal(raw, &md); err != nil {
		t.Fatal(err)
	}
	m, err := parseMarket(md, raw, resolveFees("BTC", nil))
	if err != nil {
		t.Fatalf("parseMarket failed: %v", err)
	}
	if m.Active {
		t.Error("Offline market reported active")
	}
	if m.Maker != "-0.0005" || m.Taker != "0.0020" {
		t.Errorf("default fees = %s/%s", m.Maker, m.Taker)
	}
	if m.MinPrice != nil {
		t.Errorf("non-AUD market has MinPrice %q", *m.MinPrice)
	}
	if m.MinAmount != nil {
		t.Errorf("absent minOrderAmount became %q", *m.MinAmount)
	}
}

func TestParseTickerEndToEnd(t *testing.T) {
	raw := json.RawMessage(`{"marketId":"BAT-AUD","bestBid":"0.3751","bestAsk":"0.377","lastPrice":"0.3769","volume24h":"56192.97613335","high24h":"0.3799","timestamp":"2020-08-09T18:28:23.280000Z"}`)
	var td tickerData
	if err := json.Unmarshal(raw, &td); err != nil {
		t.Fatal(err)
	}
	ticker := parseTicker(td, raw, nil)
	if ticker.Symbol != "BAT/AUD" {
		t.Errorf("Symbol = %q, want BAT/AUD", ticker.Symbol)
	}
	if ticker.Bid == nil || *ticker.Bid != "0.3751" {
		t.Errorf("Bid = %v", ticker.Bid)
	}
	if ticker.Ask == nil || *ticker.Ask != "0.377" {
		t.Errorf("Ask = %v", ticker.Ask)
	}
	if ticker.Last == nil || *ticker.Last != "0.3769" {
		t.Errorf("Last = %v", ticker.Last)
	}
	if ticker.BaseVolume == nil || *ticker.BaseVolume != "56192.97613335" {
		t.Errorf("BaseVolume = %v", ticker.BaseVolume)
	}
	if ticker.Timestamp == nil || *ticker.Timestamp != 1596997703280 {
		t.Errorf("Timestamp = %v, want 1596997703280", ticker.Timestamp)
	}
	// Fields the vendor omitted stay nil.
	if ticker.Low != nil || ticker.QuoteVolume != nil {
		t.Error("absent vendor fields were coerced into values")
	}
}

func TestParseOrderBook(t *testing.T) {
	raw := json.RawMessage(`{"marketId":"BAT-AUD","snapshotId":1599936148941000,"asks":[["0.40","5"],["0.38","1"],["0.38","2"]],"bids":[["0.35","3"],["0.37","4"]]}`)
	var ob orderBookData
	if err := json.Unmarshal(raw, &ob); err != nil {
		t.Fatal(err)
	}
	book, err := parseOrderBook(ob, raw, nil)
	if err != nil {
		t.Fatalf("parseOrderBook failed: %v", err)
	}
	if book.Symbol != "BAT/AUD" {
		t.Errorf("Symbol = %q", book.Symbol)
	}
	if book.Nonce != 1599936148941000 {
		t.Errorf("Nonce = %d, want snapshot id preserved", book.Nonce)
	}
	if book.Timestamp == nil || *book.Timestamp != 1599936148941 {
		t.Errorf("Timestamp = %v, want 1599936148941", book.Timestamp)
	}
	// Duplicate ask price levels merge and the side sorts ascending.
	if len(book.Asks) != 2 {
		t.Fatalf("len(Asks) = %d, want 2", len(book.Asks))
	}
	if book.Asks[0].Price != "0.38" || book.Asks[0].Size != "3" {
		t.Errorf("best ask = %+v, want merged 0.38/3", book.Asks[0])
	}
	if book.Asks[1].Price != "0.40" {
		t.Errorf("asks not ascending: %+v", book.Asks)
	}
	// Bids sort descending.
	if book.Bids[0].Price != "0.37" || book.Bids[1].Price != "0.35" {
		t.Errorf("bids not descending: %+v", book.Bids)
	}
}

func TestParseTradeFeeCurrency(t *testing.T) {
	raw := json.RawMessage(`{"id":"36014819","marketId":"XRP-AUD","timestamp":"2019-06-25T16:01:02.977000Z","price":"0.67","amount":"1.50","side":"Ask","fee":"0.001"}`)
	var td tradeData
	if err := json.Unmarshal(raw, &td); err != nil {
		t.Fatal(err)
	}
	trade := parseTrade(td, raw, nil)
	if trade.Symbol != "XRP/AUD" {
		t.Errorf("Symbol = %q", trade.Symbol)
	}
	if trade.Side != models.SideSell {
		t.Errorf("Side = %q, want sell", trade.Side)
	}
	if trade.Fee == nil || trade.Fee.Currency != "AUD" {
		t.Errorf("AUD-quoted trade fee = %+v, want AUD denomination", trade.Fee)
	}

	raw = json.RawMessage(`{"id":"36014820","marketId":"ETH-BTC","price":"0.05","amount":"2","side":"Bid","fee":"0.0001","liquidityType":"Taker"}`)
	if err := json.Unmarshal(raw, &td); err != nil {
		t.Fatal(err)
	}
	trade = parseTrade(td, raw, nil)
	if trade.Fee == nil || trade.Fee.Currency != "ETH" {
		t.Errorf("non-AUD trade fee = %+v, want base denomination", trade.Fee)
	}
	if trade.TakerOrMaker == nil || *trade.TakerOrMaker != "taker" {
		t.Errorf("TakerOrMaker = %v, want taker", trade.TakerOrMaker)
	}
}

func TestParseOrder(t *testing.T) {
	raw := json.RawMessage(`{"orderId":"7524","marketId":"BTC-AUD","side":"Bid","type":"Limit","creationTime":"2019-08-30T11:08:21.956000Z","price":"100.12","amount":"1.034","openAmount":"1.034","status":"Accepted","clientOrderId":"c-1"}`)
	var od orderData
	if err := json.Unmarshal(raw, &od); err != nil {
		t.Fatal(err)
	}
	order := parseOrder(od, raw, nil)
	if order.ID != "7524" {
		t.Errorf("ID = %q", order.ID)
	}
	if order.Symbol != "BTC/AUD" {
		t.Errorf("Symbol = %q", order.Symbol)
	}
	if order.Side != models.SideBuy {
		t.Errorf("Side = %q, want buy", order.Side)
	}
	if order.Type != models.OrderTypeLimit {
		t.Errorf("Type = %q, want limit", order.Type)
	}
	if order.Status != models.OrderStatusOpen {
		t.Errorf("Status = %q, want open", order.Status)
	}
	if order.Remaining == nil || *order.Remaining != "1.034" {
		t.Errorf("Remaining = %v", order.Remaining)
	}
	if order.ClientOrderID == nil || *order.ClientOrderID != "c-1" {
		t.Errorf("ClientOrderID = %v", order.ClientOrderID)
	}
	if order.Timestamp == nil {
		t.Error("Timestamp missing")
	}
}

func TestParseTransactionFeeAdjustment(t *testing.T) {
	cases := []struct {
		amount, fee, want string
	}{
		{"500", "0", "500"},
		{"0.42570126", "0.0005", "0.42520126"},
	}
	for _, tc := range cases {
		raw := json.RawMessage(`{"id":"2357223","assetName":"XRP","amount":"` + tc.amount + `","type":"Deposit","creationTime":"2019-06-25T01:36:53.208000Z","status":"Complete","fee":"` + tc.fee + `","paymentDetail":{"txId":"abc","address":"rwAddr?dt=873874545"}}`)
		var td transactionData
		if err := json.Unmarshal(raw, &td); err != nil {
			t.Fatal(err)
		}
		tx, err := parseTransaction(td, raw)
		if err != nil {
			t.Fatalf("parseTransaction failed: %v", err)
		}
		if tx.Amount == nil || *tx.Amount != tc.want {
			t.Errorf("amount %s fee %s: Amount = %v, want %s", tc.amount, tc.fee, tx.Amount, tc.want)
		}
		if tx.Type != models.TransactionDeposit {
			t.Errorf("Type = %q", tx.Type)
		}
		if tx.Status != models.TransactionStatusOK {
			t.Errorf("Status = %q, want ok", tx.Status)
		}
		if tx.Address == nil || *tx.Address != "rwAddr" {
			t.Errorf("Address = %v", tx.Address)
		}
		if tx.Tag == nil || *tx.Tag != "873874545" {
			t.Errorf("Tag = %v", tx.Tag)
		}
		if tx.Fee == nil || tx.Fee.Currency != "XRP" || tx.Fee.Cost != tc.fee {
			t.Errorf("Fee = %+v", tx.Fee)
		}
	}
}

func TestParseBalance(t *testing.T) {
	raw := json.RawMessage(`{"assetName":"btc","balance":"10","locked":"2.5","available":"7.5"}`)
	var bd balanceData
	if err := json.Unmarshal(raw, &bd); err != nil {
		t.Fatal(err)
	}
	b, err := parseBalance(bd, raw)
	if err != nil {
		t.Fatalf("parseBalance failed: %v", err)
	}
	if b.Currency != "BTC" {
		t.Errorf("Currency = %q", b.Currency)
	}
	if b.Total != "10" || b.Used != "2.5" || b.Free != "7.5" {
		t.Errorf("balance = total %s used %s free %s", b.Total, b.Used, b.Free)
	}

	empty, err := parseBalance(balanceData{AssetName: "aud"}, nil)
	if err != nil {
		t.Fatalf("parseBalance on empty data failed: %v", err)
	}
	if empty.Total != "0" || empty.Used != "0" || empty.Free != "0" {
		t.Errorf("empty balance = %+v, want zeros", empty)
	}
}

func TestParseCandle(t *testing.T) {
	candle, err := parseCandle([]string{"2020-09-12T18:30:00.000000Z", "14409.45", "14409.45", "14403.91", "14403.91", "0.01571701"})
	if err != nil {
		t.Fatalf("parseCandle failed: %v", err)
	}
	if candle.Timestamp != 1599935400000 {
		t.Errorf("Timestamp = %d, want 1599935400000", candle.Timestamp)
	}
	if candle.Open != "14409.45" || candle.Close != "14403.91" || candle.Volume != "0.01571701" {
		t.Errorf("candle = %+v", candle)
	}

	if _, err := parseCandle([]string{"2020-09-12T18:30:00.000000Z", "1", "2"}); err == nil {
		t.Error("short candle accepted")
	}
	if _, err := parseCandle([]string{"bad", "1", "2", "3", "4", "5"}); err == nil {
		t.Error("unparseable candle timestamp accepted")
	}
}

func TestBuildCreateOrderValidation(t *testing.T) {
	md, raw := audMarketData()
	m, err := parseMarket(md, raw, resolveFees("AUD", nil))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		params trading.CreateOrderParams
	}{
		{"limit without price", trading.CreateOrderParams{Symbol: "BAT/AUD", Type: models.OrderTypeLimit, Side: models.SideBuy, Amount: "10"}},
		{"stop limit without price", trading.CreateOrderParams{Symbol: "BAT/AUD", Type: models.OrderTypeStopLimit, Side: models.SideBuy, Amount: "10", TriggerPrice: "0.40"}},
		{"stop without trigger", trading.CreateOrderParams{Symbol: "BAT/AUD", Type: models.OrderTypeStop, Side: models.SideSell, Amount: "10"}},
		{"take profit without trigger", trading.CreateOrderParams{Symbol: "BAT/AUD", Type: models.OrderTypeTakeProfit, Side: models.SideSell, Amount: "10"}},
	}
	for _, tc := range cases {
		if _, err := buildCreateOrder(tc.params, m); !errors.Is(err, trading.ErrArgumentsRequired) {
			t.Errorf("%s: buildCreateOrder = %v, want ErrArgumentsRequired", tc.name, err)
		}
	}
}

func TestBuildCreateOrderBody(t *testing.T) {
	md, raw := audMarketData()
	m, err := parseMarket(md, raw, resolveFees("AUD", nil))
	if err != nil {
		t.Fatal(err)
	}

	body, err := buildCreateOrder(trading.CreateOrderParams{
		Symbol:        "BAT/AUD",
		Type:          models.OrderTypeLimit,
		Side:          models.SideBuy,
		Amount:        "10.123456789123",
		Price:         "0.37695",
		ClientOrderID: "c-42",
		TimeInForce:   "GTC",
		PostOnly:      true,
	}, m)
	if err != nil {
		t.Fatalf("buildCreateOrder failed: %v", err)
	}
	if body["marketId"] != "BAT-AUD" || body["side"] != "Bid" || body["type"] != "Limit" {
		t.Errorf("routing fields wrong: %+v", body)
	}
	// Amount truncates to the amount tick, price rounds to the nearest
	// price tick.
	if body["amount"] != "10.12345678" {
		t.Errorf("amount = %v, want 10.12345678", body["amount"])
	}
	if body["price"] != "0.377" {
		t.Errorf("price = %v, want 0.377", body["price"])
	}
	if body["clientOrderId"] != "c-42" || body["timeInForce"] != "GTC" || body["postOnly"] != true {
		t.Errorf("optional fields wrong: %+v", body)
	}

	market, err := buildCreateOrder(trading.CreateOrderParams{
		Symbol: "BAT/AUD",
		Type:   models.OrderTypeMarket,
		Side:   models.SideSell,
		Amount: "5",
	}, m)
	if err != nil {
		t.Fatalf("market order failed: %v", err)
	}
	if _, ok := market["price"]; ok {
		t.Error("market order carries a price")
	}
	if market["side"] != "Ask" || market["type"] != "Market" {
		t.Errorf("market order fields wrong: %+v", market)
	}

	stopLimit, err := buildCreateOrder(trading.CreateOrderParams{
		Symbol:       "BAT/AUD",
		Type:         models.OrderTypeStopLimit,
		Side:         models.SideSell,
		Amount:       "5",
		Price:        "0.35",
		TriggerPrice: "0.36",
	}, m)
	if err != nil {
		t.Fatalf("stop limit order failed: %v", err)
	}
	if stopLimit["type"] != "Stop Limit" {
		t.Errorf("type token = %v, want Stop Limit", stopLimit["type"])
	}
	if stopLimit["triggerPrice"] != "0.36" {
		t.Errorf("triggerPrice = %v", stopLimit["triggerPrice"])
	}
}

func TestBuildWithdraw(t *testing.T) {
	body := buildWithdraw(trading.WithdrawParams{
		Currency: "XRP",
		Amount:   "25",
		Address:  "rwAddr",
		Tag:      "873874545",
	})
	if body["currency_id"] != "XRP" || body["amount"] != "25" {
		t.Errorf("withdraw body = %+v", body)
	}
	if body["toAddress"] != "rwAddr?dt=873874545" {
		t.Errorf("toAddress = %v, want composite address", body["toAddress"])
	}

	aud := buildWithdraw(trading.WithdrawParams{Currency: "AUD", Amount: "100"})
	if _, ok := aud["toAddress"]; ok {
		t.Error("fiat withdrawal carries a toAddress")
	}
}
