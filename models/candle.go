package models

// Candle is one OHLCV bar. The vendor wire format is the ordered array
// [isoTimestamp, open, high, low, close, volume].
type Candle struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}
