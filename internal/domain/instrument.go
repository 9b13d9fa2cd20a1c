package domain

// InstrumentTrading is the normalized status of a listed, tradable contract.
const InstrumentTrading = "trading"

// Instrument is a perpetual contract as listed by the exchange.
type Instrument struct {
	Symbol     string `json:"symbol"`
	BaseCoin   string `json:"base_coin"`
	QuoteCoin  string `json:"quote_coin"`
	Status     string `json:"status"`
	LaunchTime int64  `json:"launch_time"`
}

// Timeframe is a candle aggregation period label such as "5m", "1h" or "1d".
type Timeframe string

type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
