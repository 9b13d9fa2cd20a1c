package exchange

import (
	"fmt"

	"github.com/vitos/perp_screener/internal/domain"
)

var bybitIntervals = map[domain.Timeframe]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
	"1d": "D", "1w": "W", "1M": "M",
}

var okxBars = map[domain.Timeframe]string{
	"1m": "1m", "3m": "3m", "5m": "5m", "15m": "15m", "30m": "30m",
	"1h": "1H", "2h": "2H", "4h": "4H", "6h": "6H", "12h": "12H",
	"1d": "1D", "1w": "1W", "1M": "1M",
}

func lookupInterval(table map[domain.Timeframe]string, tf domain.Timeframe) (string, error) {
	v, ok := table[tf]
	if !ok {
		return "", fmt.Errorf("unsupported timeframe %q", tf)
	}
	return v, nil
}

// SupportedTimeframe reports whether both data sources can serve tf.
func SupportedTimeframe(tf domain.Timeframe) bool {
	_, bybit := bybitIntervals[tf]
	_, okx := okxBars[tf]
	return bybit && okx
}

func reverseCandles(candles []domain.Candle) {
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
}
