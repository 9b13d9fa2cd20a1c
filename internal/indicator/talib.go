// Package indicator adapts go-talib to domain.IndicatorProvider.
//
// TA-Lib fills the rows before its lookback with zeros and indexes past the
// end of short inputs, so every call is length-checked and the leading rows
// are masked with NaN. A NaN compares false against everything, which is
// how an undefined indicator drops out of the scoring rules.
package indicator

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

type TALib struct{}

func New() *TALib {
	return &TALib{}
}

func (TALib) EMA(series []float64, length int) []float64 {
	if length < 1 || len(series) < length {
		return nanSeries(len(series))
	}
	return maskLeading(talib.Ema(series, length), length-1)
}

func (TALib) RSI(series []float64, length int) []float64 {
	if length < 2 || len(series) <= length {
		return nanSeries(len(series))
	}
	return maskLeading(talib.Rsi(series, length), length)
}

// Stochastic returns the fast %K over kLength rows and %D as the simple
// moving average of %K over dSmoothing rows.
func (TALib) Stochastic(high, low, close []float64, kLength, dSmoothing int) ([]float64, []float64) {
	n := minLen(high, low, close)
	lookback := (kLength - 1) + (dSmoothing - 1)
	if kLength < 1 || dSmoothing < 1 || n <= lookback {
		return nanSeries(n), nanSeries(n)
	}
	k, d := talib.StochF(high[:n], low[:n], close[:n], kLength, dSmoothing, talib.SMA)
	return maskLeading(k, lookback), maskLeading(d, lookback)
}

func (TALib) ATR(high, low, close []float64, window int) []float64 {
	n := minLen(high, low, close)
	if window < 1 || n <= window {
		return nanSeries(n)
	}
	return maskLeading(talib.Atr(high[:n], low[:n], close[:n], window), window)
}

// Last returns the final value of a series, or NaN when it is empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return math.NaN()
	}
	return series[len(series)-1]
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func maskLeading(series []float64, lookback int) []float64 {
	for i := 0; i < lookback && i < len(series); i++ {
		series[i] = math.NaN()
	}
	return series
}

func minLen(a, b, c []float64) int {
	return min(len(a), len(b), len(c))
}
