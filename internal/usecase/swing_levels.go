package usecase

import (
	"math"

	"github.com/vitos/perp_screener/internal/domain"
	"github.com/vitos/perp_screener/internal/indicator"
)

const (
	DefaultSwingLookback  = 90
	DefaultSwingATRWindow = 14
	MinSwingCandles       = 20

	supportATRBuffer = 0.25
	fibTakeProfit1   = 0.382
	fibTakeProfit2   = 0.618
)

// SwingCalculator derives an entry zone and take-profit ladder from the
// lowest low, highest high and ATR of a long-horizon lookback window.
type SwingCalculator struct {
	indicators domain.IndicatorProvider
	lookback   int
	atrWindow  int
	minCandles int
}

func NewSwingCalculator(indicators domain.IndicatorProvider, lookback, atrWindow, minCandles int) *SwingCalculator {
	if lookback <= 0 {
		lookback = DefaultSwingLookback
	}
	if atrWindow <= 0 {
		atrWindow = DefaultSwingATRWindow
	}
	if minCandles < MinSwingCandles {
		minCandles = MinSwingCandles
	}
	return &SwingCalculator{
		indicators: indicators,
		lookback:   lookback,
		atrWindow:  atrWindow,
		minCandles: minCandles,
	}
}

// Levels returns the swing levels and the latest close of the usable window.
func (c *SwingCalculator) Levels(candles []domain.Candle) (domain.SwingLevels, float64, error) {
	if len(candles) < c.minCandles {
		return domain.SwingLevels{}, 0, &domain.InsufficientDataError{Have: len(candles), Need: c.minCandles}
	}

	window := candles[len(candles)-min(c.lookback, len(candles)):]
	var highs, lows, closes []float64
	for _, candle := range window {
		if !usable(candle.High) || !usable(candle.Low) || !usable(candle.Close) {
			continue
		}
		highs = append(highs, candle.High)
		lows = append(lows, candle.Low)
		closes = append(closes, candle.Close)
	}
	if len(closes) == 0 {
		return domain.SwingLevels{}, 0, domain.ErrNoSwingLevels
	}

	lowestLow, highestHigh := lows[0], highs[0]
	for i := range closes {
		lowestLow = math.Min(lowestLow, lows[i])
		highestHigh = math.Max(highestHigh, highs[i])
	}

	atr := c.finalATR(highs, lows, closes)
	if math.IsNaN(atr) {
		return domain.SwingLevels{}, 0, domain.ErrNoSwingLevels
	}

	return NewSwingLevels(lowestLow, highestHigh, atr), closes[len(closes)-1], nil
}

// finalATR uses min(atrWindow, rows) periods. TA-Lib needs one row more than
// the period, so a window no longer than the period falls back to rows-1, and
// a single row to its own high-low range.
func (c *SwingCalculator) finalATR(highs, lows, closes []float64) float64 {
	n := len(closes)
	period := min(c.atrWindow, n)
	if period >= n {
		period = n - 1
	}
	if period < 1 {
		return highs[n-1] - lows[n-1]
	}
	return indicator.Last(c.indicators.ATR(highs, lows, closes, period))
}

func NewSwingLevels(lowestLow, highestHigh, atr float64) domain.SwingLevels {
	span := highestHigh - lowestLow
	floor := lowestLow - supportATRBuffer*atr
	return domain.SwingLevels{
		SupportFloor:    floor,
		EntryZoneBottom: lowestLow,
		EntryZoneTop:    lowestLow + atr,
		TakeProfit1:     lowestLow + fibTakeProfit1*span,
		TakeProfit2:     lowestLow + fibTakeProfit2*span,
		TakeProfit3:     highestHigh,
		Invalidation:    floor,
	}
}

// IsSwingLong reports whether price sits inside or below the entry zone.
// The swing workflow has no SHORT side.
func IsSwingLong(levels domain.SwingLevels, lastClose float64) bool {
	return lastClose <= levels.EntryZoneTop
}

// UpsideToFirstTarget ranks swing candidates: percent distance from close to TP1.
func UpsideToFirstTarget(levels domain.SwingLevels, lastClose float64) float64 {
	if lastClose <= 0 {
		return 0
	}
	return (levels.TakeProfit1 - lastClose) / lastClose * 100
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
