package usecase

import (
	"math"

	"github.com/vitos/perp_screener/internal/domain"
	"github.com/vitos/perp_screener/internal/indicator"
)

// MinScoringCandles is the floor below which no timeframe is ever scored.
const MinScoringCandles = 20

const expansionBodyMultiplier = 1.2

// TimeframeScorer turns one timeframe's candles into LONG/SHORT points.
// MinCandles is chosen per workflow (50 for the screen, 20 for swing).
type TimeframeScorer struct {
	indicators domain.IndicatorProvider
	minCandles int
}

func NewTimeframeScorer(indicators domain.IndicatorProvider, minCandles int) *TimeframeScorer {
	if minCandles < MinScoringCandles {
		minCandles = MinScoringCandles
	}
	return &TimeframeScorer{indicators: indicators, minCandles: minCandles}
}

func (s *TimeframeScorer) MinCandles() int {
	return s.minCandles
}

// Score evaluates the last candle. LONG and SHORT rules are deliberately not
// mirror images: LONG uses EMA5/EMA20 and RSI>45, SHORT uses EMA50/EMA200 and RSI<55.
func (s *TimeframeScorer) Score(candles []domain.Candle) (domain.TimeframeScore, error) {
	if len(candles) < s.minCandles {
		return domain.TimeframeScore{}, &domain.InsufficientDataError{Have: len(candles), Need: s.minCandles}
	}

	n := len(candles)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	var bodySum float64
	for i, c := range candles {
		opens[i], highs[i], lows[i], closes[i] = c.Open, c.High, c.Low, c.Close
		bodySum += math.Abs(c.Close - c.Open)
	}

	ema5 := indicator.Last(s.indicators.EMA(closes, 5))
	ema20 := indicator.Last(s.indicators.EMA(closes, 20))
	ema50 := indicator.Last(s.indicators.EMA(closes, 50))
	ema200 := indicator.Last(s.indicators.EMA(closes, 200))
	rsi := indicator.Last(s.indicators.RSI(closes, 14))
	k, d := s.indicators.Stochastic(highs, lows, closes, 5, 3)
	stochK, stochD := indicator.Last(k), indicator.Last(d)

	last := candles[n-1]
	avgBody := bodySum / float64(n)
	body := math.Abs(last.Close - last.Open)
	expansion := body > expansionBodyMultiplier*avgBody

	var score domain.TimeframeScore
	if ema5 > ema20 {
		score.Long++
	}
	if rsi > 45 {
		score.Long++
	}
	if stochK > stochD {
		score.Long++
	}
	if last.Close > last.Open && expansion {
		score.Long++
	}

	if ema50 < ema200 {
		score.Short++
	}
	if rsi < 55 {
		score.Short++
	}
	if stochK < stochD {
		score.Short++
	}
	if last.Close < last.Open && expansion {
		score.Short++
	}

	return score, nil
}
