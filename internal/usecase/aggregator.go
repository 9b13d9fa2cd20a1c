package usecase

import (
	"errors"

	"github.com/vitos/perp_screener/internal/domain"
	"go.uber.org/zap"
)

// DefaultMinScore keeps the screen maximally permissive: one weighted point activates a signal.
const DefaultMinScore = 1

type TimeframeWeight struct {
	Timeframe domain.Timeframe
	Weight    int
}

// DefaultTimeframeWeights weights longer timeframes more heavily.
func DefaultTimeframeWeights() []TimeframeWeight {
	return []TimeframeWeight{
		{Timeframe: "5m", Weight: 1},
		{Timeframe: "15m", Weight: 2},
		{Timeframe: "30m", Weight: 3},
		{Timeframe: "1h", Weight: 4},
	}
}

type Aggregator struct {
	scorer   *TimeframeScorer
	weights  []TimeframeWeight
	minScore int
	logger   *zap.Logger
}

func NewAggregator(scorer *TimeframeScorer, weights []TimeframeWeight, minScore int, logger *zap.Logger) *Aggregator {
	if len(weights) == 0 {
		weights = DefaultTimeframeWeights()
	}
	return &Aggregator{
		scorer:   scorer,
		weights:  weights,
		minScore: minScore,
		logger:   logger,
	}
}

func (a *Aggregator) Timeframes() []domain.Timeframe {
	tfs := make([]domain.Timeframe, len(a.weights))
	for i, w := range a.weights {
		tfs[i] = w.Timeframe
	}
	return tfs
}

// Aggregate scores every weighted timeframe present in candles. Timeframes that
// are missing or too short are skipped and contribute nothing to either total.
func (a *Aggregator) Aggregate(symbol string, candles map[domain.Timeframe][]domain.Candle) domain.SymbolAssessment {
	assessment := domain.SymbolAssessment{
		Symbol:       symbol,
		PerTimeframe: make(map[domain.Timeframe]domain.TimeframeScore),
	}

	for _, w := range a.weights {
		series, ok := candles[w.Timeframe]
		if !ok {
			continue
		}
		score, err := a.scorer.Score(series)
		if err != nil {
			if !errors.Is(err, domain.ErrInsufficientData) {
				a.logger.Warn("Timeframe scoring failed",
					zap.String("symbol", symbol), zap.String("timeframe", string(w.Timeframe)), zap.Error(err))
			}
			continue
		}
		assessment.PerTimeframe[w.Timeframe] = score
		assessment.Timeframes = append(assessment.Timeframes, w.Timeframe)
		assessment.LongTotal += score.Long * w.Weight
		assessment.ShortTotal += score.Short * w.Weight
	}

	assessment.Signal = a.Classify(assessment.LongTotal, assessment.ShortTotal)
	return assessment
}

// Classify checks LONG first, so a symbol above threshold on both sides is LONG.
func (a *Aggregator) Classify(longTotal, shortTotal int) domain.Signal {
	switch {
	case longTotal >= a.minScore:
		return domain.SignalLong
	case shortTotal >= a.minScore:
		return domain.SignalShort
	default:
		return domain.SignalNone
	}
}
