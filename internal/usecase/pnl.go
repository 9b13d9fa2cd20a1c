package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vitos/perp_screener/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ComputePnL returns the unrealized percent move of a position against mark.
func ComputePnL(signal domain.Signal, entry, mark float64) (float64, error) {
	if entry <= 0 || math.IsNaN(entry) {
		return 0, fmt.Errorf("entry price %v: %w", entry, domain.ErrPriceUnavailable)
	}
	if mark <= 0 || math.IsNaN(mark) || math.IsInf(mark, 0) {
		return 0, fmt.Errorf("mark price %v: %w", mark, domain.ErrPriceUnavailable)
	}
	switch signal {
	case domain.SignalLong:
		return (mark - entry) / entry * 100, nil
	case domain.SignalShort:
		return (entry - mark) / entry * 100, nil
	default:
		return 0, fmt.Errorf("position signal %q has no direction", signal)
	}
}

// SwingProgress describes how far a swing position travelled along its ladder.
func SwingProgress(levels *domain.SwingLevels, mark float64) string {
	if levels == nil || mark <= 0 {
		return ""
	}
	switch {
	case mark < levels.Invalidation:
		return "invalidated"
	case mark >= levels.TakeProfit3:
		return "TP3"
	case mark >= levels.TakeProfit2:
		return "TP2"
	case mark >= levels.TakeProfit1:
		return "TP1"
	default:
		return ""
	}
}

// PriceSource supplies a fresh reference price for pnl computation.
type PriceSource interface {
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// PnLResult is the outcome for one ledger entry. Err is set when the entry kept its previous pnl.
type PnLResult struct {
	Position domain.Position
	Mark     float64
	Err      error
}

type PnLUpdater struct {
	prices  PriceSource
	limit   *semaphore.Weighted
	logger  *zap.Logger
	timeNow func() time.Time
}

// NewPnLUpdater fetches marks holding one slot of limit per request.
func NewPnLUpdater(prices PriceSource, limit *semaphore.Weighted, logger *zap.Logger) *PnLUpdater {
	return &PnLUpdater{
		prices:  prices,
		limit:   limit,
		logger:  logger,
		timeNow: time.Now,
	}
}

// Update recomputes pnl for every entry of the ledger. An entry whose mark
// price is unavailable keeps its previous pnl and does not stop the others.
// Entries are never removed here.
func (u *PnLUpdater) Update(ctx context.Context, ledger *Ledger) ([]PnLResult, error) {
	var results []PnLResult
	err := ledger.Update(ctx, func(positions []domain.Position) ([]domain.Position, error) {
		marks := make([]float64, len(positions))
		fetchErrs := make([]error, len(positions))
		fanOut(ctx, u.logger, u.limit, len(positions), func(ctx context.Context, i int) {
			marks[i], fetchErrs[i] = u.prices.LastPrice(ctx, positions[i].Symbol)
		})

		checkedAt := u.timeNow()
		results = make([]PnLResult, len(positions))
		for i := range positions {
			p := &positions[i]
			err := fetchErrs[i]
			if err == nil {
				var pnl float64
				if pnl, err = ComputePnL(p.Signal, p.EntryPrice, marks[i]); err == nil {
					p.PnLPercent = pnl
					p.LastChecked = &checkedAt
				}
			} else if !errors.Is(err, domain.ErrPriceUnavailable) {
				err = fmt.Errorf("%w: %w", domain.ErrPriceUnavailable, err)
			}
			if err != nil {
				u.logger.Warn("Skipping pnl update", zap.String("symbol", p.Symbol), zap.Error(err))
			}
			results[i] = PnLResult{Position: *p, Mark: marks[i], Err: err}
		}
		return positions, nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
