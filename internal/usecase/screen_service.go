package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/perp_screener/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

type ScreenSettings struct {
	KlineLimit int
	TopN       int
	// MaxWorkers bounds in-flight exchange tasks across all four jobs combined.
	MaxWorkers int
}

type SwingSettings struct {
	Timeframe  domain.Timeframe
	KlineLimit int
	TopN       int
}

// ScreenService runs the four scheduled jobs. Each job is single-flight: a
// trigger that arrives while the same job is running joins it and receives
// the same summary instead of starting a second cycle.
type ScreenService struct {
	market      *MarketService
	aggregator  *Aggregator
	swing       *SwingCalculator
	swingScorer *TimeframeScorer
	primary     *Ledger
	swingLedger *Ledger
	pnl         *PnLUpdater
	notifier    domain.Notifier
	screen      ScreenSettings
	swingCfg    SwingSettings
	logger      *zap.Logger
	limit       *semaphore.Weighted
	flight      singleflight.Group
	timeNow     func() time.Time
}

func NewScreenService(
	market *MarketService,
	aggregator *Aggregator,
	swing *SwingCalculator,
	swingScorer *TimeframeScorer,
	primary *Ledger,
	swingLedger *Ledger,
	notifier domain.Notifier,
	screen ScreenSettings,
	swingCfg SwingSettings,
	logger *zap.Logger,
) *ScreenService {
	if screen.TopN <= 0 {
		screen.TopN = DefaultTopN
	}
	if swingCfg.TopN <= 0 {
		swingCfg.TopN = DefaultTopN
	}
	limit := newWorkerLimit(screen.MaxWorkers)
	return &ScreenService{
		market:      market,
		aggregator:  aggregator,
		swing:       swing,
		swingScorer: swingScorer,
		primary:     primary,
		swingLedger: swingLedger,
		pnl:         NewPnLUpdater(market, limit, logger),
		notifier:    notifier,
		screen:      screen,
		swingCfg:    swingCfg,
		logger:      logger,
		limit:       limit,
		timeNow:     time.Now,
	}
}

func (s *ScreenService) RunScreen(ctx context.Context) (string, error) {
	return s.once(ctx, "screen", s.runScreen)
}

func (s *ScreenService) RunPnLUpdate(ctx context.Context) (string, error) {
	return s.once(ctx, "pnl", func(ctx context.Context) (string, error) {
		return s.runPnL(ctx, s.primary, PnLReport)
	})
}

func (s *ScreenService) RunSwingScreen(ctx context.Context) (string, error) {
	return s.once(ctx, "swing", s.runSwingScreen)
}

func (s *ScreenService) RunSwingPnLUpdate(ctx context.Context) (string, error) {
	return s.once(ctx, "swing-pnl", func(ctx context.Context) (string, error) {
		return s.runPnL(ctx, s.swingLedger, SwingPnLReport)
	})
}

func (s *ScreenService) Ledger(kind domain.LedgerKind) *Ledger {
	if kind == domain.LedgerSwing {
		return s.swingLedger
	}
	return s.primary
}

// Assess fetches and scores a single symbol on every weighted timeframe.
func (s *ScreenService) Assess(ctx context.Context, symbol string) domain.SymbolAssessment {
	candles := s.market.FetchTimeframes(ctx, symbol, s.aggregator.Timeframes(), s.screen.KlineLimit)
	return s.aggregator.Aggregate(symbol, candles)
}

func (s *ScreenService) once(ctx context.Context, job string, run func(context.Context) (string, error)) (string, error) {
	v, err, shared := s.flight.Do(job, func() (interface{}, error) {
		started := s.timeNow()
		summary, err := run(ctx)
		if err != nil {
			s.logger.Error("Job failed", zap.String("job", job), zap.Error(err))
		} else {
			s.logger.Info("Job finished", zap.String("job", job), zap.Duration("took", s.timeNow().Sub(started)))
		}
		return summary, err
	})
	if shared {
		s.logger.Debug("Joined in-flight job", zap.String("job", job))
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *ScreenService) runScreen(ctx context.Context) (string, error) {
	cycleID := uuid.NewString()
	log := s.logger.With(zap.String("cycle_id", cycleID))

	symbols, err := s.market.FetchSymbols(ctx)
	if err != nil {
		return "", fmt.Errorf("enumerate symbols: %w", err)
	}
	log.Info("Screening symbols", zap.Int("symbols", len(symbols)))

	assessed := make([]*domain.SymbolAssessment, len(symbols))
	fanOut(ctx, log, s.limit, len(symbols), func(ctx context.Context, i int) {
		a := s.Assess(ctx, symbols[i])
		assessed[i] = &a
	})
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Symbol order, not completion order, is the encounter order for ties.
	assessments := make([]domain.SymbolAssessment, 0, len(symbols))
	for _, a := range assessed {
		if a != nil {
			assessments = append(assessments, *a)
		}
	}

	long, short := Rank(assessments, s.screen.TopN)
	positions := s.openPositions(ctx, log, cycleID, append(append([]domain.Candidate{}, long...), short...))
	if err := s.primary.Replace(ctx, positions); err != nil {
		log.Error("Failed to write ledger", zap.Error(err))
	}
	s.market.Watch(positionSymbols(positions))

	sections := CandidateSections(long, short)
	s.notify(ctx, sections...)
	return strings.Join(sections, "\n\n"), nil
}

func (s *ScreenService) runSwingScreen(ctx context.Context) (string, error) {
	cycleID := uuid.NewString()
	log := s.logger.With(zap.String("cycle_id", cycleID), zap.String("workflow", "swing"))

	symbols, err := s.market.FetchSymbols(ctx)
	if err != nil {
		return "", fmt.Errorf("enumerate symbols: %w", err)
	}

	found := make([]*domain.Candidate, len(symbols))
	fanOut(ctx, log, s.limit, len(symbols), func(ctx context.Context, i int) {
		c, err := s.swingCandidate(ctx, symbols[i])
		if err != nil {
			if !errors.Is(err, domain.ErrInsufficientData) && !errors.Is(err, domain.ErrDataUnavailable) {
				log.Warn("Swing evaluation failed", zap.String("symbol", symbols[i]), zap.Error(err))
			}
			return
		}
		found[i] = c
	})
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var candidates []domain.Candidate
	for _, c := range found {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	candidates = topByScore(candidates, s.swingCfg.TopN)

	positions := s.openPositions(ctx, log, cycleID, candidates)
	if err := s.swingLedger.Replace(ctx, positions); err != nil {
		log.Error("Failed to write swing ledger", zap.Error(err))
	}
	s.market.Watch(positionSymbols(positions))

	summary := SwingCandidateSection(candidates)
	s.notify(ctx, summary)
	return summary, nil
}

// swingCandidate returns nil without error when the symbol is not in its entry zone.
func (s *ScreenService) swingCandidate(ctx context.Context, symbol string) (*domain.Candidate, error) {
	candles, err := s.market.FetchCandles(ctx, symbol, s.swingCfg.Timeframe, s.swingCfg.KlineLimit)
	if err != nil {
		return nil, err
	}
	levels, lastClose, err := s.swing.Levels(candles)
	if err != nil {
		return nil, err
	}
	if !IsSwingLong(levels, lastClose) {
		return nil, nil
	}

	var trend *domain.TimeframeScore
	if score, err := s.swingScorer.Score(candles); err == nil {
		trend = &score
	}
	upside := UpsideToFirstTarget(levels, lastClose)
	return &domain.Candidate{
		Symbol: symbol,
		Signal: domain.SignalLong,
		Score:  upside,
		Detail: FormatSwingCandidate(symbol, levels, lastClose, upside, trend, s.swingCfg.Timeframe),
		Levels: &levels,
	}, nil
}

// openPositions samples one reference price per candidate. Candidates without
// a price are reported but not tracked.
func (s *ScreenService) openPositions(ctx context.Context, log *zap.Logger, cycleID string, candidates []domain.Candidate) []domain.Position {
	prices := make([]float64, len(candidates))
	fanOut(ctx, log, s.limit, len(candidates), func(ctx context.Context, i int) {
		price, err := s.market.LastPrice(ctx, candidates[i].Symbol)
		if err != nil {
			log.Warn("No entry price, position not tracked", zap.String("symbol", candidates[i].Symbol), zap.Error(err))
			return
		}
		prices[i] = price
	})

	openedAt := s.timeNow()
	positions := make([]domain.Position, 0, len(candidates))
	for i, c := range candidates {
		if prices[i] <= 0 {
			continue
		}
		positions = append(positions, domain.Position{
			Symbol:     c.Symbol,
			Signal:     c.Signal,
			EntryPrice: prices[i],
			OpenedAt:   openedAt,
			CycleID:    cycleID,
			Levels:     c.Levels,
		})
	}
	return positions
}

func (s *ScreenService) runPnL(ctx context.Context, ledger *Ledger, report func([]PnLResult) string) (string, error) {
	results, err := s.pnl.Update(ctx, ledger)
	if err != nil {
		return "", err
	}
	summary := report(results)
	if len(results) > 0 {
		s.notify(ctx, summary)
	}
	return summary, nil
}

func (s *ScreenService) notify(ctx context.Context, messages ...string) {
	if s.notifier == nil {
		return
	}
	for _, msg := range messages {
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Error("Failed to send notification", zap.Error(err))
		}
	}
}

func positionSymbols(positions []domain.Position) []string {
	symbols := make([]string, len(positions))
	for i, p := range positions {
		symbols[i] = p.Symbol
	}
	return symbols
}
