package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vitos/perp_screener/internal/domain"
	"go.uber.org/zap"
)

// Ledger is the single owner of one persisted position collection. Every
// read-modify-write holds mu, so a screening cycle and a pnl update never
// interleave on the same ledger.
type Ledger struct {
	kind    domain.LedgerKind
	store   domain.LedgerStore
	logger  *zap.Logger
	mu      sync.Mutex
	timeNow func() time.Time
}

func NewLedger(kind domain.LedgerKind, store domain.LedgerStore, logger *zap.Logger) *Ledger {
	return &Ledger{
		kind:    kind,
		store:   store,
		logger:  logger.With(zap.String("ledger", string(kind))),
		timeNow: time.Now,
	}
}

func (l *Ledger) Kind() domain.LedgerKind {
	return l.kind
}

// Positions returns a copy of the persisted positions.
func (l *Ledger) Positions(ctx context.Context) ([]domain.Position, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Replace discards every previous entry and writes positions as the new ledger.
// Replaced entries are archived when the store keeps history.
func (l *Ledger) Replace(ctx context.Context, positions []domain.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	previous, err := l.load(ctx)
	if err != nil {
		l.logger.Warn("Could not read previous positions before replace", zap.Error(err))
		previous = nil
	}

	if err := l.store.SavePositions(ctx, l.kind, positions); err != nil {
		return fmt.Errorf("save %s ledger: %w", l.kind, err)
	}

	if archiver, ok := l.store.(domain.PositionArchiver); ok && len(previous) > 0 {
		closedAt := l.timeNow()
		history := make([]domain.PositionHistory, 0, len(previous))
		for _, p := range previous {
			history = append(history, domain.PositionHistory{
				Ledger:     l.kind,
				Symbol:     p.Symbol,
				Signal:     p.Signal,
				EntryPrice: p.EntryPrice,
				PnLPercent: p.PnLPercent,
				CycleID:    p.CycleID,
				OpenedAt:   p.OpenedAt,
				ClosedAt:   closedAt,
			})
		}
		if err := archiver.ArchivePositions(ctx, history); err != nil {
			l.logger.Error("Failed to archive replaced positions", zap.Error(err))
		}
	}

	l.logger.Info("Ledger replaced", zap.Int("previous", len(previous)), zap.Int("positions", len(positions)))
	return nil
}

// Update runs fn over the current positions and persists its result.
func (l *Ledger) Update(ctx context.Context, fn func([]domain.Position) ([]domain.Position, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := l.store.SavePositions(ctx, l.kind, next); err != nil {
		return fmt.Errorf("save %s ledger: %w", l.kind, err)
	}
	return nil
}

// load treats a corrupt ledger as empty; losing tracked positions is
// preferable to halting the pipeline.
func (l *Ledger) load(ctx context.Context) ([]domain.Position, error) {
	positions, err := l.store.LoadPositions(ctx, l.kind)
	if errors.Is(err, domain.ErrLedgerCorrupt) {
		l.logger.Warn("Ledger unreadable, starting empty", zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s ledger: %w", l.kind, err)
	}
	return positions, nil
}
