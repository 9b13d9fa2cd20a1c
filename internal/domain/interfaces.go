package domain

import "context"

// Exchange is the read-only market data collaborator.
type Exchange interface {
	// GetInstruments lists USDT-margined perpetual contracts.
	GetInstruments(ctx context.Context) ([]Instrument, error)
	// GetCandles returns up to limit candles, oldest first.
	GetCandles(ctx context.Context, symbol string, tf Timeframe, limit int) ([]Candle, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
}

// IndicatorProvider computes per-row indicator series aligned to the input.
// Rows without enough history are NaN.
type IndicatorProvider interface {
	EMA(series []float64, length int) []float64
	RSI(series []float64, length int) []float64
	Stochastic(high, low, close []float64, kLength, dSmoothing int) (k, d []float64)
	ATR(high, low, close []float64, window int) []float64
}

// Notifier delivers a finished summary text.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// LedgerStore persists one position collection per ledger kind.
// SavePositions replaces the whole collection atomically.
type LedgerStore interface {
	LoadPositions(ctx context.Context, kind LedgerKind) ([]Position, error)
	SavePositions(ctx context.Context, kind LedgerKind, positions []Position) error
}

// PositionArchiver is implemented by stores that keep replaced positions.
type PositionArchiver interface {
	ArchivePositions(ctx context.Context, history []PositionHistory) error
	ListPositionHistory(ctx context.Context, limit int) ([]PositionHistory, error)
}
