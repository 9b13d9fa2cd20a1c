package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable means the exchange returned no candles or no price.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrInsufficientData is matched by every *InsufficientDataError.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrPriceUnavailable marks a ledger entry whose pnl could not be computed.
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrLedgerCorrupt means persisted ledger state could not be decoded.
	ErrLedgerCorrupt = errors.New("ledger corrupt")
	// ErrNoSwingLevels means the lookback window had no usable rows.
	ErrNoSwingLevels = errors.New("no swing levels")
)

type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d candles, need %d", e.Have, e.Need)
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
