package domain

import "time"

// LedgerKind names one of the independently persisted position ledgers.
type LedgerKind string

const (
	LedgerPrimary LedgerKind = "primary"
	LedgerSwing   LedgerKind = "swing"
)

// Position is a tracked hypothetical trade. EntryPrice is fixed when the
// screening cycle writes the ledger; PnLPercent is refreshed in place.
type Position struct {
	Symbol      string       `json:"symbol"`
	Signal      Signal       `json:"signal"`
	EntryPrice  float64      `json:"entry_price"`
	PnLPercent  float64      `json:"pnl"`
	LastChecked *time.Time   `json:"last_checked,omitempty"`
	OpenedAt    time.Time    `json:"opened_at"`
	CycleID     string       `json:"cycle_id,omitempty"`
	Levels      *SwingLevels `json:"levels,omitempty"`
}

// PositionHistory is a position dropped from its ledger by a later screening cycle.
type PositionHistory struct {
	ID         int64      `json:"id"`
	Ledger     LedgerKind `json:"ledger"`
	Symbol     string     `json:"symbol"`
	Signal     Signal     `json:"signal"`
	EntryPrice float64    `json:"entry_price"`
	PnLPercent float64    `json:"pnl"`
	CycleID    string     `json:"cycle_id"`
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   time.Time  `json:"closed_at"`
}
