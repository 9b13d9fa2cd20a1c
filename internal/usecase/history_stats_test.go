package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_screener/internal/domain"
)

func TestSummarizeHistory(t *testing.T) {
	history := []domain.PositionHistory{
		{Ledger: domain.LedgerSwing, Symbol: "SOL-USDT-SWAP", PnLPercent: 12},
		{Ledger: domain.LedgerPrimary, Symbol: "BTC-USDT-SWAP", PnLPercent: 2},
		{Ledger: domain.LedgerPrimary, Symbol: "ETH-USDT-SWAP", PnLPercent: -6},
		{Ledger: domain.LedgerPrimary, Symbol: "BTC-USDT-SWAP", PnLPercent: 1},
		{Ledger: domain.LedgerPrimary, Symbol: "XRP-USDT-SWAP", PnLPercent: 0},
	}

	stats := SummarizeHistory(history)
	require.Len(t, stats, 2)

	primary := stats[0]
	assert.Equal(t, domain.LedgerPrimary, primary.Ledger)
	assert.Equal(t, 4, primary.Closed)
	assert.Equal(t, 2, primary.Winners)
	assert.Equal(t, 1, primary.Losers)
	assert.InDelta(t, 50, primary.WinRate, 1e-9)
	assert.InDelta(t, -3, primary.TotalPnL, 1e-9)
	assert.InDelta(t, -0.75, primary.AvgPnL, 1e-9)
	require.Len(t, primary.Symbols, 3)
	assert.Equal(t, "ETH-USDT-SWAP", primary.Symbols[0].Symbol)
	assert.Equal(t, SymbolStats{Symbol: "BTC-USDT-SWAP", Closed: 2, TotalPnL: 3}, primary.Symbols[1])

	assert.Equal(t, domain.LedgerSwing, stats[1].Ledger)
	assert.InDelta(t, 100, stats[1].WinRate, 1e-9)
}

func TestFormatHistoryStats(t *testing.T) {
	assert.Equal(t, "No closed positions yet.", FormatHistoryStats(nil, 10))

	out := FormatHistoryStats(SummarizeHistory([]domain.PositionHistory{
		{Ledger: domain.LedgerPrimary, Symbol: "BTC-USDT-SWAP", PnLPercent: 2},
		{Ledger: domain.LedgerPrimary, Symbol: "ETH-USDT-SWAP", PnLPercent: -1},
	}), 1)
	assert.Contains(t, out, "PRIMARY: 2 closed, win rate 50.0%, avg 0.50%, total 1.00%")
	assert.Contains(t, out, "BTC-USDT-SWAP")
	assert.NotContains(t, out, "ETH-USDT-SWAP")
}
