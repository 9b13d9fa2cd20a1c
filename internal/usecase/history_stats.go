package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/vitos/perp_screener/internal/domain"
)

// LedgerStats summarizes the closed positions of one ledger.
type LedgerStats struct {
	Ledger   domain.LedgerKind `json:"ledger"`
	Closed   int               `json:"closed"`
	Winners  int               `json:"winners"`
	Losers   int               `json:"losers"`
	WinRate  float64           `json:"win_rate"`
	AvgPnL   float64           `json:"avg_pnl"`
	TotalPnL float64           `json:"total_pnl"`
	Symbols  []SymbolStats     `json:"symbols"`
}

type SymbolStats struct {
	Symbol   string  `json:"symbol"`
	Closed   int     `json:"closed"`
	TotalPnL float64 `json:"total_pnl"`
}

// SummarizeHistory groups archived positions by ledger. Symbols are ordered by
// absolute total pnl so the biggest movers come first.
func SummarizeHistory(history []domain.PositionHistory) []LedgerStats {
	byLedger := make(map[domain.LedgerKind]*LedgerStats)
	bySymbol := make(map[domain.LedgerKind]map[string]*SymbolStats)

	for _, h := range history {
		st, ok := byLedger[h.Ledger]
		if !ok {
			st = &LedgerStats{Ledger: h.Ledger}
			byLedger[h.Ledger] = st
			bySymbol[h.Ledger] = make(map[string]*SymbolStats)
		}
		st.Closed++
		st.TotalPnL += h.PnLPercent
		if h.PnLPercent > 0 {
			st.Winners++
		} else if h.PnLPercent < 0 {
			st.Losers++
		}

		sym, ok := bySymbol[h.Ledger][h.Symbol]
		if !ok {
			sym = &SymbolStats{Symbol: h.Symbol}
			bySymbol[h.Ledger][h.Symbol] = sym
		}
		sym.Closed++
		sym.TotalPnL += h.PnLPercent
	}

	out := make([]LedgerStats, 0, len(byLedger))
	for kind, st := range byLedger {
		st.WinRate = float64(st.Winners) / float64(st.Closed) * 100
		st.AvgPnL = st.TotalPnL / float64(st.Closed)
		for _, sym := range bySymbol[kind] {
			st.Symbols = append(st.Symbols, *sym)
		}
		sort.Slice(st.Symbols, func(i, j int) bool {
			a, b := math.Abs(st.Symbols[i].TotalPnL), math.Abs(st.Symbols[j].TotalPnL)
			if a != b {
				return a > b
			}
			return st.Symbols[i].Symbol < st.Symbols[j].Symbol
		})
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ledger < out[j].Ledger })
	return out
}

// FormatHistoryStats renders a table per ledger listing at most topSymbols rows.
func FormatHistoryStats(stats []LedgerStats, topSymbols int) string {
	if len(stats) == 0 {
		return "No closed positions yet."
	}
	var b strings.Builder
	for i, st := range stats {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %d closed, win rate %.1f%%, avg %.2f%%, total %.2f%%\n",
			strings.ToUpper(string(st.Ledger)), st.Closed, st.WinRate, st.AvgPnL, st.TotalPnL)
		fmt.Fprintf(&b, "%-20s | %-6s | %s\n", "Symbol", "Closed", "Total %")
		for j, sym := range st.Symbols {
			if topSymbols > 0 && j >= topSymbols {
				break
			}
			fmt.Fprintf(&b, "%-20s | %-6d | %.2f\n", sym.Symbol, sym.Closed, sym.TotalPnL)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
