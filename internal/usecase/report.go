package usecase

import (
	"fmt"
	"strings"

	"github.com/vitos/perp_screener/internal/domain"
)

// FormatAssessment renders a candidate header plus one line per scored timeframe.
func FormatAssessment(a domain.SymbolAssessment, score int) string {
	lines := []string{fmt.Sprintf("%s (score=%d)", a.Symbol, score)}
	for _, tf := range a.Timeframes {
		s := a.PerTimeframe[tf]
		lines = append(lines, fmt.Sprintf("   %-4s: LONG=%d, SHORT=%d", tf, s.Long, s.Short))
	}
	return strings.Join(lines, "\n")
}

// CandidateSections returns one message for the LONG side and one for the SHORT side.
func CandidateSections(long, short []domain.Candidate) []string {
	return []string{
		candidateSection("🚀 LONG Candidates:", "✅ No LONG opportunities right now.", long),
		candidateSection("📉 SHORT Candidates:", "✅ No SHORT opportunities right now.", short),
	}
}

func SwingCandidateSection(candidates []domain.Candidate) string {
	return candidateSection("🎯 SWING LONG Candidates:", "✅ No swing entries right now.", candidates)
}

func candidateSection(title, empty string, candidates []domain.Candidate) string {
	if len(candidates) == 0 {
		return empty
	}
	details := make([]string, len(candidates))
	for i, c := range candidates {
		details[i] = c.Detail
	}
	return title + "\n\n" + strings.Join(details, "\n\n")
}

// FormatSwingCandidate renders the entry zone and take-profit ladder of a swing candidate.
func FormatSwingCandidate(symbol string, levels domain.SwingLevels, lastClose, upside float64, trend *domain.TimeframeScore, tf domain.Timeframe) string {
	lines := []string{
		fmt.Sprintf("%s (upside=%.2f%%)", symbol, upside),
		fmt.Sprintf("   close : %s", price(lastClose)),
		fmt.Sprintf("   entry : %s - %s", price(levels.EntryZoneBottom), price(levels.EntryZoneTop)),
		fmt.Sprintf("   TP    : %s / %s / %s", price(levels.TakeProfit1), price(levels.TakeProfit2), price(levels.TakeProfit3)),
		fmt.Sprintf("   SL    : %s", price(levels.Invalidation)),
	}
	if trend != nil {
		lines = append(lines, fmt.Sprintf("   %-4s: LONG=%d, SHORT=%d", tf, trend.Long, trend.Short))
	}
	return strings.Join(lines, "\n")
}

// PnLReport groups ledger results by side. Entries without a fresh mark are flagged n/a.
func PnLReport(results []PnLResult) string {
	var longLines, shortLines []string
	for _, r := range results {
		line := pnlLine(r)
		if r.Position.Signal == domain.SignalShort {
			shortLines = append(shortLines, line)
		} else {
			longLines = append(longLines, line)
		}
	}

	var b strings.Builder
	if len(longLines) > 0 {
		b.WriteString("🚀 LONG:\n" + strings.Join(longLines, "\n") + "\n")
	} else {
		b.WriteString("🚀 LONG: No open positions.\n")
	}
	if len(shortLines) > 0 {
		b.WriteString("📉 SHORT:\n" + strings.Join(shortLines, "\n"))
	} else {
		b.WriteString("📉 SHORT: No open positions.")
	}
	return b.String()
}

// SwingPnLReport lists swing positions with the take-profit stage reached.
func SwingPnLReport(results []PnLResult) string {
	if len(results) == 0 {
		return "🎯 SWING: No open positions."
	}
	lines := []string{"🎯 SWING:"}
	for _, r := range results {
		line := pnlLine(r)
		if r.Err == nil {
			if stage := SwingProgress(r.Position.Levels, r.Mark); stage != "" {
				line += " [" + stage + "]"
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func pnlLine(r PnLResult) string {
	if r.Err != nil {
		return fmt.Sprintf("⚠️ %-16s:    n/a", r.Position.Symbol)
	}
	pnl := r.Position.PnLPercent
	marker := "⚪"
	if pnl > 0 {
		marker = "🟢"
	} else if pnl < 0 {
		marker = "🔴"
	}
	return fmt.Sprintf("%s %-16s: %6.2f%%", marker, r.Position.Symbol, pnl)
}

func price(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
