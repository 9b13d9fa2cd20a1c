package usecase

import (
	"sort"

	"github.com/vitos/perp_screener/internal/domain"
)

const DefaultTopN = 5

// Rank splits assessments by signal and keeps the topN of each side by score.
// Equal scores keep their encounter order.
func Rank(assessments []domain.SymbolAssessment, topN int) (long, short []domain.Candidate) {
	for _, a := range assessments {
		switch a.Signal {
		case domain.SignalLong:
			long = append(long, domain.Candidate{
				Symbol: a.Symbol,
				Signal: a.Signal,
				Score:  float64(a.LongTotal),
				Detail: FormatAssessment(a, a.LongTotal),
			})
		case domain.SignalShort:
			short = append(short, domain.Candidate{
				Symbol: a.Symbol,
				Signal: a.Signal,
				Score:  float64(a.ShortTotal),
				Detail: FormatAssessment(a, a.ShortTotal),
			})
		}
	}
	return topByScore(long, topN), topByScore(short, topN)
}

func topByScore(candidates []domain.Candidate, topN int) []domain.Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if topN >= 0 && len(candidates) > topN {
		candidates = candidates[:topN]
	}
	return candidates
}
