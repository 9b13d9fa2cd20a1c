package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_screener/internal/domain"
)

func assessment(symbol string, signal domain.Signal, long, short int) domain.SymbolAssessment {
	return domain.SymbolAssessment{Symbol: symbol, Signal: signal, LongTotal: long, ShortTotal: short}
}

func symbols(candidates []domain.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Symbol
	}
	return out
}

func TestRank_TopNStableDescending(t *testing.T) {
	in := []domain.SymbolAssessment{
		assessment("A", domain.SignalLong, 10, 0),
		assessment("B", domain.SignalLong, 7, 0),
		assessment("C", domain.SignalLong, 7, 0),
		assessment("D", domain.SignalLong, 3, 0),
		assessment("E", domain.SignalLong, 9, 0),
		assessment("F", domain.SignalLong, 1, 0),
	}

	long, short := Rank(in, 5)
	assert.Equal(t, []string{"A", "E", "B", "C", "D"}, symbols(long))
	assert.Equal(t, []float64{10, 9, 7, 7, 3}, []float64{long[0].Score, long[1].Score, long[2].Score, long[3].Score, long[4].Score})
	assert.Empty(t, short)
}

func TestRank_SplitsSidesAndDropsNone(t *testing.T) {
	in := []domain.SymbolAssessment{
		assessment("A", domain.SignalShort, 2, 12),
		assessment("B", domain.SignalNone, 0, 0),
		assessment("C", domain.SignalLong, 8, 30),
		assessment("D", domain.SignalShort, 0, 20),
	}

	long, short := Rank(in, 5)
	require.Len(t, long, 1)
	assert.Equal(t, "C", long[0].Symbol)
	assert.Equal(t, 8.0, long[0].Score, "LONG candidates rank on the LONG total")
	assert.Equal(t, []string{"D", "A"}, symbols(short))
	assert.Equal(t, domain.SignalShort, short[0].Signal)
}

func TestRank_DetailText(t *testing.T) {
	a := domain.SymbolAssessment{
		Symbol:       "BTC-USDT-SWAP",
		Signal:       domain.SignalLong,
		LongTotal:    14,
		ShortTotal:   3,
		Timeframes:   []domain.Timeframe{"5m", "1h"},
		PerTimeframe: map[domain.Timeframe]domain.TimeframeScore{"5m": {Long: 2, Short: 3}, "1h": {Long: 3, Short: 0}},
	}
	long, _ := Rank([]domain.SymbolAssessment{a}, 5)
	require.Len(t, long, 1)
	assert.Equal(t, "BTC-USDT-SWAP (score=14)\n   5m  : LONG=2, SHORT=3\n   1h  : LONG=3, SHORT=0", long[0].Detail)
}

func TestRank_FewerThanTopN(t *testing.T) {
	long, short := Rank([]domain.SymbolAssessment{assessment("A", domain.SignalLong, 1, 0)}, 5)
	assert.Len(t, long, 1)
	assert.Empty(t, short)

	long, short = Rank(nil, 5)
	assert.Empty(t, long)
	assert.Empty(t, short)
}
