package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestShortInputIsNaNNotPanic(t *testing.T) {
	p := New()
	closes := constant(10, 100)

	for _, v := range p.EMA(closes, 200) {
		assert.True(t, math.IsNaN(v))
	}
	for _, v := range p.RSI(closes, 14) {
		assert.True(t, math.IsNaN(v))
	}
	k, d := p.Stochastic(closes[:5], closes[:5], closes[:5], 5, 3)
	assert.Len(t, k, 5)
	assert.True(t, math.IsNaN(Last(k)))
	assert.True(t, math.IsNaN(Last(d)))
	assert.True(t, math.IsNaN(Last(p.ATR(closes, closes, closes, 14))))
	assert.True(t, math.IsNaN(Last(nil)))
}

func TestEMAOfConstantSeries(t *testing.T) {
	ema := New().EMA(constant(60, 42), 20)
	require.Len(t, ema, 60)
	assert.True(t, math.IsNaN(ema[18]))
	assert.InDelta(t, 42, ema[19], 1e-9)
	assert.InDelta(t, 42, Last(ema), 1e-9)
}

func TestRSIOfRisingSeries(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	rsi := New().RSI(closes, 14)
	assert.True(t, math.IsNaN(rsi[13]))
	assert.InDelta(t, 100, Last(rsi), 1e-9)
}

func TestATROfConstantRange(t *testing.T) {
	high := constant(30, 102)
	low := constant(30, 100)
	closes := constant(30, 101)
	atr := New().ATR(high, low, closes, 14)
	assert.True(t, math.IsNaN(atr[13]))
	assert.InDelta(t, 2, Last(atr), 1e-9)
}

func TestProperty_StochasticWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("%K and %D stay within [0, 100]", prop.ForAll(
		func(closes []float64) bool {
			high := make([]float64, len(closes))
			low := make([]float64, len(closes))
			for i, c := range closes {
				high[i] = c + 1
				low[i] = c - 1
			}
			k, d := New().Stochastic(high, low, closes, 5, 3)
			for i := 6; i < len(closes); i++ {
				if k[i] < -1e-9 || k[i] > 100+1e-9 || d[i] < -1e-9 || d[i] > 100+1e-9 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(60, gen.Float64Range(10, 1000)),
	))

	properties.TestingRun(t)
}
