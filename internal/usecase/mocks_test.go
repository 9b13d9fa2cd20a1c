package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vitos/perp_screener/internal/domain"
)

// MockExchange serves canned instruments, candles and prices.
type MockExchange struct {
	mu              sync.Mutex
	Instruments     []domain.Instrument
	InstrumentsErr  error
	Candles         map[string]map[domain.Timeframe][]domain.Candle
	Prices          map[string]float64
	PriceErrs       map[string]error
	PriceCalls      map[string]int
	InstrumentCalls int
	// Gate, when set, blocks GetInstruments until closed.
	Gate chan struct{}
	// CandleDelay holds every GetCandles call open to expose overlap.
	CandleDelay     time.Duration
	candlesInFlight atomic.Int32
	peakCandles     atomic.Int32
}

func (m *MockExchange) GetInstruments(ctx context.Context) ([]domain.Instrument, error) {
	m.mu.Lock()
	m.InstrumentCalls++
	gate := m.Gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.Instruments, m.InstrumentsErr
}

func (m *MockExchange) GetCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	n := m.candlesInFlight.Add(1)
	defer m.candlesInFlight.Add(-1)
	for {
		p := m.peakCandles.Load()
		if n <= p || m.peakCandles.CompareAndSwap(p, n) {
			break
		}
	}
	if m.CandleDelay > 0 {
		time.Sleep(m.CandleDelay)
	}

	candles := m.Candles[symbol][tf]
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (m *MockExchange) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PriceCalls == nil {
		m.PriceCalls = make(map[string]int)
	}
	m.PriceCalls[symbol]++
	if err := m.PriceErrs[symbol]; err != nil {
		return 0, err
	}
	return m.Prices[symbol], nil
}

func (m *MockExchange) priceCalls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.PriceCalls[symbol]
}

func (m *MockExchange) SetPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Prices[symbol] = price
}

func usdtPerp(symbol string) domain.Instrument {
	return domain.Instrument{Symbol: symbol, QuoteCoin: "USDT", Status: domain.InstrumentTrading}
}

// MockNotifier records every delivered message.
type MockNotifier struct {
	mu       sync.Mutex
	Messages []string
	Err      error
}

func (m *MockNotifier) Notify(ctx context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, text)
	return m.Err
}

func (m *MockNotifier) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Messages...)
}

// memStore is an in-memory LedgerStore.
type memStore struct {
	mu        sync.Mutex
	positions map[domain.LedgerKind][]domain.Position
	loadErr   error
	saveErr   error
	saves     int
}

func newMemStore() *memStore {
	return &memStore{positions: make(map[domain.LedgerKind][]domain.Position)}
}

func (s *memStore) LoadPositions(ctx context.Context, kind domain.LedgerKind) ([]domain.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return append([]domain.Position(nil), s.positions[kind]...), nil
}

func (s *memStore) SavePositions(ctx context.Context, kind domain.LedgerKind, positions []domain.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.positions[kind] = append([]domain.Position(nil), positions...)
	return nil
}

func (s *memStore) get(kind domain.LedgerKind) []domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Position(nil), s.positions[kind]...)
}

// archivingStore also keeps replaced positions.
type archivingStore struct {
	*memStore
	history []domain.PositionHistory
}

func (s *archivingStore) ArchivePositions(ctx context.Context, history []domain.PositionHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, history...)
	return nil
}

func (s *archivingStore) ListPositionHistory(ctx context.Context, limit int) ([]domain.PositionHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.PositionHistory(nil), s.history...), nil
}

// stubIndicators reads the trend of the close series: rising closes produce
// uniformly bullish readings, falling closes bearish ones.
type stubIndicators struct {
	atr float64
}

func rising(series []float64) bool {
	return len(series) > 1 && series[len(series)-1] > series[0]
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func (s stubIndicators) EMA(series []float64, length int) []float64 {
	if rising(series) {
		return filled(len(series), 100-float64(length))
	}
	return filled(len(series), 100+float64(length))
}

func (s stubIndicators) RSI(series []float64, length int) []float64 {
	if rising(series) {
		return filled(len(series), 70)
	}
	return filled(len(series), 30)
}

func (s stubIndicators) Stochastic(high, low, close []float64, kLength, dSmoothing int) ([]float64, []float64) {
	if rising(close) {
		return filled(len(close), 80), filled(len(close), 50)
	}
	return filled(len(close), 20), filled(len(close), 50)
}

func (s stubIndicators) ATR(high, low, close []float64, window int) []float64 {
	return filled(len(close), s.atr)
}

// nanIndicators has no defined value anywhere.
type nanIndicators struct{}

func (nanIndicators) EMA(series []float64, length int) []float64 { return filled(len(series), math.NaN()) }
func (nanIndicators) RSI(series []float64, length int) []float64 { return filled(len(series), math.NaN()) }
func (nanIndicators) Stochastic(high, low, close []float64, k, d int) ([]float64, []float64) {
	return filled(len(close), math.NaN()), filled(len(close), math.NaN())
}
func (nanIndicators) ATR(high, low, close []float64, window int) []float64 {
	return filled(len(close), math.NaN())
}

// bullishCandles rise by one per bar and end on a wide bullish body.
func bullishCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		open := 100 + float64(i)
		candles[i] = domain.Candle{Time: int64(i), Open: open, High: open + 1.5, Low: open - 0.5, Close: open + 1, Volume: 10}
	}
	last := &candles[n-1]
	last.Close = last.Open + 5
	last.High = last.Close + 0.5
	return candles
}

// bearishCandles fall by one per bar and end on a wide bearish body.
func bearishCandles(n int) []domain.Candle {
	candles := make([]domain.Candle, n)
	for i := range candles {
		open := 300 - float64(i)
		candles[i] = domain.Candle{Time: int64(i), Open: open, High: open + 0.5, Low: open - 1.5, Close: open - 1, Volume: 10}
	}
	last := &candles[n-1]
	last.Close = last.Open - 5
	last.Low = last.Close - 0.5
	return candles
}

var errBoom = errors.New("boom")
