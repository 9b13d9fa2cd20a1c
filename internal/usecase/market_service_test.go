package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/perp_screener/internal/domain"
	"go.uber.org/zap"
)

type mockFeed struct {
	callback   func(symbol string, price float64)
	subscribed [][]string
	err        error
}

func (f *mockFeed) OnPriceUpdate(cb func(symbol string, price float64)) { f.callback = cb }

func (f *mockFeed) Subscribe(symbols []string) error {
	f.subscribed = append(f.subscribed, symbols)
	return f.err
}

func TestMarketService_FetchSymbols(t *testing.T) {
	ex := &MockExchange{Instruments: []domain.Instrument{
		usdtPerp("BTC-USDT-SWAP"),
		{Symbol: "BTC-USDC-SWAP", QuoteCoin: "USDC", Status: domain.InstrumentTrading},
		{Symbol: "LUNA-USDT-SWAP", QuoteCoin: "USDT", Status: "suspend"},
		usdtPerp("ETH-USDT-SWAP"),
	}}
	service := NewMarketService(ex, nil, zap.NewNop())

	symbols, err := service.FetchSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC-USDT-SWAP", "ETH-USDT-SWAP"}, symbols)
}

func TestMarketService_FetchSymbolsFailures(t *testing.T) {
	service := NewMarketService(&MockExchange{InstrumentsErr: errBoom}, nil, zap.NewNop())
	_, err := service.FetchSymbols(context.Background())
	assert.ErrorIs(t, err, errBoom)

}

func TestMarketService_EmptyUniverseIsNotAnError(t *testing.T) {
	ex := &MockExchange{Instruments: []domain.Instrument{
		{Symbol: "BTC-USDC-SWAP", QuoteCoin: "USDC", Status: domain.InstrumentTrading},
	}}
	symbols, err := NewMarketService(ex, nil, zap.NewNop()).FetchSymbols(context.Background())
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestMarketService_FetchTimeframesSkipsEmpty(t *testing.T) {
	ex := &MockExchange{Candles: map[string]map[domain.Timeframe][]domain.Candle{
		"BTC-USDT-SWAP": {"5m": bullishCandles(60)},
	}}
	service := NewMarketService(ex, nil, zap.NewNop())

	_, err := service.FetchCandles(context.Background(), "BTC-USDT-SWAP", "1h", 100)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)

	got := service.FetchTimeframes(context.Background(), "BTC-USDT-SWAP", []domain.Timeframe{"5m", "1h"}, 50)
	require.Len(t, got, 1)
	assert.Len(t, got["5m"], 50)
}

func TestMarketService_LastPricePrefersFreshQuote(t *testing.T) {
	ex := &MockExchange{Prices: map[string]float64{"BTC-USDT-SWAP": 100}}
	feed := &mockFeed{}
	service := NewMarketService(ex, feed, zap.NewNop())

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	service.timeNow = func() time.Time { return now }

	feed.callback("BTC-USDT-SWAP", 105)
	price, err := service.LastPrice(context.Background(), "BTC-USDT-SWAP")
	require.NoError(t, err)
	assert.Equal(t, 105.0, price)
	assert.Zero(t, ex.priceCalls("BTC-USDT-SWAP"))

	// stale quotes fall back to REST
	now = now.Add(DefaultQuoteMaxAge + time.Second)
	price, err = service.LastPrice(context.Background(), "BTC-USDT-SWAP")
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)
	assert.Equal(t, 1, ex.priceCalls("BTC-USDT-SWAP"))
}

func TestMarketService_LastPriceUnavailable(t *testing.T) {
	ex := &MockExchange{
		Prices:    map[string]float64{"ZERO-USDT-SWAP": 0},
		PriceErrs: map[string]error{"DOWN-USDT-SWAP": errBoom},
	}
	service := NewMarketService(ex, nil, zap.NewNop())

	_, err := service.LastPrice(context.Background(), "ZERO-USDT-SWAP")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)

	_, err = service.LastPrice(context.Background(), "DOWN-USDT-SWAP")
	assert.ErrorIs(t, err, domain.ErrPriceUnavailable)
	assert.ErrorIs(t, err, errBoom)
}

func TestMarketService_WatchSubscribesOnce(t *testing.T) {
	feed := &mockFeed{}
	service := NewMarketService(&MockExchange{}, feed, zap.NewNop())

	service.Watch([]string{"A", "B"})
	service.Watch([]string{"B", "C"})
	service.Watch(nil)

	assert.Equal(t, [][]string{{"A", "B"}, {"C"}}, feed.subscribed)
}

func TestMarketService_WatchRetriesAfterSubscribeFailure(t *testing.T) {
	feed := &mockFeed{err: errBoom}
	service := NewMarketService(&MockExchange{}, feed, zap.NewNop())

	service.Watch([]string{"A"})
	feed.err = nil
	service.Watch([]string{"A"})

	assert.Equal(t, [][]string{{"A"}, {"A"}}, feed.subscribed)
}
