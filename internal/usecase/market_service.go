package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vitos/perp_screener/internal/domain"
	"go.uber.org/zap"
)

const DefaultQuoteMaxAge = 15 * time.Second

// PriceFeed pushes live prices for subscribed symbols.
type PriceFeed interface {
	OnPriceUpdate(callback func(symbol string, price float64))
	Subscribe(symbols []string) error
}

type PricePoint struct {
	Price float64
	Time  time.Time
}

// MarketService fronts the exchange: it narrows the symbol universe, marks
// empty candle responses as unavailable and serves last prices from the live
// feed when a fresh quote exists.
type MarketService struct {
	exchange    domain.Exchange
	feed        PriceFeed
	quoteMaxAge time.Duration
	quotes      map[string]PricePoint
	subscribed  map[string]bool
	logger      *zap.Logger
	mu          sync.Mutex
	timeNow     func() time.Time // For testing
}

func NewMarketService(exchange domain.Exchange, feed PriceFeed, logger *zap.Logger) *MarketService {
	s := &MarketService{
		exchange:    exchange,
		feed:        feed,
		quoteMaxAge: DefaultQuoteMaxAge,
		quotes:      make(map[string]PricePoint),
		subscribed:  make(map[string]bool),
		logger:      logger,
		timeNow:     time.Now,
	}
	if feed != nil {
		feed.OnPriceUpdate(s.handlePrice)
	}
	return s
}

func (s *MarketService) handlePrice(symbol string, price float64) {
	if price <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quotes[symbol] = PricePoint{Price: price, Time: s.timeNow()}
}

// FetchSymbols lists tradable USDT-margined perpetuals in exchange order.
// Only a failed listing is an error; an empty universe is not.
func (s *MarketService) FetchSymbols(ctx context.Context) ([]string, error) {
	instruments, err := s.exchange.GetInstruments(ctx)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(instruments))
	for _, inst := range instruments {
		if !strings.EqualFold(inst.QuoteCoin, "USDT") || inst.Status != domain.InstrumentTrading {
			continue
		}
		symbols = append(symbols, inst.Symbol)
	}
	if len(symbols) == 0 {
		s.logger.Warn("No tradable USDT perpetuals listed", zap.Int("instruments", len(instruments)))
	}
	return symbols, nil
}

func (s *MarketService) FetchCandles(ctx context.Context, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	candles, err := s.exchange.GetCandles(ctx, symbol, tf, limit)
	if err != nil {
		return nil, fmt.Errorf("%s %s candles: %w: %w", symbol, tf, domain.ErrDataUnavailable, err)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%s %s candles: %w", symbol, tf, domain.ErrDataUnavailable)
	}
	return candles, nil
}

// FetchTimeframes returns the candles of every timeframe that could be fetched.
// Unavailable timeframes are absent from the map.
func (s *MarketService) FetchTimeframes(ctx context.Context, symbol string, tfs []domain.Timeframe, limit int) map[domain.Timeframe][]domain.Candle {
	out := make(map[domain.Timeframe][]domain.Candle, len(tfs))
	for _, tf := range tfs {
		candles, err := s.FetchCandles(ctx, symbol, tf, limit)
		if err != nil {
			s.logger.Debug("Skipping timeframe", zap.String("symbol", symbol), zap.String("timeframe", string(tf)), zap.Error(err))
			continue
		}
		out[tf] = candles
	}
	return out
}

// LastPrice prefers a fresh streamed quote and falls back to REST.
func (s *MarketService) LastPrice(ctx context.Context, symbol string) (float64, error) {
	s.mu.Lock()
	quote, ok := s.quotes[symbol]
	fresh := ok && s.timeNow().Sub(quote.Time) <= s.quoteMaxAge
	s.mu.Unlock()
	if fresh {
		return quote.Price, nil
	}

	price, err := s.exchange.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return 0, fmt.Errorf("%s last price: %w: %w", symbol, domain.ErrPriceUnavailable, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%s last price %v: %w", symbol, price, domain.ErrPriceUnavailable)
	}
	return price, nil
}

// Watch subscribes the live feed to symbols not yet streamed.
func (s *MarketService) Watch(symbols []string) {
	if s.feed == nil {
		return
	}
	s.mu.Lock()
	var toSubscribe []string
	for _, sym := range symbols {
		if !s.subscribed[sym] {
			toSubscribe = append(toSubscribe, sym)
		}
	}
	s.mu.Unlock()
	if len(toSubscribe) == 0 {
		return
	}

	if err := s.feed.Subscribe(toSubscribe); err != nil {
		s.logger.Error("Failed to subscribe price feed", zap.Strings("symbols", toSubscribe), zap.Error(err))
		return
	}
	s.logger.Info("Subscribed price feed", zap.Strings("symbols", toSubscribe))
	s.mu.Lock()
	for _, sym := range toSubscribe {
		s.subscribed[sym] = true
	}
	s.mu.Unlock()
}
