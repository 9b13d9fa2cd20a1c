package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vitos/perp_screener/internal/config"
	"github.com/vitos/perp_screener/internal/domain"
	"github.com/vitos/perp_screener/internal/infrastructure/exchange"
	"github.com/vitos/perp_screener/internal/usecase"
	"go.uber.org/zap"
)

// Checks the configured data source: instruments, candles and last price.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	symbol := flag.String("symbol", "", "symbol to check (defaults to the first USDT perpetual)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Printf("Failed to load .env: %v\n", err)
	}
	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	var ex domain.Exchange
	switch cfg.Exchange.Name {
	case config.ExchangeBybit:
		ex = exchange.NewBybitAdapter(cfg.Exchange.RESTEndpoint)
	default:
		ex = exchange.NewOKXAdapter(cfg.Exchange.RESTEndpoint)
	}
	fmt.Printf("Testing %s data source...\n", cfg.Exchange.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	instruments, err := ex.GetInstruments(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to list instruments: %v\n", err)
		os.Exit(1)
	}
	symbols, err := usecase.NewMarketService(ex, nil, zap.NewNop()).FetchSymbols(ctx)
	if err != nil {
		fmt.Printf("❌ Failed to list symbols: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Instruments: %d listed, %d tradable USDT perpetuals\n", len(instruments), len(symbols))

	sym := *symbol
	if sym == "" {
		if len(symbols) == 0 {
			fmt.Println("⚠️ No USDT perpetuals to check")
			return
		}
		sym = symbols[0]
	}

	for _, tf := range cfg.Screen.Timeframes {
		candles, err := ex.GetCandles(ctx, sym, domain.Timeframe(tf.Label), cfg.Screen.KlineLimit)
		if err != nil {
			fmt.Printf("❌ Candles %s %s: %v\n", sym, tf.Label, err)
			continue
		}
		fmt.Printf("✅ Candles %s %s: %d rows\n", sym, tf.Label, len(candles))
	}

	price, err := ex.GetCurrentPrice(ctx, sym)
	if err != nil {
		fmt.Printf("❌ Failed to get price: %v\n", err)
	} else {
		fmt.Printf("✅ Current Price (%s): %f\n", sym, price)
	}
}
