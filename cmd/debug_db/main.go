package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vitos/perp_screener/internal/config"
	"github.com/vitos/perp_screener/internal/domain"
	"github.com/vitos/perp_screener/internal/infrastructure/storage"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	historyLimit := flag.Int("history", 20, "history rows to print (sqlite only)")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Printf("Failed to load .env: %v\n", err)
	}
	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	ctx := context.Background()

	var store domain.LedgerStore
	var sqlite *storage.SQLiteStore
	if cfg.Storage.Driver == config.StorageSQLite {
		sqlite, err = storage.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			fmt.Printf("Failed to init sqlite: %v\n", err)
			os.Exit(1)
		}
		defer sqlite.Close()
		store = sqlite
	} else {
		store, err = storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			fmt.Printf("Failed to open ledger dir: %v\n", err)
			os.Exit(1)
		}
	}

	for _, kind := range []domain.LedgerKind{domain.LedgerPrimary, domain.LedgerSwing} {
		positions, err := store.LoadPositions(ctx, kind)
		if err != nil {
			fmt.Printf("❌ Failed to load %s ledger: %v\n", kind, err)
			continue
		}
		fmt.Printf("Found %d %s positions:\n", len(positions), kind)
		for _, p := range positions {
			fmt.Printf("- %s %s entry=%f pnl=%.2f%% cycle=%s\n", p.Symbol, p.Signal, p.EntryPrice, p.PnLPercent, p.CycleID)
			if p.Levels != nil {
				fmt.Printf("  zone=[%f, %f] tp=%f/%f/%f stop=%f\n",
					p.Levels.EntryZoneBottom, p.Levels.EntryZoneTop,
					p.Levels.TakeProfit1, p.Levels.TakeProfit2, p.Levels.TakeProfit3,
					p.Levels.Invalidation)
			}
		}
	}

	if sqlite == nil {
		return
	}
	history, err := sqlite.ListPositionHistory(ctx, *historyLimit)
	if err != nil {
		fmt.Printf("❌ Failed to list history: %v\n", err)
		return
	}
	fmt.Printf("Last %d archived positions:\n", len(history))
	for _, h := range history {
		fmt.Printf("- [%s] %s %s pnl=%.2f%% closed=%s\n", h.Ledger, h.Symbol, h.Signal, h.PnLPercent, h.ClosedAt.Format("2006-01-02 15:04"))
	}
}
