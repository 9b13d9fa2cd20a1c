package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vitos/perp_screener/internal/config"
	"github.com/vitos/perp_screener/internal/infrastructure/storage"
	"github.com/vitos/perp_screener/internal/usecase"
)

// Prints win rate and pnl totals of archived positions per ledger.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to config file")
	limit := flag.Int("limit", 5000, "number of most recent history rows to analyze")
	top := flag.Int("top", 30, "symbols listed per ledger")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Printf("Failed to load .env: %v\n", err)
	}
	cfg, err := config.Load(config.ResolvePath(*configPath))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.Driver != config.StorageSQLite {
		fmt.Println("Position history is only kept with the sqlite storage driver.")
		return
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	history, err := store.ListPositionHistory(context.Background(), *limit)
	if err != nil {
		fmt.Printf("Failed to list history: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Analyzing %d closed positions from %s\n\n", len(history), cfg.Storage.SQLitePath)
	fmt.Println(usecase.FormatHistoryStats(usecase.SummarizeHistory(history), *top))
}
