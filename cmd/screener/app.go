package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vitos/perp_screener/internal/config"
	"github.com/vitos/perp_screener/internal/domain"
	"github.com/vitos/perp_screener/internal/indicator"
	"github.com/vitos/perp_screener/internal/infrastructure/exchange"
	"github.com/vitos/perp_screener/internal/infrastructure/logger"
	"github.com/vitos/perp_screener/internal/infrastructure/notify"
	"github.com/vitos/perp_screener/internal/infrastructure/storage"
	"github.com/vitos/perp_screener/internal/usecase"
	"go.uber.org/zap"
)

// app is the wired screener: one market service, two ledgers, one notifier.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	market  *usecase.MarketService
	service *usecase.ScreenService
	history domain.PositionArchiver
	closers []func() error
}

type buildOptions struct {
	// liveFeed opens the websocket ticker stream when the config enables it.
	liveFeed bool
	// logOnly sends reports to the log instead of Telegram.
	logOnly bool
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	if cfg.File == "" {
		return logger.NewLogger(cfg.Level)
	}
	return logger.NewFileLogger(cfg.File, cfg.Level, logger.Rotation{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAgeDays: cfg.MaxAgeDays,
	})
}

func newExchange(cfg config.ExchangeConfig) (domain.Exchange, string, exchange.StreamDialect) {
	if cfg.Name == config.ExchangeBybit {
		ws := cfg.WSEndpoint
		if ws == "" {
			ws = exchange.BybitWSURL
		}
		return exchange.NewBybitAdapter(cfg.RESTEndpoint), ws, exchange.BybitDialect{}
	}
	ws := cfg.WSEndpoint
	if ws == "" {
		ws = exchange.OKXWSURL
	}
	return exchange.NewOKXAdapter(cfg.RESTEndpoint), ws, exchange.OKXDialect{}
}

func newStore(cfg config.StorageConfig) (domain.LedgerStore, func() error, error) {
	if cfg.Driver == config.StorageSQLite {
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		store, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("init sqlite: %w", err)
		}
		return store, store.Close, nil
	}
	store, err := storage.NewFileStore(cfg.Dir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() error { return nil }, nil
}

func newNotifier(cfg config.TelegramConfig, log *zap.Logger, logOnly bool) (domain.Notifier, error) {
	if logOnly || !cfg.Enabled() {
		if !logOnly {
			log.Warn("Telegram not configured, reports go to the log")
		}
		return notify.NewLogNotifier(log.Named("report")), nil
	}
	return notify.NewTelegramNotifier(cfg.APIURL, cfg.BotToken, cfg.ChatID)
}

func buildApp(cfg *config.Config, log *zap.Logger, opts buildOptions) (*app, error) {
	for _, tf := range cfg.Screen.Timeframes {
		if !exchange.SupportedTimeframe(domain.Timeframe(tf.Label)) {
			return nil, fmt.Errorf("screen timeframe %q is not supported", tf.Label)
		}
	}
	if !exchange.SupportedTimeframe(domain.Timeframe(cfg.Swing.Timeframe)) {
		return nil, fmt.Errorf("swing timeframe %q is not supported", cfg.Swing.Timeframe)
	}

	a := &app{cfg: cfg, log: log}

	ex, wsURL, dialect := newExchange(cfg.Exchange)
	var feed usecase.PriceFeed
	if opts.liveFeed && cfg.Exchange.PriceStream {
		stream := exchange.NewTickerStream(wsURL, dialect, log.Named("stream"))
		feed = stream
		a.closers = append(a.closers, stream.Close)
	}
	a.market = usecase.NewMarketService(ex, feed, log)

	store, closeStore, err := newStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStore)
	a.history, _ = store.(domain.PositionArchiver)

	notifier, err := newNotifier(cfg.Telegram, log, opts.logOnly)
	if err != nil {
		a.Close()
		return nil, err
	}

	ind := indicator.New()
	weights := make([]usecase.TimeframeWeight, len(cfg.Screen.Timeframes))
	for i, tf := range cfg.Screen.Timeframes {
		weights[i] = usecase.TimeframeWeight{Timeframe: domain.Timeframe(tf.Label), Weight: tf.Weight}
	}
	aggregator := usecase.NewAggregator(usecase.NewTimeframeScorer(ind, cfg.Screen.MinCandles), weights, cfg.Screen.MinScore, log)

	a.service = usecase.NewScreenService(
		a.market,
		aggregator,
		usecase.NewSwingCalculator(ind, cfg.Swing.Lookback, cfg.Swing.ATRWindow, cfg.Swing.MinCandles),
		usecase.NewTimeframeScorer(ind, cfg.Swing.MinCandles),
		usecase.NewLedger(domain.LedgerPrimary, store, log),
		usecase.NewLedger(domain.LedgerSwing, store, log),
		notifier,
		usecase.ScreenSettings{
			KlineLimit: cfg.Screen.KlineLimit,
			TopN:       cfg.Screen.TopN,
			MaxWorkers: cfg.Workers.Max,
		},
		usecase.SwingSettings{
			Timeframe:  domain.Timeframe(cfg.Swing.Timeframe),
			KlineLimit: cfg.Swing.KlineLimit,
			TopN:       cfg.Swing.TopN,
		},
		log,
	)
	return a, nil
}

// watchOpenPositions streams prices for positions persisted by an earlier run.
func (a *app) watchOpenPositions(ctx context.Context) {
	for _, kind := range []domain.LedgerKind{domain.LedgerPrimary, domain.LedgerSwing} {
		positions, err := a.service.Ledger(kind).Positions(ctx)
		if err != nil {
			a.log.Warn("Failed to read ledger", zap.String("ledger", string(kind)), zap.Error(err))
			continue
		}
		symbols := make([]string, len(positions))
		for i, p := range positions {
			symbols[i] = p.Symbol
		}
		a.market.Watch(symbols)
	}
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
