package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "config/config.yaml"

	ExchangeOKX   = "okx"
	ExchangeBybit = "bybit"

	StorageFile   = "file"
	StorageSQLite = "sqlite"

	// minCandlesFloor is the smallest window the scorer accepts.
	minCandlesFloor = 20
)

type Config struct {
	Exchange ExchangeConfig `yaml:"exchange"`
	Screen   ScreenConfig   `yaml:"screen"`
	Swing    SwingConfig    `yaml:"swing"`
	PnL      PnLConfig      `yaml:"pnl"`
	Workers  WorkersConfig  `yaml:"workers"`
	Storage  StorageConfig  `yaml:"storage"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
}

type ExchangeConfig struct {
	Name         string `yaml:"name"`
	RESTEndpoint string `yaml:"rest_endpoint"`
	WSEndpoint   string `yaml:"ws_endpoint"`
	PriceStream  bool   `yaml:"price_stream"`
}

type TimeframeConfig struct {
	Label  string `yaml:"label"`
	Weight int    `yaml:"weight"`
}

type ScreenConfig struct {
	Timeframes []TimeframeConfig `yaml:"timeframes"`
	KlineLimit int               `yaml:"kline_limit"`
	MinCandles int               `yaml:"min_candles"`
	MinScore   int               `yaml:"min_score"`
	TopN       int               `yaml:"top_n"`
	Interval   time.Duration     `yaml:"interval"`
}

type SwingConfig struct {
	Timeframe   string        `yaml:"timeframe"`
	KlineLimit  int           `yaml:"kline_limit"`
	Lookback    int           `yaml:"lookback"`
	ATRWindow   int           `yaml:"atr_window"`
	MinCandles  int           `yaml:"min_candles"`
	TopN        int           `yaml:"top_n"`
	Interval    time.Duration `yaml:"interval"`
	PnLInterval time.Duration `yaml:"pnl_interval"`
}

type PnLConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type WorkersConfig struct {
	Max int `yaml:"max"`
}

type StorageConfig struct {
	Driver     string `yaml:"driver"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

type TelegramConfig struct {
	APIURL   string `yaml:"api_url"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Enabled reports whether reports go to Telegram rather than the log.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns the settings the screener runs with when nothing is configured.
func Default() *Config {
	return &Config{
		Exchange: ExchangeConfig{Name: ExchangeOKX},
		Screen: ScreenConfig{
			Timeframes: []TimeframeConfig{
				{Label: "5m", Weight: 1},
				{Label: "15m", Weight: 2},
				{Label: "30m", Weight: 3},
				{Label: "1h", Weight: 4},
			},
			KlineLimit: 100,
			MinCandles: 50,
			MinScore:   1,
			TopN:       5,
			Interval:   30 * time.Minute,
		},
		Swing: SwingConfig{
			Timeframe:   "1d",
			KlineLimit:  120,
			Lookback:    90,
			ATRWindow:   14,
			MinCandles:  minCandlesFloor,
			TopN:        5,
			Interval:    4 * time.Hour,
			PnLInterval: 30 * time.Minute,
		},
		PnL:     PnLConfig{Interval: 5 * time.Minute},
		Workers: WorkersConfig{Max: 10},
		Storage: StorageConfig{Driver: StorageFile, Dir: ".", SQLitePath: "screener.db"},
		Logging: LoggingConfig{Level: "info", MaxSizeMB: 50, MaxBackups: 5, MaxAgeDays: 28},
		Server:  ServerConfig{Port: 8080},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// ResolvePath returns "" when path is the default location and no file exists
// there, so Load falls back to built-in settings. Explicit paths are kept.
func ResolvePath(path string) string {
	if path != DefaultPath {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}

// Load decodes path over the defaults, applies environment overrides and validates.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("TELEGRAM_BOT_TOKEN"); ok && v != "" {
		c.Telegram.BotToken = v
	}
	if v, ok := lookup("TELEGRAM_CHAT_ID"); ok && v != "" && v != "0" {
		c.Telegram.ChatID = v
	}
	if v, ok := lookup("SCREENER_EXCHANGE"); ok && v != "" {
		c.Exchange.Name = v
	}
	if v, ok := lookup("OKX_API_URL"); ok && v != "" && c.Exchange.Name == ExchangeOKX {
		c.Exchange.RESTEndpoint = v
	}
	if v, ok := lookup("MAX_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_WORKERS: %w", err)
		}
		c.Workers.Max = n
	}
	return nil
}

// Validate rejects settings the screener cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Exchange.Name == ExchangeOKX || c.Exchange.Name == ExchangeBybit,
		"exchange.name must be %q or %q, got %q", ExchangeOKX, ExchangeBybit, c.Exchange.Name)

	check(len(c.Screen.Timeframes) > 0, "screen.timeframes must not be empty")
	seen := make(map[string]bool)
	for _, tf := range c.Screen.Timeframes {
		check(tf.Label != "", "screen.timeframes: empty label")
		check(!seen[tf.Label], "screen.timeframes: duplicate label %q", tf.Label)
		check(tf.Weight > 0, "screen.timeframes: weight for %q must be positive", tf.Label)
		seen[tf.Label] = true
	}
	check(c.Screen.MinCandles >= minCandlesFloor, "screen.min_candles must be at least %d", minCandlesFloor)
	check(c.Screen.KlineLimit >= c.Screen.MinCandles, "screen.kline_limit must be at least screen.min_candles")
	check(c.Screen.MinScore >= 0, "screen.min_score must not be negative")
	check(c.Screen.TopN >= 1, "screen.top_n must be at least 1")
	check(c.Screen.Interval > 0, "screen.interval must be positive")

	check(c.Swing.Timeframe != "", "swing.timeframe must be set")
	check(c.Swing.MinCandles >= minCandlesFloor, "swing.min_candles must be at least %d", minCandlesFloor)
	check(c.Swing.KlineLimit >= c.Swing.MinCandles, "swing.kline_limit must be at least swing.min_candles")
	check(c.Swing.Lookback >= 1, "swing.lookback must be positive")
	check(c.Swing.ATRWindow >= 1, "swing.atr_window must be positive")
	check(c.Swing.TopN >= 1, "swing.top_n must be at least 1")
	check(c.Swing.Interval > 0, "swing.interval must be positive")
	check(c.Swing.PnLInterval > 0, "swing.pnl_interval must be positive")

	check(c.PnL.Interval > 0, "pnl.interval must be positive")
	check(c.Workers.Max >= 1, "workers.max must be at least 1")

	switch c.Storage.Driver {
	case StorageFile:
		check(c.Storage.Dir != "", "storage.dir must be set for the file driver")
	case StorageSQLite:
		check(c.Storage.SQLitePath != "", "storage.sqlite_path must be set for the sqlite driver")
	default:
		check(false, "storage.driver must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage.Driver)
	}

	check(c.Server.Port >= 0 && c.Server.Port <= 65535, "server.port out of range")

	return errors.Join(errs...)
}
