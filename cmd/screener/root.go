package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitos/perp_screener/internal/config"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "screener",
		Short: "Perpetual-futures screener with tracked PnL",
		Long: `screener scores USDT perpetual swaps on several timeframes, reports the
strongest LONG and SHORT candidates, and tracks their unrealized PnL until the
next screen. A daily swing screen proposes support entries with a take-profit ladder.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "path to the YAML config")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with secrets")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(newServeCmd(opts), newRunCmd(opts), newAnalyzeCmd(opts))
	return root
}

// load reads .env, the config and builds the logger. A missing default config
// file falls back to built-in settings.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", o.envFile, err)
	}

	cfg, err := config.Load(config.ResolvePath(o.configPath))
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
