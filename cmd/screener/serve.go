package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitos/perp_screener/internal/domain"
	"github.com/vitos/perp_screener/internal/web"
	"go.uber.org/zap"
)

type scheduledJob struct {
	name  string
	every time.Duration
	run   func(context.Context) (string, error)
}

func newServeCmd(root *rootOptions) *cobra.Command {
	var noSwing, noHTTP bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the screening schedule and the HTTP trigger endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := buildApp(cfg, log, buildOptions{liveFeed: true})
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.watchOpenPositions(ctx)

			jobs := []scheduledJob{
				{"screen", cfg.Screen.Interval, a.service.RunScreen},
				{"pnl", cfg.PnL.Interval, a.service.RunPnLUpdate},
			}
			if !noSwing {
				jobs = append(jobs,
					scheduledJob{"swing", cfg.Swing.Interval, a.service.RunSwingScreen},
					scheduledJob{"swing-pnl", cfg.Swing.PnLInterval, a.service.RunSwingPnLUpdate},
				)
			}

			var wg sync.WaitGroup
			for _, job := range jobs {
				wg.Add(1)
				go func() {
					defer wg.Done()
					schedule(ctx, log, job)
				}()
			}

			var server *web.Server
			if !noHTTP && cfg.Server.Port > 0 {
				server = web.NewServer(
					cfg.Server.Port,
					a.service,
					a.service.Ledger(domain.LedgerPrimary),
					a.service.Ledger(domain.LedgerSwing),
					a.history,
					log,
				)
				go func() {
					if err := server.Start(); err != nil {
						log.Error("Server failed", zap.Error(err))
						stop()
					}
				}()
			}

			<-ctx.Done()
			log.Info("Shutting down...")

			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					log.Error("Server shutdown failed", zap.Error(err))
				}
			}
			wg.Wait()
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSwing, "no-swing", false, "skip the swing screen and swing PnL schedule")
	cmd.Flags().BoolVar(&noHTTP, "no-http", false, "do not start the HTTP trigger server")
	return cmd
}

// schedule runs job immediately and then every job.every until ctx is done.
// Failures are logged by the service and never stop the loop.
func schedule(ctx context.Context, log *zap.Logger, job scheduledJob) {
	log.Info("Scheduling job", zap.String("job", job.name), zap.Duration("every", job.every))
	ticker := time.NewTicker(job.every)
	defer ticker.Stop()

	for {
		job.run(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
