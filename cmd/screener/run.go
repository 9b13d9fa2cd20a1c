package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var noNotify bool

	cmd := &cobra.Command{
		Use:       "run <screen|pnl|swing|swing-pnl>",
		Short:     "Run one job once and print its summary",
		ValidArgs: []string{"screen", "pnl", "swing", "swing-pnl"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := buildApp(cfg, log, buildOptions{logOnly: noNotify})
			if err != nil {
				return err
			}
			defer a.Close()

			jobs := map[string]func(context.Context) (string, error){
				"screen":    a.service.RunScreen,
				"pnl":       a.service.RunPnLUpdate,
				"swing":     a.service.RunSwingScreen,
				"swing-pnl": a.service.RunSwingPnLUpdate,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			summary, err := jobs[args[0]](ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "log reports instead of sending them to Telegram")
	return cmd
}
