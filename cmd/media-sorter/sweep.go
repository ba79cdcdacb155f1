package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-media-sorter/internal/anime"
	"github.com/litescript/ls-media-sorter/internal/sorter"
)

func sweepCmd(a *app) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Move every file currently in the drop directories",
		Long: `Run a single pass over every configured drop directory, then exit.

Examples:
  media-sorter sweep            # move everything that can be placed
  media-sorter sweep --dry-run  # log where files would go`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if dryRun {
				cfg.Watch.DryRun = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, closer, err := a.logger(false)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := sorter.NewService(cfg, anime.Default(), nil, log)
			sum := svc.SweepAll(ctx)

			fmt.Fprintf(cmd.OutOrStdout(), "seen %d, moved %d, skipped %d, failed %d\n",
				sum.Seen, sum.Moved, sum.Skipped, sum.Failed)
			return ctx.Err()
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log destinations without moving anything")
	return cmd
}
