package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robinjoseph08/golib/signals"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-media-sorter/internal/anime"
	"github.com/litescript/ls-media-sorter/internal/config"
	"github.com/litescript/ls-media-sorter/internal/metrics"
	"github.com/litescript/ls-media-sorter/internal/server"
	"github.com/litescript/ls-media-sorter/internal/sorter"
	"github.com/litescript/ls-media-sorter/internal/version"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Watch the drop directories and serve health and metrics",
		Long: `Sweep every drop directory once, then watch them for new files.
Files that were missed are picked up by the periodic rescan. Stops on
SIGINT or SIGTERM after running moves finish.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, closer, err := a.logger(true)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := config.EnsureLibraryDirs(cfg); err != nil {
		log.Error().Err(err).Msg("unable to create library directories")
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := sorter.NewService(cfg, anime.Default(), m, log)
	srv := server.New(cfg.Server, reg)

	graceful := signals.Setup()

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return errors.Wrap(err, "failed to bind port")
	}
	go func() {
		log.Info().Str("addr", listener.Addr().String()).Msg("server started")
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
		}
	}()

	log.Info().
		Str("version", version.Version).
		Bool("dry_run", cfg.Watch.DryRun).
		Msg("media sorter started")

	if err := svc.Start(ctx); err != nil {
		_ = srv.Close()
		return err
	}

	<-graceful
	log.Info().Msg("starting graceful shutdown")

	cancel()
	svc.Stop()
	log.Info().Msg("watchers stopped")

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server shutdown")
	return nil
}
