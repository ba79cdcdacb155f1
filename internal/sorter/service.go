package sorter

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/litescript/ls-media-sorter/internal/anime"
	"github.com/litescript/ls-media-sorter/internal/config"
	"github.com/litescript/ls-media-sorter/internal/metrics"
	"github.com/litescript/ls-media-sorter/internal/plex"
	"github.com/litescript/ls-media-sorter/internal/watch"
)

// Service runs one watcher per configured media type, plus scheduled sweeps.
type Service struct {
	cfg     config.Config
	sorters []*Sorter
	log     zerolog.Logger

	mu       sync.Mutex
	watchers []*watch.Watcher
	cron     *cron.Cron
	sweepMu  sync.Mutex
}

// NewService builds a Sorter for every enabled category of cfg.
func NewService(cfg config.Config, c *anime.Classifier, m *metrics.Metrics, log zerolog.Logger) *Service {
	mover := plex.NewMover(plex.MoveConfig{DryRun: cfg.Watch.DryRun})

	s := &Service{cfg: cfg, log: log}
	for _, t := range config.MediaTypes() {
		cat := cfg.Category(t)
		if !cat.Enabled() {
			continue
		}
		opts := Options{
			WatchDir:       cat.Watch,
			Library:        cat.Library,
			Patterns:       cfg.Watch.Patterns,
			PruneEmptyDirs: cfg.Watch.PruneEmptyDirs,
			Mover:          mover,
			Metrics:        m,
		}
		if t == plex.MediaTypeAnime {
			s.sorters = append(s.sorters, NewAnime(c, opts))
		} else {
			s.sorters = append(s.sorters, NewFlat(t, opts))
		}
	}
	return s
}

// Sorters returns the configured sorters in dispatch order.
func (s *Service) Sorters() []*Sorter {
	return s.sorters
}

// SweepAll sweeps every drop directory once. Sweeps never overlap; a
// directory that cannot be read is logged and skipped.
func (s *Service) SweepAll(ctx context.Context) Summary {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()

	ctx = s.log.WithContext(ctx)

	var total Summary
	for _, so := range s.sorters {
		sum, err := so.Sweep(ctx, s.cfg.Watch.Recursive)
		total.Add(sum)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.log.Error().Err(err).Str("media_type", so.MediaType().String()).Msg("sweep failed")
			continue
		}
		if sum.Seen > 0 {
			s.log.Info().
				Str("media_type", so.MediaType().String()).
				Int("seen", sum.Seen).
				Int("moved", sum.Moved).
				Int("skipped", sum.Skipped).
				Int("failed", sum.Failed).
				Msg("sweep finished")
		}
	}
	return total
}

// Start sweeps once, then starts the watchers and the rescan schedule.
// Handlers run with ctx; cancel it and call Stop to shut down.
func (s *Service) Start(ctx context.Context) error {
	s.SweepAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, so := range s.sorters {
		so := so
		hctx := s.log.WithContext(ctx)
		w, err := watch.New(so.WatchDir(), watch.Options{
			Recursive: s.cfg.Watch.Recursive,
			Debounce:  s.cfg.Watch.Debounce,
			Logger:    s.log,
		}, func(path string) {
			_ = so.Handle(hctx, path)
		})
		if err != nil {
			s.stopLocked()
			return errors.Wrapf(err, "%s watcher", so.MediaType())
		}
		w.Start()
		s.watchers = append(s.watchers, w)
		s.log.Info().
			Str("media_type", so.MediaType().String()).
			Str("directory", so.WatchDir()).
			Msg("watching directory")
	}

	if schedule := s.cfg.Watch.Rescan; schedule != "" {
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := c.AddFunc(schedule, func() { s.SweepAll(ctx) }); err != nil {
			s.stopLocked()
			return errors.Wrapf(err, "rescan schedule %q", schedule)
		}
		c.Start()
		s.cron = c
	}
	return nil
}

// Stop halts the schedule and every watcher, waiting for running handlers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
	for _, w := range s.watchers {
		w.Stop()
	}
	s.watchers = nil
}
