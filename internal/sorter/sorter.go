// Package sorter moves files from drop directories into Plex libraries. Each
// media type gets a Sorter: anime episodes are classified to find their
// season directory, movies keep their name at the library root.
package sorter

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/litescript/ls-media-sorter/internal/anime"
	"github.com/litescript/ls-media-sorter/internal/metrics"
	"github.com/litescript/ls-media-sorter/internal/plex"
)

// ErrNotMedia is returned by Handle for files outside the configured patterns.
var ErrNotMedia = errors.New("not a media file")

// Placement is where a file goes inside its library.
type Placement struct {
	RelativePath string

	// Set for anime only.
	Convention string
	Title      string
	Season     int
	Episode    int
}

// LocateFunc computes the placement of filename found in dir.
type LocateFunc func(filename, dir string) (Placement, error)

// Options are shared by every Sorter.
type Options struct {
	WatchDir       string
	Library        string
	Patterns       []string
	PruneEmptyDirs bool
	Mover          *plex.Mover
	Metrics        *metrics.Metrics
}

// Sorter handles the files of one drop directory.
type Sorter struct {
	mediaType plex.MediaType
	opts      Options
	locate    LocateFunc
}

// New creates a Sorter using locate to place files.
func New(mediaType plex.MediaType, opts Options, locate LocateFunc) *Sorter {
	if len(opts.Patterns) == 0 {
		opts.Patterns = plex.DefaultVideoPatterns
	}
	if opts.Mover == nil {
		opts.Mover = plex.NewMover(plex.MoveConfig{})
	}
	return &Sorter{mediaType: mediaType, opts: opts, locate: locate}
}

// NewAnime creates the anime Sorter: <library>/<title>/season_<n>/<file>.
func NewAnime(c *anime.Classifier, opts Options) *Sorter {
	m := opts.Metrics
	return New(plex.MediaTypeAnime, opts, func(filename, dir string) (Placement, error) {
		loc, err := c.ClassifyAndLocate(filename, dir)
		if err != nil {
			m.Classified("none", anime.Reason(err))
			return Placement{}, err
		}
		m.Classified(loc.Result.Convention, "ok")
		return Placement{
			RelativePath: loc.DestinationRelativePath,
			Convention:   loc.Result.Convention,
			Title:        loc.Result.Title,
			Season:       loc.Result.Season,
			Episode:      loc.Result.Episode,
		}, nil
	})
}

// NewFlat creates a Sorter that keeps files under their own name at the
// library root, used for movies and animated movies.
func NewFlat(mediaType plex.MediaType, opts Options) *Sorter {
	return New(mediaType, opts, func(filename, _ string) (Placement, error) {
		rel, err := plex.FormatFlatPath(filename)
		if err != nil {
			return Placement{}, err
		}
		return Placement{RelativePath: rel}, nil
	})
}

// MediaType returns the library category.
func (s *Sorter) MediaType() plex.MediaType {
	return s.mediaType
}

// WatchDir returns the drop directory.
func (s *Sorter) WatchDir() string {
	return s.opts.WatchDir
}

// Handle places a single file. Failures are logged and returned; the file is
// left where it is.
func (s *Sorter) Handle(ctx context.Context, path string) error {
	mt := s.mediaType.String()
	log := zerolog.Ctx(ctx).With().
		Str("event_id", uuid.NewString()).
		Str("media_type", mt).
		Str("file", filepath.Base(path)).
		Logger()

	if !plex.MatchesPatterns(path, s.opts.Patterns) {
		log.Debug().Msg("ignoring non-media file")
		return ErrNotMedia
	}

	dir := filepath.Dir(path)
	placement, err := s.locate(filepath.Base(path), dir)
	if err != nil {
		s.opts.Metrics.File(mt, metrics.OutcomeUnmatched)
		log.Warn().Err(err).Msg("unable to place file, leaving it in place")
		return err
	}

	ev := log.Debug().Str("destination", placement.RelativePath)
	if placement.Convention != "" {
		ev = ev.Str("convention", placement.Convention).
			Str("title", placement.Title).
			Int("season", placement.Season).
			Int("episode", placement.Episode)
	}
	ev.Msg("file classified")

	res, err := s.opts.Mover.Move(ctx, path, s.opts.Library, placement.RelativePath)
	if err != nil {
		if plex.IsRecoverable(err) {
			s.opts.Metrics.File(mt, metrics.OutcomeSkipped)
			log.Info().Err(err).Msg("file already handled")
			return err
		}
		s.opts.Metrics.File(mt, metrics.OutcomeFailed)
		log.Error().Err(err).Msg("unable to move file")
		return err
	}

	s.opts.Metrics.File(mt, metrics.OutcomeMoved)
	s.opts.Metrics.Moved(mt, res.BytesMoved)
	log.Info().
		Str("destination", res.DestinationPath).
		Bool("dry_run", res.DryRun).
		Msg("file moved")

	if s.opts.PruneEmptyDirs && !res.DryRun && dir != filepath.Clean(s.opts.WatchDir) {
		plex.CleanupEmptyParents(dir, s.opts.WatchDir)
	}
	return nil
}

// Summary counts the outcome of a sweep.
type Summary struct {
	Seen    int
	Moved   int
	Skipped int
	Failed  int
}

// Add merges o into s.
func (s *Summary) Add(o Summary) {
	s.Seen += o.Seen
	s.Moved += o.Moved
	s.Skipped += o.Skipped
	s.Failed += o.Failed
}

// Sweep handles every media file currently in the drop directory. A failing
// file never stops the sweep; only a missing drop directory or a cancelled
// context returns an error.
func (s *Sorter) Sweep(ctx context.Context, recursive bool) (Summary, error) {
	var sum Summary

	files, err := s.listFiles(recursive)
	if err != nil {
		return sum, err
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Seen++
		err := s.Handle(ctx, path)
		switch {
		case err == nil:
			sum.Moved++
		case plex.IsRecoverable(err):
			sum.Skipped++
		default:
			sum.Failed++
		}
	}
	return sum, nil
}

func (s *Sorter) listFiles(recursive bool) ([]string, error) {
	root := s.opts.WatchDir
	var files []string

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", root)
		}
		for _, e := range entries {
			p := filepath.Join(root, e.Name())
			if e.Type().IsRegular() && plex.MatchesPatterns(p, s.opts.Patterns) {
				files = append(files, p)
			}
		}
		return files, nil
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if d.Type().IsRegular() && plex.MatchesPatterns(p, s.opts.Patterns) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %s", root)
	}
	return files, nil
}
