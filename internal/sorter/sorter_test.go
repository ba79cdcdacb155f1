package sorter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-media-sorter/internal/anime"
	"github.com/litescript/ls-media-sorter/internal/config"
	"github.com/litescript/ls-media-sorter/internal/metrics"
	"github.com/litescript/ls-media-sorter/internal/plex"
)

const (
	seasonOne   = "[SubsPlease] Kimetsu no Yaiba - Hashira Geiko-hen - 04 (1080p) [0D0CBE3D].mkv"
	seasonThree = "[SubsPlease] Kono Subarashii Sekai ni Shukufuku wo! S3 - 015 (1080p) [D6088444].mkv"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("video"), 0644))
}

func testContext() context.Context {
	return zerolog.Nop().WithContext(context.Background())
}

func TestHandle_Anime(t *testing.T) {
	t.Parallel()

	drop, library := t.TempDir(), t.TempDir()
	m := metrics.New(prometheus.NewRegistry())
	s := NewAnime(anime.Default(), Options{WatchDir: drop, Library: library, Metrics: m})

	src := filepath.Join(drop, seasonThree)
	touch(t, src)

	require.NoError(t, s.Handle(testContext(), src))
	assert.NoFileExists(t, src)
	assert.FileExists(t, filepath.Join(library, "Kono Subarashii Sekai ni Shukufuku wo!", "season_3", seasonThree))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Files.WithLabelValues("anime", metrics.OutcomeMoved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classification.WithLabelValues("SubsPlease", "ok")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.BytesMoved.WithLabelValues("anime")))
}

func TestHandle_Unclassifiable(t *testing.T) {
	t.Parallel()

	drop, library := t.TempDir(), t.TempDir()
	m := metrics.New(prometheus.NewRegistry())
	s := NewAnime(anime.Default(), Options{WatchDir: drop, Library: library, Metrics: m})

	src := filepath.Join(drop, "[Unknown] Show - 01 [x].mkv")
	touch(t, src)

	err := s.Handle(testContext(), src)
	assert.True(t, errors.Is(err, anime.ErrUnknownTag))
	assert.FileExists(t, src)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Files.WithLabelValues("anime", metrics.OutcomeUnmatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classification.WithLabelValues("none", "unknown_tag")))
}

func TestHandle_NotMedia(t *testing.T) {
	t.Parallel()

	drop := t.TempDir()
	s := NewFlat(plex.MediaTypeMovie, Options{WatchDir: drop, Library: t.TempDir()})

	src := filepath.Join(drop, "movie.mkv.part")
	touch(t, src)

	assert.True(t, errors.Is(s.Handle(testContext(), src), ErrNotMedia))
	assert.FileExists(t, src)
}

func TestHandle_Flat(t *testing.T) {
	t.Parallel()

	drop, library := t.TempDir(), t.TempDir()
	s := NewFlat(plex.MediaTypeAnimatedMovie, Options{WatchDir: drop, Library: library, PruneEmptyDirs: true})

	src := filepath.Join(drop, "Spirited Away (2001)", "Spirited Away (2001).mp4")
	touch(t, src)

	require.NoError(t, s.Handle(testContext(), src))
	assert.FileExists(t, filepath.Join(library, "Spirited Away (2001).mp4"))
	assert.NoDirExists(t, filepath.Join(drop, "Spirited Away (2001)"))
	assert.DirExists(t, drop)
}

func TestHandle_DestinationExists(t *testing.T) {
	t.Parallel()

	drop, library := t.TempDir(), t.TempDir()
	m := metrics.New(prometheus.NewRegistry())
	s := NewFlat(plex.MediaTypeMovie, Options{WatchDir: drop, Library: library, Metrics: m})

	src := filepath.Join(drop, "movie.mkv")
	touch(t, src)
	touch(t, filepath.Join(library, "movie.mkv"))

	err := s.Handle(testContext(), src)
	assert.True(t, plex.IsRecoverable(err))
	assert.FileExists(t, src)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Files.WithLabelValues("movie", metrics.OutcomeSkipped)))
}

func TestHandle_DryRun(t *testing.T) {
	t.Parallel()

	drop, library := t.TempDir(), t.TempDir()
	s := NewAnime(anime.Default(), Options{
		WatchDir: drop,
		Library:  library,
		Mover:    plex.NewMover(plex.MoveConfig{DryRun: true}),
	})

	src := filepath.Join(drop, seasonOne)
	touch(t, src)

	require.NoError(t, s.Handle(testContext(), src))
	assert.FileExists(t, src)
	assert.NoDirExists(t, filepath.Join(library, "Kimetsu no Yaiba - Hashira Geiko-hen"))
}

func TestSweep(t *testing.T) {
	t.Parallel()

	drop, library := t.TempDir(), t.TempDir()
	s := NewAnime(anime.Default(), Options{WatchDir: drop, Library: library})

	touch(t, filepath.Join(drop, seasonOne))
	touch(t, filepath.Join(drop, "nested", seasonThree))
	touch(t, filepath.Join(drop, "[Unknown] Show - 01 [x].mkv"))
	touch(t, filepath.Join(drop, "notes.txt"))

	sum, err := s.Sweep(testContext(), false)
	require.NoError(t, err)
	assert.Equal(t, Summary{Seen: 2, Moved: 1, Failed: 1}, sum)
	assert.FileExists(t, filepath.Join(library, "Kimetsu no Yaiba - Hashira Geiko-hen", "season_1", seasonOne))

	sum, err = s.Sweep(testContext(), true)
	require.NoError(t, err)
	assert.Equal(t, Summary{Seen: 2, Moved: 1, Failed: 1}, sum)
	assert.FileExists(t, filepath.Join(library, "Kono Subarashii Sekai ni Shukufuku wo!", "season_3", seasonThree))
	assert.FileExists(t, filepath.Join(drop, "notes.txt"))
}

func TestSweep_MissingDir(t *testing.T) {
	t.Parallel()

	s := NewFlat(plex.MediaTypeMovie, Options{WatchDir: filepath.Join(t.TempDir(), "missing"), Library: t.TempDir()})

	_, err := s.Sweep(testContext(), false)
	assert.Error(t, err)
	_, err = s.Sweep(testContext(), true)
	assert.Error(t, err)
}

func TestSweep_Cancelled(t *testing.T) {
	t.Parallel()

	drop := t.TempDir()
	s := NewFlat(plex.MediaTypeMovie, Options{WatchDir: drop, Library: t.TempDir()})
	touch(t, filepath.Join(drop, "movie.mkv"))

	ctx, cancel := context.WithCancel(testContext())
	cancel()

	sum, err := s.Sweep(ctx, false)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, Summary{}, sum)
	assert.FileExists(t, filepath.Join(drop, "movie.mkv"))
}

func serviceConfig(t *testing.T) (config.Config, string, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Anime = config.CategoryConfig{Watch: filepath.Join(root, "dl", "anime"), Library: filepath.Join(root, "plex", "anime")}
	cfg.Movie = config.CategoryConfig{Watch: filepath.Join(root, "dl", "movies"), Library: filepath.Join(root, "plex", "movies")}
	cfg.Watch.Debounce = 50 * time.Millisecond
	cfg.Watch.Rescan = ""
	for _, d := range []string{cfg.Anime.Watch, cfg.Anime.Library, cfg.Movie.Watch, cfg.Movie.Library} {
		require.NoError(t, os.MkdirAll(d, 0755))
	}
	return cfg, cfg.Anime.Watch, cfg.Movie.Watch
}

func TestNewService(t *testing.T) {
	t.Parallel()

	cfg, _, _ := serviceConfig(t)
	svc := NewService(cfg, anime.Default(), nil, zerolog.Nop())

	var types []plex.MediaType
	for _, s := range svc.Sorters() {
		types = append(types, s.MediaType())
	}
	assert.Equal(t, []plex.MediaType{plex.MediaTypeAnime, plex.MediaTypeMovie}, types)
}

func TestService_SweepAll(t *testing.T) {
	t.Parallel()

	cfg, animeDrop, movieDrop := serviceConfig(t)
	touch(t, filepath.Join(animeDrop, seasonOne))
	touch(t, filepath.Join(movieDrop, "movie.mkv"))

	svc := NewService(cfg, anime.Default(), nil, zerolog.Nop())
	sum := svc.SweepAll(context.Background())

	assert.Equal(t, Summary{Seen: 2, Moved: 2}, sum)
	assert.FileExists(t, filepath.Join(cfg.Movie.Library, "movie.mkv"))
}

func TestService_DryRun(t *testing.T) {
	t.Parallel()

	cfg, _, movieDrop := serviceConfig(t)
	cfg.Watch.DryRun = true
	touch(t, filepath.Join(movieDrop, "movie.mkv"))

	svc := NewService(cfg, anime.Default(), nil, zerolog.Nop())
	sum := svc.SweepAll(context.Background())

	assert.Equal(t, Summary{Seen: 1, Moved: 1}, sum)
	assert.FileExists(t, filepath.Join(movieDrop, "movie.mkv"))
}

func TestService_Watch(t *testing.T) {
	t.Parallel()

	cfg, animeDrop, _ := serviceConfig(t)
	touch(t, filepath.Join(animeDrop, seasonOne))

	svc := NewService(cfg, anime.Default(), nil, zerolog.Nop())
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop()

	// Picked up by the initial sweep.
	assert.FileExists(t, filepath.Join(cfg.Anime.Library, "Kimetsu no Yaiba - Hashira Geiko-hen", "season_1", seasonOne))

	touch(t, filepath.Join(animeDrop, seasonThree))
	dest := filepath.Join(cfg.Anime.Library, "Kono Subarashii Sekai ni Shukufuku wo!", "season_3", seasonThree)
	require.Eventually(t, func() bool {
		_, err := os.Stat(dest)
		return err == nil
	}, 5*time.Second, 25*time.Millisecond)
}

func TestService_BadRescan(t *testing.T) {
	t.Parallel()

	cfg, _, _ := serviceConfig(t)
	cfg.Watch.Rescan = "not a schedule"

	svc := NewService(cfg, anime.Default(), nil, zerolog.Nop())
	assert.Error(t, svc.Start(context.Background()))
	svc.Stop()
}
