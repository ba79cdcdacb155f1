package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/ls-media-sorter/internal/plex"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvAnimeWatch, EnvAnimeLibrary,
		EnvMovieWatch, EnvMovieLibrary,
		EnvAnimatedWatch, EnvAnimatedLibrary,
		EnvLogLevel, EnvLogFile,
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[anime]
watch = "/downloads/anime"
library = "/plex/Anime"

[watch]
debounce = "5s"
recursive = false

[server]
port = 8080
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/downloads/anime", cfg.Anime.Watch)
	assert.Equal(t, "/plex/Anime", cfg.Anime.Library)
	assert.Equal(t, 5*time.Second, cfg.Watch.Debounce)
	assert.False(t, cfg.Watch.Recursive)
	assert.Equal(t, 8080, cfg.Server.Port)

	// Untouched keys keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, plex.DefaultVideoPatterns, cfg.Watch.Patterns)
	assert.Equal(t, "@every 15m", cfg.Watch.Rescan)
	assert.False(t, cfg.Movie.Enabled())
}

func TestLoad_Missing(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_Malformed(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[anime\nwatch ="), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAnimeWatch, "/env/anime")
	t.Setenv(EnvAnimeLibrary, "/env/plex")
	t.Setenv(EnvLogLevel, "debug")

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[anime]\nwatch = \"/file/anime\"\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/anime", cfg.Anime.Watch)
	assert.Equal(t, "/env/plex", cfg.Anime.Library)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvMovieWatch:      "/dl/movies",
		EnvMovieLibrary:    "/plex/Movies",
		EnvAnimatedLibrary: "",
		EnvLogFile:         "/var/log/sorter.log",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	cfg.AnimatedMovie.Library = "/keep"
	ApplyEnv(&cfg, lookup)

	assert.Equal(t, "/dl/movies", cfg.Movie.Watch)
	assert.Equal(t, "/plex/Movies", cfg.Movie.Library)
	assert.Equal(t, "/keep", cfg.AnimatedMovie.Library)
	assert.Equal(t, "/var/log/sorter.log", cfg.Log.File)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvFile(t *testing.T) {
	const (
		fresh  = "MEDIA_SORTER_TEST_FRESH"
		quoted = "MEDIA_SORTER_TEST_QUOTED"
		taken  = "MEDIA_SORTER_TEST_TAKEN"
	)
	t.Setenv(taken, "from-process")
	t.Cleanup(func() {
		os.Unsetenv(fresh)
		os.Unsetenv(quoted)
	})

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"# paths\n"+
			fresh+"=/downloads/anime\n"+
			quoted+"=\"/plex/My Anime #1\"\n"+
			taken+"=from-file\n",
	), 0644))

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "/downloads/anime", os.Getenv(fresh))
	assert.Equal(t, "/plex/My Anime #1", os.Getenv(quoted))
	assert.Equal(t, "from-process", os.Getenv(taken))

	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestSave_RoundTrip(t *testing.T) {
	clearEnv(t)

	cfg := Default()
	cfg.Anime = CategoryConfig{Watch: "/dl/anime", Library: "/plex/Anime"}
	cfg.Watch.Debounce = 3 * time.Second
	cfg.Watch.DryRun = true

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, Save(cfg, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.True(t, errors.Is(cfg.Validate(), ErrNoCategories))

	cfg.Movie.Watch = "/dl/movies"
	assert.True(t, errors.Is(cfg.Validate(), ErrMissingLibrary))

	cfg.Movie.Library = "/plex/Movies"
	assert.NoError(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.True(t, errors.Is(cfg.Validate(), ErrInvalidPort))
}

func TestCategory(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Anime.Watch = "a"
	cfg.Movie.Watch = "m"
	cfg.AnimatedMovie.Watch = "am"

	assert.Equal(t, "a", cfg.Category(plex.MediaTypeAnime).Watch)
	assert.Equal(t, "m", cfg.Category(plex.MediaTypeMovie).Watch)
	assert.Equal(t, "am", cfg.Category(plex.MediaTypeAnimatedMovie).Watch)
	assert.False(t, cfg.Category(plex.MediaTypeUnknown).Enabled())
}

func TestEnsureLibraryDirs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	cfg := Default()
	cfg.Anime = CategoryConfig{Watch: "/dl", Library: filepath.Join(root, "Anime")}
	cfg.Movie = CategoryConfig{Library: filepath.Join(root, "Movies")}

	require.NoError(t, EnsureLibraryDirs(cfg))
	assert.DirExists(t, filepath.Join(root, "Anime"))
	assert.NoDirExists(t, filepath.Join(root, "Movies"))
}
