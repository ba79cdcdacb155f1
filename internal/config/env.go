package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/ini.v1"
)

// Environment variables recognized as overrides, named after the torrent
// client drop directories and Plex libraries they point at.
const (
	EnvAnimeWatch      = "QBITORRENT_ANIME_PATH"
	EnvAnimeLibrary    = "PLEX_ANIME_PATH"
	EnvMovieWatch      = "QBITORRENT_MOVIE_PATH"
	EnvMovieLibrary    = "PLEX_MOVIE_PATH"
	EnvAnimatedWatch   = "QBITORRENT_ANIMATED_MOVIE_PATH"
	EnvAnimatedLibrary = "PLEX_ANIMATED_MOVIE_PATH"
	EnvLogLevel        = "MEDIA_SORTER_LOG_LEVEL"
	EnvLogFile         = "MEDIA_SORTER_LOG_FILE"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with every variable lookup finds set.
func ApplyEnv(cfg *Config, lookup LookupFunc) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&cfg.Anime.Watch, EnvAnimeWatch)
	set(&cfg.Anime.Library, EnvAnimeLibrary)
	set(&cfg.Movie.Watch, EnvMovieWatch)
	set(&cfg.Movie.Library, EnvMovieLibrary)
	set(&cfg.AnimatedMovie.Watch, EnvAnimatedWatch)
	set(&cfg.AnimatedMovie.Library, EnvAnimatedLibrary)
	set(&cfg.Log.Level, EnvLogLevel)
	set(&cfg.Log.File, EnvLogFile)
}

// LoadEnvFile reads KEY=VALUE lines (a docker style env file) and exports
// every key not already present in the process environment.
func LoadEnvFile(path string) error {
	f, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment:       true,
		UnescapeValueDoubleQuotes: true,
	}, path)
	if err != nil {
		return errors.Wrapf(err, "load env file %s", path)
	}

	for _, key := range f.Section(ini.DefaultSection).Keys() {
		if _, exists := os.LookupEnv(key.Name()); exists {
			continue
		}
		if err := os.Setenv(key.Name(), key.Value()); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
