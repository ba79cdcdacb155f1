// Package config handles application configuration via TOML files.
// Configuration is stored at ~/.config/media-sorter/config.toml and holds the
// drop and library directories of each media type, watcher tuning, the
// health server address and logging settings. Environment variables override
// the file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/litescript/ls-media-sorter/internal/plex"
)

// Config holds application configuration
type Config struct {
	Anime         CategoryConfig `toml:"anime"`
	Movie         CategoryConfig `toml:"movie"`
	AnimatedMovie CategoryConfig `toml:"animated_movie"`
	Watch         WatchConfig    `toml:"watch"`
	Server        ServerConfig   `toml:"server"`
	Log           LogConfig      `toml:"log"`
}

// CategoryConfig pairs a drop directory with the library it feeds.
type CategoryConfig struct {
	// Watch is the directory the torrent client drops finished files into.
	Watch string `toml:"watch"`

	// Library is the Plex library root files are moved to.
	// Example: /media/plex/Anime
	Library string `toml:"library"`
}

// Enabled reports whether the category has a drop directory.
func (c CategoryConfig) Enabled() bool {
	return c.Watch != ""
}

// WatchConfig tunes the drop directory listeners
type WatchConfig struct {
	Patterns  []string      `toml:"patterns"`
	Recursive bool          `toml:"recursive"`
	Debounce  time.Duration `toml:"debounce"`

	// Rescan is a cron schedule for periodic sweeps of every drop directory.
	// Empty disables them.
	Rescan string `toml:"rescan"`

	// PruneEmptyDirs removes directories left empty under a drop directory
	// after their files were moved.
	PruneEmptyDirs bool `toml:"prune_empty_dirs"`

	DryRun bool `toml:"dry_run"`
}

// ServerConfig holds the health check server address
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console or json

	// File is the log file path; empty disables file logging.
	File    string `toml:"file"`
	Backups int    `toml:"backups"`
}

// Errors returned by Validate.
var (
	ErrNoCategories   = errors.New("no media category has a watch directory")
	ErrMissingLibrary = errors.New("library directory is not set")
	ErrInvalidPort    = errors.New("invalid server port")
)

// Default returns the default configuration
func Default() Config {
	return Config{
		Watch: WatchConfig{
			Patterns:       append([]string(nil), plex.DefaultVideoPatterns...),
			Recursive:      true,
			Debounce:       2 * time.Second,
			Rescan:         "@every 15m",
			PruneEmptyDirs: true,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 1234,
		},
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			File:    "qbitorrent_dl_manager.log",
			Backups: 7,
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "media-sorter", "config.toml")
}

// Load reads config from path (ConfigPath when empty), or returns defaults
// when the file does not exist. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, errors.Wrapf(err, "parse %s", path)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file, keep defaults
	default:
		return cfg, errors.Wrapf(err, "read %s", path)
	}

	ApplyEnv(&cfg, os.LookupEnv)
	return cfg, nil
}

// Save writes config to path
func Save(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.WithStack(err)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	return errors.WithStack(toml.NewEncoder(f).Encode(cfg))
}

// Category returns the settings of one media type.
func (c *Config) Category(t plex.MediaType) CategoryConfig {
	switch t {
	case plex.MediaTypeAnime:
		return c.Anime
	case plex.MediaTypeMovie:
		return c.Movie
	case plex.MediaTypeAnimatedMovie:
		return c.AnimatedMovie
	}
	return CategoryConfig{}
}

// MediaTypes lists every media type in dispatch order.
func MediaTypes() []plex.MediaType {
	return []plex.MediaType{plex.MediaTypeAnime, plex.MediaTypeMovie, plex.MediaTypeAnimatedMovie}
}

// Validate checks the configuration is usable by the watchers.
func (c *Config) Validate() error {
	enabled := 0
	for _, t := range MediaTypes() {
		cat := c.Category(t)
		if !cat.Enabled() {
			continue
		}
		enabled++
		if cat.Library == "" {
			return errors.Wrapf(ErrMissingLibrary, "%s", t)
		}
	}
	if enabled == 0 {
		return ErrNoCategories
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Wrapf(ErrInvalidPort, "%d", c.Server.Port)
	}
	return nil
}

// EnsureLibraryDirs creates the library directory of every enabled category.
func EnsureLibraryDirs(cfg Config) error {
	for _, t := range MediaTypes() {
		cat := cfg.Category(t)
		if !cat.Enabled() {
			continue
		}
		if err := os.MkdirAll(cat.Library, 0755); err != nil {
			return errors.Wrapf(err, "%s library", t)
		}
	}
	return nil
}
