// Media sorter watches download directories and moves finished files into
// the matching Plex library. Anime episodes are classified from their release
// filename to find the show and season directory.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/litescript/ls-media-sorter/internal/config"
	"github.com/litescript/ls-media-sorter/internal/logging"
	"github.com/litescript/ls-media-sorter/internal/version"
)

// app holds the state shared by every command once flags are parsed.
type app struct {
	cfgFile   string
	envFile   string
	logLevel  string
	logFormat string

	cfg config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "media-sorter",
		Short: "Move finished downloads into Plex libraries",
		Long: `media-sorter watches the download directories of qBittorrent and moves
every finished video into its Plex library. Anime episodes land in
<library>/<title>/season_<n>/, movies at the library root.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: "+config.ConfigPath()+")")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file with path overrides")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")

	root.AddCommand(serveCmd(a))
	root.AddCommand(sweepCmd(a))
	root.AddCommand(classifyCmd())
	root.AddCommand(initCmd(a))
	root.AddCommand(versionCmd())

	return root
}

// load reads the env file and config, then applies flag overrides.
func (a *app) load(cmd *cobra.Command) error {
	if a.envFile != "" {
		if err := config.LoadEnvFile(a.envFile); err != nil {
			return err
		}
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg
	return nil
}

// logger builds the root logger. Long running commands also write the
// rotating log file.
func (a *app) logger(withFile bool) (zerolog.Logger, io.Closer, error) {
	opts := logging.Options{
		Level:  a.cfg.Log.Level,
		Format: a.cfg.Log.Format,
	}
	if withFile {
		opts.File = a.cfg.Log.File
		opts.Backups = a.cfg.Log.Backups
	}
	return logging.Setup(opts)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "media-sorter v%s\n", version.Version)
		},
	}
}

func initCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the defaults and environment overrides",
		// An explicit --config path does not exist yet, skip loading it.
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if a.envFile != "" {
				if err := config.LoadEnvFile(a.envFile); err != nil {
					return err
				}
			}
			a.cfg = config.Default()
			config.ApplyEnv(&a.cfg, os.LookupEnv)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfgFile
			if path == "" {
				path = config.ConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.Save(a.cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
