// Package logging sets up zerolog for the sorter: a console or JSON writer on
// stderr, and optionally a log file rotated every midnight.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Options selects level, output format and file sink.
type Options struct {
	Level   string
	Format  string // console or json
	File    string
	Backups int
	// Stderr overrides the terminal writer, mostly for tests.
	Stderr io.Writer
}

// Setup builds the root logger. The returned closer stops rotation and closes
// the log file; it is never nil.
func Setup(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	var out io.Writer = stderr
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.DateTime}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rf, err := OpenRotatingFile(opts.File, opts.Backups)
		if err != nil {
			return zerolog.Nop(), closer, errors.Wrap(err, "open log file")
		}
		if err := rf.StartDaily(); err != nil {
			rf.Close()
			return zerolog.Nop(), closer, err
		}
		closer = rf
		out = zerolog.MultiLevelWriter(out, rf)
	}

	log := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()

	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
