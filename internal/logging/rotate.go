package logging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// backupLayout suffixes rotated files: app.log.2024-05-01
const backupLayout = "2006-01-02"

// RotatingFile is an append-only log file that Rotate moves aside under a
// dated name, keeping at most Backups old files.
type RotatingFile struct {
	path    string
	backups int

	mu   sync.Mutex
	file *os.File
	cron *cron.Cron
	now  func() time.Time
}

// OpenRotatingFile opens (or creates) path for appending.
func OpenRotatingFile(path string, backups int) (*RotatingFile, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	r := &RotatingFile{path: path, backups: backups, now: time.Now}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RotatingFile) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	r.file = f
	return nil
}

// Write implements io.Writer.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return 0, os.ErrClosed
	}
	return r.file.Write(p)
}

// StartDaily schedules Rotate at every midnight.
func (r *RotatingFile) StartDaily() error {
	c := cron.New()
	if _, err := c.AddFunc("@midnight", func() { _ = r.Rotate() }); err != nil {
		return errors.WithStack(err)
	}
	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()
	c.Start()
	return nil
}

// Rotate renames the current file to its dated backup name, reopens a fresh
// file and prunes backups beyond the limit. The date is the day that just
// ended.
func (r *RotatingFile) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		if err := r.file.Close(); err != nil {
			return errors.WithStack(err)
		}
		r.file = nil
	}

	stamp := r.now().Add(-time.Minute).Format(backupLayout)
	backup := r.path + "." + stamp
	if _, err := os.Stat(backup); err == nil {
		backup = backup + "." + r.now().Format("150405")
	}
	if err := os.Rename(r.path, backup); err != nil && !os.IsNotExist(err) {
		_ = r.open()
		return errors.WithStack(err)
	}

	if err := r.open(); err != nil {
		return err
	}
	return r.prune()
}

// prune removes the oldest backups beyond the configured count.
func (r *RotatingFile) prune() error {
	if r.backups <= 0 {
		return nil
	}
	matches, err := filepath.Glob(r.path + ".*")
	if err != nil {
		return errors.WithStack(err)
	}
	backups := matches[:0]
	for _, m := range matches {
		suffix := strings.TrimPrefix(m, r.path+".")
		if _, err := time.Parse(backupLayout, suffix[:min(len(suffix), len(backupLayout))]); err == nil {
			backups = append(backups, m)
		}
	}
	if len(backups) <= r.backups {
		return nil
	}
	// Dated names sort chronologically.
	sort.Strings(backups)
	for _, old := range backups[:len(backups)-r.backups] {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return errors.WithStack(err)
		}
	}
	return nil
}

// Close stops rotation and closes the file.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return errors.WithStack(err)
}
