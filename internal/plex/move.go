package plex

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// Move operation errors.
var (
	ErrSourceNotFound    = errors.New("source file not found")
	ErrDestinationExists = errors.New("destination already exists")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrPathEscape        = errors.New("path escapes allowed directory")
	ErrNotAFile          = errors.New("source is not a regular file")
)

// IsRecoverable reports whether err is an expected race between concurrent
// events for the same path: the source already moved, or the destination
// already filled. Such failures are skipped, not fatal.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrSourceNotFound) || errors.Is(err, ErrDestinationExists)
}

// MoveConfig holds configuration for media file operations.
type MoveConfig struct {
	DryRun  bool        // If true, report the move without touching the filesystem
	DirMode os.FileMode // Mode for created library directories, 0755 when zero
}

// MoveResult contains the outcome of a move operation.
type MoveResult struct {
	SourcePath      string
	DestinationPath string
	BytesMoved      int64
	Renamed         bool // moved by a single rename rather than copy+remove
	DryRun          bool
}

// Mover relocates files from drop directories into libraries.
type Mover struct {
	config MoveConfig
}

// NewMover creates a new Mover with the given configuration.
func NewMover(config MoveConfig) *Mover {
	if config.DirMode == 0 {
		config.DirMode = 0755
	}
	return &Mover{config: config}
}

// Move relocates sourcePath to libraryRoot/relPath, creating directories as
// needed. It never overwrites an existing destination.
func (m *Mover) Move(ctx context.Context, sourcePath, libraryRoot, relPath string) (*MoveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dest := filepath.Join(libraryRoot, relPath)
	if err := ValidatePath(dest, libraryRoot); err != nil {
		return nil, errors.Wrapf(err, "%s", dest)
	}

	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, statError(err, sourcePath)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Wrapf(ErrNotAFile, "%s", sourcePath)
	}

	if _, err := os.Lstat(dest); err == nil {
		return nil, errors.Wrapf(ErrDestinationExists, "%s", dest)
	}

	result := &MoveResult{
		SourcePath:      sourcePath,
		DestinationPath: dest,
		BytesMoved:      info.Size(),
		DryRun:          m.config.DryRun,
	}
	if m.config.DryRun {
		return result, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), m.config.DirMode); err != nil {
		return nil, errors.Wrap(statError(err, filepath.Dir(dest)), "create directory")
	}

	renamed, err := moveFile(sourcePath, dest)
	if err != nil {
		return nil, err
	}
	result.Renamed = renamed
	return result, nil
}

// moveFile renames src to dst, falling back to copy+remove across
// filesystems.
func moveFile(src, dst string) (bool, error) {
	err := os.Rename(src, dst)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return false, statError(err, src)
	}

	if err := copyFile(src, dst); err != nil {
		return false, err
	}

	// Remove the source only after a complete copy
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return false, statError(err, src)
	}
	return false, nil
}

// copyFile copies src to a new file dst, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return statError(err, src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.WithStack(err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return errors.Wrapf(ErrDestinationExists, "%s", dst)
		}
		return errors.WithStack(err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dst)
		return errors.WithStack(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return errors.WithStack(err)
	}
	return nil
}

func statError(err error, path string) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errors.Wrapf(ErrSourceNotFound, "%s", path)
	case errors.Is(err, fs.ErrPermission):
		return errors.Wrapf(ErrPermissionDenied, "%s", path)
	default:
		return errors.WithStack(err)
	}
}

// CleanupEmptyParents removes empty directories from dir upward, stopping at
// (and never removing) root.
func CleanupEmptyParents(dir, root string) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return
	}
	for {
		absDir, err := filepath.Abs(dir)
		if err != nil || absDir == absRoot || ValidatePath(absDir, absRoot) != nil {
			return
		}
		entries, err := os.ReadDir(absDir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(absDir); err != nil {
			return
		}
		dir = filepath.Dir(absDir)
	}
}

// ValidatePath checks that a path is safe and within allowed boundaries.
func ValidatePath(path, allowedBase string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.WithStack(err)
	}
	absBase, err := filepath.Abs(allowedBase)
	if err != nil {
		return errors.WithStack(err)
	}

	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ErrPathEscape
	}
	return nil
}
