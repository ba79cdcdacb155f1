package plex

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidInput indicates the input cannot be processed for naming.
var ErrInvalidInput = errors.New("invalid input for naming")

// FormatSeasonDir generates the library directory for an anime season.
// Returns: "Title/season_N"
func FormatSeasonDir(title string, season int) (string, error) {
	name := SanitizeFilename(title)
	if name == "" || name == "." || name == ".." {
		return "", errors.Wrapf(ErrInvalidInput, "title %q", title)
	}
	if season < 0 {
		return "", errors.Wrapf(ErrInvalidInput, "season %d", season)
	}
	return filepath.Join(name, "season_"+strconv.Itoa(season)), nil
}

// FormatFlatPath generates the library path for media kept at the library
// root under its original name (movies, animated movies).
func FormatFlatPath(filename string) (string, error) {
	name := SanitizeFilename(filepath.Base(filename))
	if name == "" || name == "." || name == ".." {
		return "", errors.Wrapf(ErrInvalidInput, "filename %q", filename)
	}
	return name, nil
}

// SanitizeFilename makes name usable as a single path element: separators
// become dashes, control characters are dropped and surrounding spaces
// trimmed.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune('-')
		case r < 0x20 || r == 0x7f:
			// drop
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
