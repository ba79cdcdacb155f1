// Package plex places media files into Plex libraries. It knows the library
// layout of each media type, which files count as media, and how to move a
// download into place.
package plex

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// MediaType is the library category a drop directory feeds.
type MediaType int

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeAnime
	MediaTypeMovie
	MediaTypeAnimatedMovie
)

// String returns the config key of the media type.
func (m MediaType) String() string {
	switch m {
	case MediaTypeAnime:
		return "anime"
	case MediaTypeMovie:
		return "movie"
	case MediaTypeAnimatedMovie:
		return "animated_movie"
	default:
		return "unknown"
	}
}

// ErrUnknownMediaType indicates a media type name was not recognized.
var ErrUnknownMediaType = errors.New("unknown media type")

// ParseMediaType is the inverse of MediaType.String.
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "anime":
		return MediaTypeAnime, nil
	case "movie", "movies":
		return MediaTypeMovie, nil
	case "animated_movie", "animated-movie", "animated_movies":
		return MediaTypeAnimatedMovie, nil
	}
	return MediaTypeUnknown, errors.Wrapf(ErrUnknownMediaType, "%q", s)
}

// DefaultVideoPatterns are the file patterns picked up from drop directories.
var DefaultVideoPatterns = []string{"*.mp4", "*.mkv"}

// MatchesPatterns reports whether the base name of path matches any of the
// glob patterns, ignoring case. Malformed patterns never match.
func MatchesPatterns(path string, patterns []string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, p := range patterns {
		if ok, err := filepath.Match(strings.ToLower(p), name); err == nil && ok {
			return true
		}
	}
	return false
}
