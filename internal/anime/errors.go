package anime

import (
	"github.com/pkg/errors"
)

// Classification failures. Every error returned by a Classifier wraps exactly
// one of these in a *ClassificationError.
var (
	ErrUnknownTag         = errors.New("unknown tag")
	ErrConventionNotFound = errors.New("convention not found")
	ErrNoTitleMatch       = errors.New("no title pattern matched")
	ErrNoEpisodeMatch     = errors.New("no episode pattern matched")
	ErrNoSeasonMatch      = errors.New("no season pattern matched")
	ErrUnclassifiable     = errors.New("unclassifiable filename")
)

// ClassificationError reports which filename failed and why.
type ClassificationError struct {
	Filename string
	// Tag is the bracketed tag found at the start of the filename, if any.
	Tag string
	Err error
}

func (e *ClassificationError) Error() string {
	if e.Tag != "" {
		return e.Err.Error() + " [" + e.Tag + "]: " + e.Filename
	}
	return e.Err.Error() + ": " + e.Filename
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

func fail(filename string, err error) error {
	return &ClassificationError{Filename: filename, Err: err}
}

// Reason returns a short label for a classification failure, or "" when err
// is not one.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(err, ErrConventionNotFound):
		return "convention_not_found"
	case errors.Is(err, ErrNoTitleMatch):
		return "no_title"
	case errors.Is(err, ErrNoEpisodeMatch):
		return "no_episode"
	case errors.Is(err, ErrNoSeasonMatch):
		return "no_season"
	case errors.Is(err, ErrUnclassifiable):
		return "unclassifiable"
	}
	return ""
}
