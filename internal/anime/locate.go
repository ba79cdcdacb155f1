package anime

import (
	"path/filepath"

	"github.com/litescript/ls-media-sorter/internal/plex"
)

// Location pairs a classified file with its place inside the anime library.
type Location struct {
	SourcePath              string
	DestinationRelativePath string // <title>/season_<season>/<filename>
	Result                  Result
}

// ClassifyAndLocate classifies filename and computes where it belongs relative
// to the library root. sourceDir is only joined, never read.
func (c *Classifier) ClassifyAndLocate(filename, sourceDir string) (Location, error) {
	res, err := c.Classify(filename)
	if err != nil {
		return Location{}, err
	}

	dir, err := plex.FormatSeasonDir(res.Title, res.Season)
	if err != nil {
		return Location{}, fail(filename, ErrNoTitleMatch)
	}

	base := filepath.Base(filename)
	return Location{
		SourcePath:              filepath.Join(sourceDir, base),
		DestinationRelativePath: filepath.Join(dir, base),
		Result:                  res,
	}, nil
}

// ClassifyAndLocate uses the built-in conventions.
func ClassifyAndLocate(filename, sourceDir string) (Location, error) {
	return defaultClassifier.ClassifyAndLocate(filename, sourceDir)
}
