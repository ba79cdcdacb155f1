package anime

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// tagPattern picks the bracketed release tag off the front of a filename.
var tagPattern = regexp.MustCompile(`^\[(.*?)\]`)

var spacePattern = regexp.MustCompile(`\s+`)

// Result is the classification of a single filename.
type Result struct {
	SourceName string
	Convention string
	Title      string
	Season     int
	Episode    int
	Extension  string
	HasSeason  bool
}

// Classifier resolves filenames against a Registry.
type Classifier struct {
	registry *Registry
}

// New creates a Classifier over registry.
func New(registry *Registry) *Classifier {
	return &Classifier{registry: registry}
}

var defaultClassifier = New(DefaultRegistry())

// Default returns a Classifier over the built-in conventions.
func Default() *Classifier {
	return defaultClassifier
}

// Registry returns the conventions the classifier walks.
func (c *Classifier) Registry() *Registry {
	return c.registry
}

// DetectConvention returns the profile responsible for filename. A leading
// bracketed tag commits to tag lookup; the untagged fallback is only tried
// when there is no tag at all.
func (c *Classifier) DetectConvention(filename string) (*Profile, error) {
	name := strings.TrimSpace(filename)

	if m := tagPattern.FindStringSubmatch(name); m != nil {
		p, ok := c.registry.LookupByTag(m[1])
		if !ok {
			return nil, &ClassificationError{Filename: filename, Tag: m[1], Err: ErrUnknownTag}
		}
		return p, nil
	}

	fb := c.registry.Fallback()
	if fb == nil || !fb.Detector.MatchString(name) {
		return nil, fail(filename, ErrConventionNotFound)
	}
	return fb, nil
}

// ExtractTitle returns the series title, trying the with-season shape first.
func (c *Classifier) ExtractTitle(filename string) (string, error) {
	p, err := c.DetectConvention(filename)
	if err != nil {
		return "", err
	}

	s, groups := p.match(strings.TrimSpace(filename))
	if s == nil {
		return "", fail(filename, ErrNoTitleMatch)
	}
	title, ok := p.title(s, groups)
	if !ok {
		return "", fail(filename, ErrNoTitleMatch)
	}
	return title, nil
}

// ExtractEpisode returns the episode number. The first shape that matches
// decides; if it does not capture an episode the call fails.
func (c *Classifier) ExtractEpisode(filename string) (int, error) {
	p, err := c.DetectConvention(filename)
	if err != nil {
		return 0, err
	}

	s, groups := p.match(strings.TrimSpace(filename))
	if s == nil {
		return 0, fail(filename, ErrNoEpisodeMatch)
	}
	ep, ok := number(field(groups, s.Episode))
	if !ok {
		return 0, fail(filename, ErrNoEpisodeMatch)
	}
	return ep, nil
}

// ExtractSeason returns the season number from the with-season shape only.
// Filenames without a season marker fail here; callers default them to 1.
func (c *Classifier) ExtractSeason(filename string) (int, error) {
	p, err := c.DetectConvention(filename)
	if err != nil {
		return 0, err
	}

	groups := p.WithSeason.find(strings.TrimSpace(filename))
	if groups == nil {
		return 0, fail(filename, ErrNoSeasonMatch)
	}
	season, ok := seasonNumber(field(groups, p.WithSeason.Season))
	if !ok {
		return 0, fail(filename, ErrNoSeasonMatch)
	}
	return season, nil
}

// HasSeason reports whether filename matches its convention's with-season
// shape.
func (c *Classifier) HasSeason(filename string) (bool, error) {
	p, err := c.DetectConvention(filename)
	if err != nil {
		return false, err
	}
	return p.WithSeason.find(strings.TrimSpace(filename)) != nil, nil
}

// VerifyNoSeason reports whether filename resolves through its convention's
// no-season shape. A with-season match takes priority, so a name both shapes
// accept is not a no-season name.
func (c *Classifier) VerifyNoSeason(filename string) (bool, error) {
	p, err := c.DetectConvention(filename)
	if err != nil {
		return false, err
	}
	name := strings.TrimSpace(filename)
	if p.WithSeason.find(name) != nil {
		return false, nil
	}
	return p.NoSeason.find(name) != nil, nil
}

// Classify resolves filename into a Result. Identical input always yields
// identical output.
func (c *Classifier) Classify(filename string) (Result, error) {
	p, err := c.DetectConvention(filename)
	if err != nil {
		return Result{}, err
	}
	name := strings.TrimSpace(filename)

	res := Result{
		SourceName: filename,
		Convention: p.ID,
		Season:     1,
		Extension:  filepath.Ext(name),
	}

	s := p.WithSeason
	groups := s.find(name)
	if groups != nil {
		res.HasSeason = true
		season, ok := seasonNumber(field(groups, s.Season))
		if !ok {
			return Result{}, fail(filename, ErrNoSeasonMatch)
		}
		res.Season = season
	} else {
		s = p.NoSeason
		if groups = s.find(name); groups == nil {
			return Result{}, fail(filename, ErrUnclassifiable)
		}
	}

	title, ok := p.title(s, groups)
	if !ok {
		return Result{}, fail(filename, ErrNoTitleMatch)
	}
	res.Title = title

	ep, ok := number(field(groups, s.Episode))
	if !ok {
		return Result{}, fail(filename, ErrNoEpisodeMatch)
	}
	res.Episode = ep

	return res, nil
}

// Classify resolves filename against the built-in conventions.
func Classify(filename string) (Result, error) {
	return defaultClassifier.Classify(filename)
}

// match tries the with-season shape, then the no-season shape.
func (p *Profile) match(name string) (*Shape, []string) {
	if groups := p.WithSeason.find(name); groups != nil {
		return p.WithSeason, groups
	}
	if groups := p.NoSeason.find(name); groups != nil {
		return p.NoSeason, groups
	}
	return nil, nil
}

func (p *Profile) title(s *Shape, groups []string) (string, bool) {
	raw, ok := field(groups, s.Title)
	if !ok {
		return "", false
	}
	if p.NormalizeTitle {
		raw = strings.NewReplacer(".", " ", "_", " ").Replace(raw)
		raw = spacePattern.ReplaceAllString(raw, " ")
	}
	title := strings.TrimSpace(raw)
	return title, title != ""
}

// find returns the submatches of name, or nil. A nil shape never matches.
func (s *Shape) find(name string) []string {
	if s == nil {
		return nil
	}
	return s.Pattern.FindStringSubmatch(name)
}

func field(groups []string, idx int) (string, bool) {
	if idx == NotApplicable || idx >= len(groups) {
		return "", false
	}
	return groups[idx], true
}

// number parses a run of decimal digits. Leading zeros are dropped.
func number(s string, ok bool) (int, bool) {
	if !ok || s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// seasonNumber parses a season field such as "S03" or "s3".
func seasonNumber(s string, ok bool) (int, bool) {
	return number(strings.TrimLeft(strings.TrimSpace(s), "Ss"), ok)
}
