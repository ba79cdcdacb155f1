// Package anime classifies anime release filenames. A Registry holds the naming
// conventions of known release groups; a Classifier walks it to pull the series
// title, season and episode out of a filename.
//
// The package is pure: no filesystem access, no environment, no logging. All
// values are immutable after construction and safe for concurrent use.
package anime

import (
	"regexp"

	"github.com/pkg/errors"
)

// NotApplicable marks a field a Shape never captures.
const NotApplicable = 0

// Shape is one capturing pattern of a convention together with the capture
// group index of each field it carries.
type Shape struct {
	Pattern *regexp.Regexp
	Title   int
	Season  int
	Episode int
}

// Profile describes the naming convention of one release group or style.
type Profile struct {
	ID string

	// WithSeason matches filenames carrying a season marker, NoSeason those
	// without. Either may be nil when the convention never uses that shape.
	WithSeason *Shape
	NoSeason   *Shape

	// NormalizeTitle turns dots and underscores of the captured title into
	// spaces.
	NormalizeTitle bool

	// Detector recognizes untagged filenames. Only set on fallback profiles.
	Detector *regexp.Regexp
}

// Tagged reports whether the profile is selected by a bracketed tag.
func (p *Profile) Tagged() bool {
	return p.Detector == nil
}

// Registry is an immutable set of conventions: tagged profiles keyed by their
// tag, and one untagged fallback.
type Registry struct {
	byTag    map[string]*Profile
	ordered  []*Profile
	fallback *Profile
}

// NewRegistry builds a registry. Tagged profile ids must be unique; fallback
// may be nil, in which case untagged filenames never match.
func NewRegistry(fallback *Profile, profiles ...*Profile) (*Registry, error) {
	r := &Registry{byTag: make(map[string]*Profile, len(profiles))}

	for _, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if !p.Tagged() {
			return nil, errors.Errorf("profile %q: untagged profile registered as tagged", p.ID)
		}
		if _, dup := r.byTag[p.ID]; dup {
			return nil, errors.Errorf("profile %q: duplicate id", p.ID)
		}
		r.byTag[p.ID] = p
		r.ordered = append(r.ordered, p)
	}

	if fallback != nil {
		if err := fallback.validate(); err != nil {
			return nil, err
		}
		if fallback.Tagged() {
			return nil, errors.Errorf("profile %q: fallback has no detector", fallback.ID)
		}
		r.fallback = fallback
	}

	return r, nil
}

// LookupByTag returns the profile registered under tag.
func (r *Registry) LookupByTag(tag string) (*Profile, bool) {
	p, ok := r.byTag[tag]
	return p, ok
}

// Fallback returns the untagged profile, or nil.
func (r *Registry) Fallback() *Profile {
	return r.fallback
}

// Profiles returns the tagged profiles in registration order.
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (p *Profile) validate() error {
	if p.ID == "" {
		return errors.New("profile without id")
	}
	if p.WithSeason == nil && p.NoSeason == nil {
		return errors.Errorf("profile %q: no patterns", p.ID)
	}
	if s := p.WithSeason; s != nil {
		if err := s.validate(); err != nil {
			return errors.Wrapf(err, "profile %q with-season", p.ID)
		}
		if s.Season == NotApplicable {
			return errors.Errorf("profile %q: with-season pattern captures no season", p.ID)
		}
	}
	if s := p.NoSeason; s != nil {
		if err := s.validate(); err != nil {
			return errors.Wrapf(err, "profile %q no-season", p.ID)
		}
	}
	return nil
}

func (s *Shape) validate() error {
	if s.Pattern == nil {
		return errors.New("missing pattern")
	}
	n := s.Pattern.NumSubexp()
	if s.Title == NotApplicable {
		return errors.New("title field not captured")
	}
	fields := []struct {
		name string
		idx  int
	}{{"title", s.Title}, {"season", s.Season}, {"episode", s.Episode}}
	for _, f := range fields {
		if f.idx < 0 || f.idx > n {
			return errors.Errorf("%s field %d out of range (pattern has %d groups)", f.name, f.idx, n)
		}
	}
	return nil
}

// Built-in conventions.

// parenthesizedResolution is the "[Group] Title S2 - 05 (1080p) [CRC32].mkv"
// style.
func parenthesizedResolution(id string) *Profile {
	return &Profile{
		ID: id,
		WithSeason: &Shape{
			Pattern: regexp.MustCompile(`^\[.*?\]\s(.+?)\s*(S\d+)\s-\s(\d*)\s\(\d+p\)\s\[.*?\]\W\w+$`),
			Title:   1,
			Season:  2,
			Episode: 3,
		},
		NoSeason: &Shape{
			Pattern: regexp.MustCompile(`^\[.*?\]\s(.+)\s-\s(\d*)\s\(\d+p\)\s\[.*?\]\W\w+$`),
			Title:   1,
			Episode: 2,
		},
	}
}

// bracketedResolution is the "[Group] Title S2 - 05v2 [1080p ...][...].mkv"
// style.
func bracketedResolution(id string) *Profile {
	return &Profile{
		ID: id,
		WithSeason: &Shape{
			Pattern: regexp.MustCompile(`^\[.*?\]\s(.+?)\s*(S\d+)\s-\s(\d*)(?:v\d+)?\s\[\d+p[^\]]*\].*\.\w+$`),
			Title:   1,
			Season:  2,
			Episode: 3,
		},
		NoSeason: &Shape{
			Pattern: regexp.MustCompile(`^\[.*?\]\s(.+)\s-\s(\d*)(?:v\d+)?\s\[\d+p[^\]]*\].*\.\w+$`),
			Title:   1,
			Episode: 2,
		},
	}
}

// compactEpisodeCode is the "[Group] Title - S04E123 [codec][subs].mkv" style.
// Without the code only a title can be recovered.
func compactEpisodeCode(id string) *Profile {
	return &Profile{
		ID: id,
		WithSeason: &Shape{
			Pattern: regexp.MustCompile(`^\[.*?\]\s(.+?)[\s-]*(S\d+)E(\d+)\s\[.*?\]\W\w+$`),
			Title:   1,
			Season:  2,
			Episode: 3,
		},
		NoSeason: &Shape{
			Pattern: regexp.MustCompile(`^\[.*?\]\s(.+?)\s\[.*?\]\W\w+$`),
			Title:   1,
			Episode: NotApplicable,
		},
	}
}

// untaggedRelease is the "Show.Title.S01E05.1080p.WEB.mkv" scene style.
func untaggedRelease(id string) *Profile {
	return &Profile{
		ID: id,
		WithSeason: &Shape{
			Pattern: regexp.MustCompile(`(?i)^(.+?)[.\s_-]+(S\d+)E(\d+)(?:[.\s_-].*)?\.\w+$`),
			Title:   1,
			Season:  2,
			Episode: 3,
		},
		NormalizeTitle: true,
		Detector:       regexp.MustCompile(`(?i)^.+?[.\s_-]+S\d+E\d+`),
	}
}

// UntaggedID is the id of the built-in fallback profile.
const UntaggedID = "Untagged"

var defaultRegistry = mustRegistry(NewRegistry(
	untaggedRelease(UntaggedID),
	parenthesizedResolution("SubsPlease"),
	compactEpisodeCode("NeoLX"),
	bracketedResolution("Erai-raws"),
	bracketedResolution("ASW"),
))

func mustRegistry(r *Registry, err error) *Registry {
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRegistry returns the built-in conventions.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
