package grammar

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var ErrUnknownProfile = errors.New("unknown grammar profile")

// Registry maps profile names to profiles. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewRegistry returns a registry preloaded with the built-in profiles.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]*Profile)}
	markdown, trac := Markdown, Trac
	r.profiles[MarkdownName] = &markdown
	r.profiles[TracName] = &trac
	return r
}

// Register adds or replaces a profile after validating it.
func (r *Registry) Register(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[strings.ToLower(p.Name)] = &p
	return nil
}

// Lookup returns a copy of the named profile.
func (r *Registry) Lookup(name string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProfile, "%q", name)
	}
	clone := *p
	return &clone, nil
}

// Names returns registered profile names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Overrides lists token replacements applied on top of a base profile.
// Nil fields keep the base value.
type Overrides struct {
	Extension      *string `yaml:"extension" toml:"extension"`
	Bold           *string `yaml:"bold" toml:"bold"`
	Italic         *string `yaml:"italic" toml:"italic"`
	Code           *string `yaml:"code" toml:"code"`
	LinkTemplate   *string `yaml:"linkTemplate" toml:"linkTemplate"`
	HeadingMarker  *string `yaml:"headingMarker" toml:"headingMarker"`
	QuotePrefix    *string `yaml:"quotePrefix" toml:"quotePrefix"`
	RuleToken      *string `yaml:"ruleToken" toml:"ruleToken"`
	FenceOpen      *string `yaml:"fenceOpen" toml:"fenceOpen"`
	FenceClose     *string `yaml:"fenceClose" toml:"fenceClose"`
	FenceLanguage  *string `yaml:"fenceLanguage" toml:"fenceLanguage"`
	ListIndentUnit *string `yaml:"listIndentUnit" toml:"listIndentUnit"`
	BulletMarker   *string `yaml:"bulletMarker" toml:"bulletMarker"`
	ImageTemplate  *string `yaml:"imageTemplate" toml:"imageTemplate"`
}

// Derive registers a new profile named name, built from base with overrides
// applied, and returns it.
func (r *Registry) Derive(name, base string, o Overrides) (*Profile, error) {
	p, err := r.Lookup(base)
	if err != nil {
		return nil, err
	}
	p.Name = name

	apply := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&p.Extension, o.Extension)
	apply(&p.Bold, o.Bold)
	apply(&p.Italic, o.Italic)
	apply(&p.Code, o.Code)
	apply(&p.LinkTemplate, o.LinkTemplate)
	apply(&p.HeadingMarker, o.HeadingMarker)
	apply(&p.QuotePrefix, o.QuotePrefix)
	apply(&p.RuleToken, o.RuleToken)
	apply(&p.FenceOpen, o.FenceOpen)
	apply(&p.FenceClose, o.FenceClose)
	apply(&p.FenceLanguage, o.FenceLanguage)
	apply(&p.ListIndentUnit, o.ListIndentUnit)
	apply(&p.BulletMarker, o.BulletMarker)
	apply(&p.ImageTemplate, o.ImageTemplate)

	if err := r.Register(*p); err != nil {
		return nil, err
	}
	return r.Lookup(name)
}
