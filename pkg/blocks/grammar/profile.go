// Package grammar holds the token tables that describe a target markup
// dialect. The serializer and the inline converter read every literal they
// emit from a Profile.
package grammar

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	MarkdownName = "markdown"
	TracName     = "trac"
)

// Placeholders understood by LinkTemplate, ImageTemplate and FenceLanguage.
const (
	PlaceholderURL      = "{url}"
	PlaceholderText     = "{text}"
	PlaceholderAlt      = "{alt}"
	PlaceholderLanguage = "{lang}"
)

var ErrInvalidProfile = errors.New("invalid grammar profile")

// Profile is the set of literal tokens defining one output dialect.
type Profile struct {
	Name string `yaml:"name" toml:"name"`
	// Extension is the file extension used for rendered files, without a dot.
	Extension string `yaml:"extension" toml:"extension"`

	// Inline delimiters.
	Bold         string `yaml:"bold" toml:"bold"`
	Italic       string `yaml:"italic" toml:"italic"`
	Code         string `yaml:"code" toml:"code"`
	LinkTemplate string `yaml:"linkTemplate" toml:"linkTemplate"`

	HeadingMarker string `yaml:"headingMarker" toml:"headingMarker"`
	QuotePrefix   string `yaml:"quotePrefix" toml:"quotePrefix"`
	RuleToken     string `yaml:"ruleToken" toml:"ruleToken"`

	FenceOpen  string `yaml:"fenceOpen" toml:"fenceOpen"`
	FenceClose string `yaml:"fenceClose" toml:"fenceClose"`
	// FenceLanguage is appended to FenceOpen when a code block has a language.
	FenceLanguage string `yaml:"fenceLanguage" toml:"fenceLanguage"`
	// FenceStretch lengthens single-rune fences so that they are longer than
	// any run of the same rune inside the code.
	FenceStretch bool `yaml:"fenceStretch" toml:"fenceStretch"`

	ListIndentUnit string `yaml:"listIndentUnit" toml:"listIndentUnit"`
	BulletMarker   string `yaml:"bulletMarker" toml:"bulletMarker"`

	// Optional capabilities. An empty template disables the block kind.
	ImageTemplate string `yaml:"imageTemplate" toml:"imageTemplate"`
	RawHTML       bool   `yaml:"rawHTML" toml:"rawHTML"`
	RawHTMLOpen   string `yaml:"rawHTMLOpen" toml:"rawHTMLOpen"`
	RawHTMLClose  string `yaml:"rawHTMLClose" toml:"rawHTMLClose"`

	TableRowOpen    string `yaml:"tableRowOpen" toml:"tableRowOpen"`
	TableCellSep    string `yaml:"tableCellSep" toml:"tableCellSep"`
	TableRowClose   string `yaml:"tableRowClose" toml:"tableRowClose"`
	TableHeaderRule string `yaml:"tableHeaderRule" toml:"tableHeaderRule"`
}

// Markdown is a CommonMark flavoured profile with GFM tables.
var Markdown = Profile{
	Name:            MarkdownName,
	Extension:       "md",
	Bold:            "**",
	Italic:          "*",
	Code:            "`",
	LinkTemplate:    "[{text}]({url})",
	HeadingMarker:   "#",
	QuotePrefix:     "> ",
	RuleToken:       "---",
	FenceOpen:       "```",
	FenceClose:      "```",
	FenceLanguage:   "{lang}",
	FenceStretch:    true,
	ListIndentUnit:  "   ",
	BulletMarker:    "-",
	ImageTemplate:   "![{alt}]({url})",
	RawHTML:         true,
	TableRowOpen:    "| ",
	TableCellSep:    " | ",
	TableRowClose:   " |",
	TableHeaderRule: "---",
}

// Trac is the wiki syntax used by Trac tickets.
var Trac = Profile{
	Name:           TracName,
	Extension:      "trac",
	Bold:           "**",
	Italic:         "//",
	Code:           "`",
	LinkTemplate:   "[{url} {text}]",
	HeadingMarker:  "=",
	QuotePrefix:    "> ",
	RuleToken:      "----",
	FenceOpen:      "{{{",
	FenceClose:     "}}}",
	FenceLanguage:  "#!{lang}",
	ListIndentUnit: "\t",
	BulletMarker:   "-",
	ImageTemplate:  "[[Image({url})]]",
	RawHTML:        true,
	RawHTMLOpen:    "{{{#!html",
	RawHTMLClose:   "}}}",
	TableRowOpen:   "|| ",
	TableCellSep:   " || ",
	TableRowClose:  " ||",
}

// Validate checks that every token the serializer depends on is present.
func (p *Profile) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"name", p.Name},
		{"bold", p.Bold},
		{"italic", p.Italic},
		{"code", p.Code},
		{"linkTemplate", p.LinkTemplate},
		{"headingMarker", p.HeadingMarker},
		{"quotePrefix", p.QuotePrefix},
		{"ruleToken", p.RuleToken},
		{"fenceOpen", p.FenceOpen},
		{"fenceClose", p.FenceClose},
		{"bulletMarker", p.BulletMarker},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Wrapf(ErrInvalidProfile, "%q: %s is empty", p.Name, r.name)
		}
	}
	if !strings.Contains(p.LinkTemplate, PlaceholderURL) {
		return errors.Wrapf(ErrInvalidProfile, "%q: linkTemplate has no %s placeholder", p.Name, PlaceholderURL)
	}
	if p.FenceLanguage != "" && !strings.Contains(p.FenceLanguage, PlaceholderLanguage) {
		return errors.Wrapf(ErrInvalidProfile, "%q: fenceLanguage has no %s placeholder", p.Name, PlaceholderLanguage)
	}
	return nil
}

// Link renders an anchor with the profile's link template.
func (p *Profile) Link(url, text string) string {
	return strings.NewReplacer(PlaceholderURL, url, PlaceholderText, text).Replace(p.LinkTemplate)
}

// Image renders an image reference. It returns false when the profile has
// no image syntax.
func (p *Profile) Image(url, alt string) (string, bool) {
	if p.ImageTemplate == "" {
		return "", false
	}
	return strings.NewReplacer(PlaceholderURL, url, PlaceholderAlt, alt).Replace(p.ImageTemplate), true
}

// Fence returns the opening and closing fence lines for code.
func (p *Profile) Fence(code, language string) (open, close string) {
	open, close = p.FenceOpen, p.FenceClose

	if p.FenceStretch {
		open = stretch(open, code)
		close = stretch(close, code)
	}

	if language != "" && p.FenceLanguage != "" {
		open += strings.ReplaceAll(p.FenceLanguage, PlaceholderLanguage, language)
	}
	return open, close
}

// HasTables reports whether the profile can express tables.
func (p *Profile) HasTables() bool {
	return p.TableCellSep != ""
}

// stretch grows a fence made of a single repeated rune until it is longer
// than the longest run of that rune in code.
func stretch(fence, code string) string {
	if fence == "" {
		return fence
	}
	r := []rune(fence)
	for _, c := range r[1:] {
		if c != r[0] {
			return fence
		}
	}

	longest, current := 0, 0
	for _, c := range code {
		if c == r[0] {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	if longest < len(r) {
		return fence
	}
	return strings.Repeat(string(r[0]), longest+1)
}
