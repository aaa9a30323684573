// Package inline flattens rich-text fragments into grammar-specific inline
// text.
package inline

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/stateful/blocky/pkg/blocks/grammar"
)

// Converter substitutes bold, italic, code and anchor spans with the
// delimiters of a profile and strips any other markup.
type Converter struct {
	profile *grammar.Profile
}

func New(profile *grammar.Profile) *Converter {
	return &Converter{profile: profile}
}

// Convert turns the fragment into plain text. Unbalanced markup is handled
// by the HTML parser's recovery rules and never fails.
func (c *Converter) Convert(fragment string) string {
	if fragment == "" {
		return ""
	}
	// Fast path for fragments without markup or character references.
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}

	doc, ok := parseFragment(fragment)
	if !ok {
		return fragment
	}

	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(textNode("\n"))
	})

	wrap := func(selector, delim string) {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			s.PrependNodes(textNode(delim))
			s.AppendNodes(textNode(delim))
		})
	}
	wrap("b, strong", c.profile.Bold)
	wrap("i, em", c.profile.Italic)
	wrap("code", c.profile.Code)

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		s.ReplaceWithNodes(textNode(c.profile.Link(href, s.Text())))
	})

	return doc.Text()
}

func parseFragment(fragment string) (*goquery.Document, bool) {
	root := &html.Node{
		Type:     html.ElementNode,
		Data:     atom.Div.String(),
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), root)
	if err != nil {
		return nil, false
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return goquery.NewDocumentFromNode(root), true
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
