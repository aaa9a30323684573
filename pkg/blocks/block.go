// Package blocks defines the structured document model consumed by the
// serializer and produced by the reconstructor.
package blocks

import (
	"strings"

	"github.com/stateful/blocky/pkg/blocks/numbering"
)

// Kind is the closed set of block kinds understood by the engine.
type Kind int

const (
	Unsupported Kind = iota
	Quote
	Code
	Heading
	HTML
	Image
	List
	ListItem
	Missing
	Paragraph
	Table
	Separator
)

const hostNamespace = "core/"

var kindNames = [...]string{
	Unsupported: "unsupported",
	Quote:       "quote",
	Code:        "code",
	Heading:     "heading",
	HTML:        "html",
	Image:       "image",
	List:        "list",
	ListItem:    "list-item",
	Missing:     "missing",
	Paragraph:   "paragraph",
	Table:       "table",
	Separator:   "separator",
}

// Kinds returns every kind, Unsupported included.
func Kinds() []Kind {
	result := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		result = append(result, Kind(k))
	}
	return result
}

// Name returns the bare kind name, e.g. "list-item".
func (k Kind) Name() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[Unsupported]
	}
	return kindNames[k]
}

// String returns the host block name, e.g. "core/list-item".
func (k Kind) String() string {
	return hostNamespace + k.Name()
}

// ParseKind accepts host names ("core/quote") and bare names ("quote").
// Anything else is Unsupported.
func ParseKind(name string) Kind {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), hostNamespace)
	for k, n := range kindNames {
		if n == name && Kind(k) != Unsupported {
			return Kind(k)
		}
	}
	return Unsupported
}

// Supported reports whether the engine renders k in at least one grammar.
func Supported(k Kind) bool {
	return k != Unsupported
}

// Attributes holds the kind-dependent fields of a block. Fields that do not
// apply to a block's kind are ignored.
type Attributes struct {
	// Content is a rich-text fragment for paragraph, heading, quote,
	// list-item, code and html blocks.
	Content string

	// Heading.
	Level int

	// List.
	Ordered        bool
	NumberingStyle numbering.Style
	// Start is the first ordinal of an ordered list. Values below 1 mean
	// "not set" and number from 1.
	Start int

	// Code.
	Language string

	// Image.
	URL string
	Alt string

	// Table rows; every cell is a rich-text fragment.
	Head [][]string
	Body [][]string
}

// Block is a node in the document tree. Children order is significant.
type Block struct {
	ClientID   string
	Kind       Kind
	Attributes Attributes
	Children   []*Block
}

// Walk visits b and its descendants depth-first. Returning false from fn
// skips the children of that block.
func Walk(bs []*Block, fn func(b *Block, depth int) bool) {
	walk(bs, 0, fn)
}

func walk(bs []*Block, depth int, fn func(b *Block, depth int) bool) {
	for _, b := range bs {
		if b == nil {
			continue
		}
		if fn(b, depth) {
			walk(b.Children, depth+1, fn)
		}
	}
}

// Prune returns a copy of the tree without unsupported blocks (and their
// subtrees).
func Prune(bs []*Block) []*Block {
	var result []*Block
	for _, b := range bs {
		if b == nil || !Supported(b.Kind) {
			continue
		}
		clone := *b
		clone.Children = Prune(b.Children)
		result = append(result, &clone)
	}
	return result
}

// Count returns the number of blocks in the tree.
func Count(bs []*Block) (n int) {
	Walk(bs, func(*Block, int) bool {
		n++
		return true
	})
	return n
}
