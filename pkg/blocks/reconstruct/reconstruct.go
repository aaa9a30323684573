// Package reconstruct builds block trees from Markdown documents.
package reconstruct

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/stateful/blocky/pkg/blocks"
)

type Reconstructor struct {
	factory blocks.Factory
	logger  *zap.Logger
	md      goldmark.Markdown
}

type Option func(*Reconstructor)

// WithFactory sets the factory used to create every block.
func WithFactory(f blocks.Factory) Option {
	return func(r *Reconstructor) {
		r.factory = f
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Reconstructor) {
		r.logger = logger
	}
}

func New(opts ...Option) *Reconstructor {
	r := &Reconstructor{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Table),
			goldmark.WithExtensions(extension.Strikethrough),
		),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.factory == nil {
		r.factory = blocks.NewFactory()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// FromMarkdown parses source and maps the resulting document to blocks.
func (r *Reconstructor) FromMarkdown(source []byte) ([]*blocks.Block, error) {
	doc := r.md.Parser().Parse(text.NewReader(source))
	return r.FromAST(doc, source)
}

// FromAST maps an already parsed tree to blocks. For a document node the
// result holds one block per top-level child; any other node yields at most
// one block.
func (r *Reconstructor) FromAST(node ast.Node, source []byte) ([]*blocks.Block, error) {
	if node == nil {
		return nil, errors.New("nil node")
	}
	if node.Kind() == ast.KindDocument {
		return r.convertChildren(node, source)
	}

	b, err := r.convertBlock(node, source)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	return []*blocks.Block{b}, nil
}

func (r *Reconstructor) convertChildren(parent ast.Node, source []byte) ([]*blocks.Block, error) {
	var result []*blocks.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		b, err := r.convertBlock(n, source)
		if err != nil {
			return nil, err
		}
		if b != nil {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *Reconstructor) convertBlock(node ast.Node, source []byte) (*blocks.Block, error) {
	switch n := node.(type) {
	case *ast.Heading:
		content, err := inlineHTML(n, source)
		if err != nil {
			return nil, err
		}
		return r.factory.CreateBlock(blocks.Heading, blocks.Attributes{Level: n.Level, Content: content}, nil), nil

	case *ast.Paragraph, *ast.TextBlock:
		if img, ok := soleImage(n); ok {
			return r.factory.CreateBlock(blocks.Image, blocks.Attributes{
				URL: string(img.Destination),
				Alt: plainText(img, source),
			}, nil), nil
		}
		content, err := inlineHTML(n, source)
		if err != nil {
			return nil, err
		}
		return r.factory.CreateBlock(blocks.Paragraph, blocks.Attributes{Content: content}, nil), nil

	case *ast.Blockquote:
		children, err := r.convertChildren(n, source)
		if err != nil {
			return nil, err
		}
		return r.factory.CreateBlock(blocks.Quote, blocks.Attributes{}, children), nil

	case *ast.FencedCodeBlock:
		return r.factory.CreateBlock(blocks.Code, blocks.Attributes{
			Language: string(n.Language(source)),
			Content:  html.EscapeString(codeText(n, source)),
		}, nil), nil

	case *ast.CodeBlock:
		return r.factory.CreateBlock(blocks.Code, blocks.Attributes{
			Content: html.EscapeString(codeText(n, source)),
		}, nil), nil

	case *ast.List:
		attrs := blocks.Attributes{Ordered: n.IsOrdered()}
		if attrs.Ordered {
			attrs.Start = n.Start
		}
		children, err := r.convertChildren(n, source)
		if err != nil {
			return nil, err
		}
		return r.factory.CreateBlock(blocks.List, attrs, children), nil

	case *ast.ListItem:
		return r.convertListItem(n, source)

	case *ast.ThematicBreak:
		return r.factory.CreateBlock(blocks.Separator, blocks.Attributes{}, nil), nil

	case *ast.HTMLBlock:
		var buf bytes.Buffer
		writeLines(&buf, n.Lines(), source)
		if n.HasClosure() {
			_, _ = buf.Write(n.ClosureLine.Value(source))
		}
		return r.factory.CreateBlock(blocks.HTML, blocks.Attributes{
			Content: strings.TrimRight(buf.String(), "\r\n"),
		}, nil), nil

	case *east.Table:
		return r.convertTable(n, source)

	default:
		r.logger.Debug("skipping node", zap.String("kind", node.Kind().String()))
		return nil, nil
	}
}

// convertListItem uses the item's leading paragraph as its content. Every
// other child becomes a nested block.
func (r *Reconstructor) convertListItem(n *ast.ListItem, source []byte) (*blocks.Block, error) {
	var (
		attrs    blocks.Attributes
		children []*blocks.Block
	)

	first := true
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if first {
			first = false
			if c.Kind() == ast.KindParagraph || c.Kind() == ast.KindTextBlock {
				content, err := inlineHTML(c, source)
				if err != nil {
					return nil, err
				}
				attrs.Content = content
				continue
			}
		}

		b, err := r.convertBlock(c, source)
		if err != nil {
			return nil, err
		}
		if b != nil {
			children = append(children, b)
		}
	}

	return r.factory.CreateBlock(blocks.ListItem, attrs, children), nil
}

func (r *Reconstructor) convertTable(n *east.Table, source []byte) (*blocks.Block, error) {
	var attrs blocks.Attributes
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			content, err := inlineHTML(cell, source)
			if err != nil {
				return nil, err
			}
			cells = append(cells, content)
		}

		if row.Kind() == east.KindTableHeader {
			attrs.Head = append(attrs.Head, cells)
		} else {
			attrs.Body = append(attrs.Body, cells)
		}
	}
	return r.factory.CreateBlock(blocks.Table, attrs, nil), nil
}

func soleImage(n ast.Node) (*ast.Image, bool) {
	if n.ChildCount() != 1 {
		return nil, false
	}
	img, ok := n.FirstChild().(*ast.Image)
	return img, ok
}

func codeText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	writeLines(&buf, n.Lines(), source)
	return strings.TrimRight(buf.String(), "\n")
}

func writeLines(buf *bytes.Buffer, lines *text.Segments, source []byte) {
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = buf.Write(line.Value(source))
	}
}

// plainText concatenates the text of n's descendants.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			_, _ = b.Write(unescape(t.Segment.Value(source)))
		case *ast.String:
			_, _ = b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func unescape(v []byte) []byte {
	v = util.UnescapePunctuations(v)
	v = util.ResolveNumericReferences(v)
	return util.ResolveEntityNames(v)
}
