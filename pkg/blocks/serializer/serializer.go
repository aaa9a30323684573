// Package serializer renders block trees into grammar-specific markup.
package serializer

import (
	"path"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/stateful/blocky/pkg/blocks"
	"github.com/stateful/blocky/pkg/blocks/grammar"
	"github.com/stateful/blocky/pkg/blocks/inline"
	"github.com/stateful/blocky/pkg/blocks/numbering"
)

// Serializer renders blocks with a fixed grammar profile. It is immutable
// after New and safe for concurrent use; every Render call gets its own
// render state.
type Serializer struct {
	profile *grammar.Profile
	inline  *inline.Converter
	logger  *zap.Logger
	sniff   bool
}

type Option func(*Serializer)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Serializer) {
		s.logger = logger
	}
}

// WithLanguageSniffing enables guessing the language of code blocks that
// declare none from their first line (a PHP open tag or a shebang).
func WithLanguageSniffing(enabled bool) Option {
	return func(s *Serializer) {
		s.sniff = enabled
	}
}

func New(profile *grammar.Profile, opts ...Option) *Serializer {
	p := *profile
	s := &Serializer{
		profile: &p,
		inline:  inline.New(&p),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Profile returns a copy of the serializer's profile.
func (s *Serializer) Profile() grammar.Profile {
	return *s.profile
}

type listFrame struct {
	bullet  bool
	style   numbering.Style
	counter int
}

type renderState struct {
	indentDepth    int
	listStyleStack []*listFrame
	path           []int
	errs           error
}

func (st *renderState) top() *listFrame {
	if len(st.listStyleStack) == 0 {
		return nil
	}
	return st.listStyleStack[len(st.listStyleStack)-1]
}

// Render converts blocks into a single string. Blocks that cannot be
// rendered produce no output; their failures are combined into the
// returned error while the rest of the document is still rendered.
func (s *Serializer) Render(bs []*blocks.Block) (string, error) {
	st := &renderState{}
	out := s.renderBlocks(st, bs)
	return out, st.errs
}

func (s *Serializer) renderBlocks(st *renderState, bs []*blocks.Block) string {
	var b strings.Builder
	for i, block := range bs {
		st.path = append(st.path, i)
		_, _ = b.WriteString(s.renderBlock(st, block))
		st.path = st.path[:len(st.path)-1]
	}
	return trimNewlines(b.String())
}

func (s *Serializer) renderBlock(st *renderState, block *blocks.Block) string {
	if block == nil {
		return ""
	}

	switch block.Kind {
	case blocks.Paragraph:
		return s.renderParagraph(block)
	case blocks.Heading:
		return s.renderHeading(st, block)
	case blocks.Quote:
		return s.renderQuote(st, block)
	case blocks.Code:
		return s.renderCode(block)
	case blocks.List:
		return s.renderList(st, block)
	case blocks.ListItem:
		return s.renderListItem(st, block)
	case blocks.Separator:
		return "\n" + s.profile.RuleToken + "\n\n"
	case blocks.Image:
		return s.renderImage(st, block)
	case blocks.HTML:
		return s.renderHTML(block)
	case blocks.Table:
		return s.renderTable(block)
	case blocks.Missing, blocks.Unsupported:
		return ""
	default:
		return ""
	}
}

func (s *Serializer) renderParagraph(block *blocks.Block) string {
	return s.inline.Convert(block.Attributes.Content) + "\n\n"
}

func (s *Serializer) renderHeading(st *renderState, block *blocks.Block) string {
	level := block.Attributes.Level
	if level < 1 {
		s.degraded(st, block, "heading level below one", zap.Int("level", level))
		return ""
	}
	return strings.Repeat(s.profile.HeadingMarker, level) + " " + s.inline.Convert(block.Attributes.Content) + "\n\n"
}

// renderQuote prefixes every line of the quote's body with the quote
// marker. Nested quotes get the marker once per level.
func (s *Serializer) renderQuote(st *renderState, block *blocks.Block) string {
	var parts []string
	if content := s.inline.Convert(block.Attributes.Content); content != "" {
		parts = append(parts, content)
	}
	if children := s.renderBlocks(st, block.Children); children != "" {
		parts = append(parts, children)
	}
	if len(parts) == 0 {
		return ""
	}

	lines := strings.Split(strings.Join(parts, "\n\n"), "\n")
	for i, l := range lines {
		lines[i] = s.profile.QuotePrefix + l
	}
	return strings.Join(lines, "\n") + "\n\n"
}

func (s *Serializer) renderCode(block *blocks.Block) string {
	code := s.inline.Convert(block.Attributes.Content)

	language := block.Attributes.Language
	if language == "" && s.sniff {
		language = sniffLanguage(code)
	}

	open, closing := s.profile.Fence(code, language)
	return open + "\n" + code + "\n" + closing + "\n\n"
}

func (s *Serializer) renderList(st *renderState, block *blocks.Block) string {
	frame := &listFrame{
		bullet:  !block.Attributes.Ordered,
		style:   block.Attributes.NumberingStyle,
		counter: block.Attributes.Start,
	}
	if frame.counter < 1 {
		frame.counter = 1
	}

	st.listStyleStack = append(st.listStyleStack, frame)
	st.indentDepth++
	list := s.renderBlocks(st, block.Children)
	st.indentDepth--
	st.listStyleStack = st.listStyleStack[:len(st.listStyleStack)-1]

	return list + "\n\n"
}

func (s *Serializer) renderListItem(st *renderState, block *blocks.Block) string {
	frame := st.top()
	if frame == nil {
		s.degraded(st, block, "list item outside of a list")
		return ""
	}

	label := s.profile.BulletMarker
	if !frame.bullet {
		var err error
		label, err = numbering.Label(frame.style, frame.counter)
		if err != nil {
			frame.counter++
			s.fail(st, block, err)
			return ""
		}
	}
	frame.counter++

	var b strings.Builder
	_, _ = b.WriteString(strings.Repeat(s.profile.ListIndentUnit, st.indentDepth))
	_, _ = b.WriteString(label)
	_ = b.WriteByte(' ')
	_, _ = b.WriteString(s.inline.Convert(block.Attributes.Content))
	_ = b.WriteByte('\n')

	if children := s.renderItemChildren(st, block.Children); children != "" {
		_, _ = b.WriteString(children)
		_ = b.WriteByte('\n')
	}
	return b.String()
}

// renderItemChildren renders the blocks nested in a list item. Nested lists
// carry their own indentation; every other block is indented one level
// deeper than the item and set off from its text by a blank line.
func (s *Serializer) renderItemChildren(st *renderState, children []*blocks.Block) string {
	pad := strings.Repeat(s.profile.ListIndentUnit, st.indentDepth+1)

	var parts []string
	for i, child := range children {
		st.path = append(st.path, i)
		out := trimNewlines(s.renderBlock(st, child))
		st.path = st.path[:len(st.path)-1]

		if out == "" {
			continue
		}
		if child.Kind != blocks.List {
			out = indentLines(out, pad)
			if len(parts) == 0 {
				out = "\n" + out
			}
		}
		parts = append(parts, out)
	}
	return strings.Join(parts, "\n\n")
}

func indentLines(s, pad string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}

func (s *Serializer) renderImage(st *renderState, block *blocks.Block) string {
	if block.Attributes.URL == "" {
		s.degraded(st, block, "image without url")
		return ""
	}
	img, ok := s.profile.Image(block.Attributes.URL, block.Attributes.Alt)
	if !ok {
		return ""
	}
	return img + "\n\n"
}

func (s *Serializer) renderHTML(block *blocks.Block) string {
	content := trimNewlines(block.Attributes.Content)
	if !s.profile.RawHTML || content == "" {
		return ""
	}
	if s.profile.RawHTMLOpen == "" {
		return content + "\n\n"
	}
	return s.profile.RawHTMLOpen + "\n" + content + "\n" + s.profile.RawHTMLClose + "\n\n"
}

func (s *Serializer) renderTable(block *blocks.Block) string {
	if !s.profile.HasTables() {
		return ""
	}

	head, body := block.Attributes.Head, block.Attributes.Body
	if s.profile.TableHeaderRule != "" && len(head) == 0 && len(body) > 0 {
		head, body = body[:1], body[1:]
	}
	if len(head) == 0 && len(body) == 0 {
		return ""
	}

	var b strings.Builder
	row := func(cells []string) {
		_, _ = b.WriteString(s.profile.TableRowOpen)
		_, _ = b.WriteString(strings.Join(cells, s.profile.TableCellSep))
		_, _ = b.WriteString(s.profile.TableRowClose)
		_ = b.WriteByte('\n')
	}
	convert := func(cells []string) []string {
		result := make([]string, len(cells))
		for i, c := range cells {
			result[i] = s.inline.Convert(c)
		}
		return result
	}

	for _, cells := range head {
		row(convert(cells))
	}
	if s.profile.TableHeaderRule != "" && len(head) > 0 {
		rule := make([]string, len(head[0]))
		for i := range rule {
			rule[i] = s.profile.TableHeaderRule
		}
		row(rule)
	}
	for _, cells := range body {
		row(convert(cells))
	}
	return b.String() + "\n"
}

func trimNewlines(s string) string {
	return strings.Trim(s, "\r\n")
}

// sniffLanguage guesses a code block's language from its first line.
func sniffLanguage(code string) string {
	if strings.HasPrefix(code, "<?php") {
		return "php"
	}
	if !strings.HasPrefix(code, "#!") {
		return ""
	}

	firstLine, _, _ := strings.Cut(code[2:], "\n")
	fields := strings.Fields(firstLine)
	if len(fields) == 0 {
		return ""
	}
	interpreter := path.Base(fields[0])
	if interpreter == "env" && len(fields) > 1 {
		interpreter = path.Base(fields[1])
	}
	return interpreter
}

func (s *Serializer) degraded(st *renderState, block *blocks.Block, reason string, fields ...zap.Field) {
	fields = append(fields,
		zap.String("kind", block.Kind.String()),
		zap.String("path", formatPath(st.path)),
		zap.String("reason", reason),
	)
	s.logger.Debug("block rendered empty", fields...)
}

func (s *Serializer) fail(st *renderState, block *blocks.Block, err error) {
	nodeErr := &NodeError{
		Path: append([]int(nil), st.path...),
		Kind: block.Kind,
		Err:  err,
	}
	s.logger.Debug("block failed to render", zap.Error(nodeErr))
	st.errs = multierr.Append(st.errs, nodeErr)
}
