package blocks

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/stateful/blocky/pkg/blocks/numbering"
)

// The serialized form mirrors the block editor's own JSON: every block is
// {"name": "core/…", "attributes": {…}, "innerBlocks": […]}.

type rawBlock struct {
	ClientID    string        `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	Name        string        `json:"name" yaml:"name"`
	Attributes  rawAttributes `json:"attributes" yaml:"attributes,omitempty"`
	InnerBlocks []*rawBlock   `json:"innerBlocks,omitempty" yaml:"innerBlocks,omitempty"`
}

type rawAttributes struct {
	Content  string   `json:"content,omitempty" yaml:"content,omitempty"`
	Level    int      `json:"level,omitempty" yaml:"level,omitempty"`
	Ordered  bool     `json:"ordered,omitempty" yaml:"ordered,omitempty"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Start    int      `json:"start,omitempty" yaml:"start,omitempty"`
	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
	URL      string   `json:"url,omitempty" yaml:"url,omitempty"`
	Alt      string   `json:"alt,omitempty" yaml:"alt,omitempty"`
	Head     []rawRow `json:"head,omitempty" yaml:"head,omitempty"`
	Body     []rawRow `json:"body,omitempty" yaml:"body,omitempty"`
}

type rawRow struct {
	Cells []rawCell `json:"cells" yaml:"cells"`
}

type rawCell struct {
	Content string `json:"content" yaml:"content"`
	Tag     string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// defaultHeadingLevel matches the editor's default for a heading without
// an explicit level.
const defaultHeadingLevel = 2

func fromRaw(rbs []*rawBlock) []*Block {
	result := make([]*Block, 0, len(rbs))
	for _, rb := range rbs {
		if rb == nil {
			continue
		}
		kind := ParseKind(rb.Name)
		attrs := Attributes{
			Content:  rb.Attributes.Content,
			Level:    rb.Attributes.Level,
			Ordered:  rb.Attributes.Ordered,
			Start:    rb.Attributes.Start,
			Language: rb.Attributes.Language,
			URL:      rb.Attributes.URL,
			Alt:      rb.Attributes.Alt,
			Head:     rowsFromRaw(rb.Attributes.Head),
			Body:     rowsFromRaw(rb.Attributes.Body),
		}
		if rb.Attributes.Type != "" {
			attrs.NumberingStyle = numbering.ParseStyle(rb.Attributes.Type)
		}
		if kind == Heading && attrs.Level == 0 {
			attrs.Level = defaultHeadingLevel
		}
		result = append(result, &Block{
			ClientID:   rb.ClientID,
			Kind:       kind,
			Attributes: attrs,
			Children:   fromRaw(rb.InnerBlocks),
		})
	}
	return result
}

func rowsFromRaw(rows []rawRow) [][]string {
	if len(rows) == 0 {
		return nil
	}
	result := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, c.Content)
		}
		result = append(result, cells)
	}
	return result
}

func toRaw(bs []*Block) []*rawBlock {
	result := make([]*rawBlock, 0, len(bs))
	for _, b := range bs {
		if b == nil {
			continue
		}
		rb := &rawBlock{
			ClientID: b.ClientID,
			Name:     b.Kind.String(),
			Attributes: rawAttributes{
				Content:  b.Attributes.Content,
				Level:    b.Attributes.Level,
				Ordered:  b.Attributes.Ordered,
				Start:    b.Attributes.Start,
				Language: b.Attributes.Language,
				URL:      b.Attributes.URL,
				Alt:      b.Attributes.Alt,
				Head:     rowsToRaw(b.Attributes.Head, "th"),
				Body:     rowsToRaw(b.Attributes.Body, "td"),
			},
		}
		if b.Kind == List && b.Attributes.Ordered && b.Attributes.NumberingStyle != numbering.Decimal {
			rb.Attributes.Type = b.Attributes.NumberingStyle.String()
		}
		if len(b.Children) > 0 {
			rb.InnerBlocks = toRaw(b.Children)
		}
		result = append(result, rb)
	}
	return result
}

func rowsToRaw(rows [][]string, tag string) []rawRow {
	if len(rows) == 0 {
		return nil
	}
	result := make([]rawRow, 0, len(rows))
	for _, row := range rows {
		cells := make([]rawCell, 0, len(row))
		for _, c := range row {
			cells = append(cells, rawCell{Content: c, Tag: tag})
		}
		result = append(result, rawRow{Cells: cells})
	}
	return result
}

// DecodeJSON reads a JSON array of blocks.
func DecodeJSON(r io.Reader) ([]*Block, error) {
	var rbs []*rawBlock
	if err := json.NewDecoder(r).Decode(&rbs); err != nil {
		return nil, errors.Wrap(err, "failed to decode blocks from JSON")
	}
	return fromRaw(rbs), nil
}

// DecodeYAML reads a YAML sequence of blocks.
func DecodeYAML(r io.Reader) ([]*Block, error) {
	var rbs []*rawBlock
	if err := yaml.NewDecoder(r).Decode(&rbs); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to decode blocks from YAML")
	}
	return fromRaw(rbs), nil
}

// EncodeJSON writes blocks as an indented JSON array.
func EncodeJSON(w io.Writer, bs []*Block) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(toRaw(bs)), "failed to encode blocks to JSON")
}

// EncodeYAML writes blocks as a YAML sequence.
func EncodeYAML(w io.Writer, bs []*Block) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toRaw(bs)); err != nil {
		return errors.Wrap(err, "failed to encode blocks to YAML")
	}
	if err := enc.Close(); err != nil {
		return errors.WithStack(err)
	}
	_, err := w.Write(buf.Bytes())
	return errors.WithStack(err)
}
