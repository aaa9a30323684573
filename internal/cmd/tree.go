package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/blocky/pkg/blocks"
)

func treeCmd() *cobra.Command {
	var noColor bool

	cmd := cobra.Command{
		Use:   "tree [file|-]",
		Short: "Print the block tree of a document.",
		Long: `Print the structure of a block tree read from JSON, YAML or Markdown, one
block per line, indented by depth.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			bs, err := decodeTree(name, data, true)
			if err != nil {
				return err
			}

			p := newTreePrinter(cmd.OutOrStdout(), noColor)
			return p.print(bs)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output.")

	return &cmd
}

type treePrinter struct {
	w     io.Writer
	kind  *color.Color
	attrs *color.Color
	err   error
}

func newTreePrinter(w io.Writer, noColor bool) *treePrinter {
	p := &treePrinter{
		w:     w,
		kind:  color.New(color.FgCyan, color.Bold),
		attrs: color.New(color.Faint),
	}
	if noColor {
		p.kind.DisableColor()
		p.attrs.DisableColor()
	}
	return p
}

func (p *treePrinter) print(bs []*blocks.Block) error {
	blocks.Walk(bs, func(b *blocks.Block, depth int) bool {
		line := strings.Repeat("  ", depth) + p.kind.Sprint(b.Kind.Name())
		if summary := attributeSummary(b); summary != "" {
			line += " " + p.attrs.Sprint(summary)
		}
		if _, err := fmt.Fprintln(p.w, line); err != nil {
			p.err = errors.WithStack(err)
			return false
		}
		return true
	})
	return p.err
}

const maxContentPreview = 40

func attributeSummary(b *blocks.Block) string {
	a := b.Attributes
	var parts []string

	switch b.Kind {
	case blocks.Heading:
		parts = append(parts, "level="+strconv.Itoa(a.Level))
	case blocks.List:
		if a.Ordered {
			parts = append(parts, "ordered", "style="+a.NumberingStyle.String())
			if a.Start > 1 {
				parts = append(parts, "start="+strconv.Itoa(a.Start))
			}
		}
	case blocks.Code:
		if a.Language != "" {
			parts = append(parts, "language="+a.Language)
		}
	case blocks.Image:
		parts = append(parts, "url="+a.URL)
	case blocks.Table:
		parts = append(parts, fmt.Sprintf("rows=%d", len(a.Head)+len(a.Body)))
	}

	if content := preview(a.Content); content != "" {
		parts = append(parts, strconv.Quote(content))
	}
	return strings.Join(parts, " ")
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= maxContentPreview {
		return s
	}
	return string(r[:maxContentPreview-1]) + "…"
}
