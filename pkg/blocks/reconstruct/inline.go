package reconstruct

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"golang.org/x/net/html"
)

// inlineHTML renders the inline children of n as the rich-text fragment
// blocks carry in their content attribute. Text is escaped; raw inline HTML
// is passed through.
func inlineHTML(n ast.Node, source []byte) (string, error) {
	var b strings.Builder

	err := ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if node == n {
			return ast.WalkContinue, nil
		}

		switch t := node.(type) {
		case *ast.Text:
			if !entering {
				return ast.WalkContinue, nil
			}
			value := t.Segment.Value(source)
			if !t.IsRaw() {
				value = unescape(value)
			}
			_, _ = b.WriteString(html.EscapeString(string(value)))
			switch {
			case t.HardLineBreak():
				_, _ = b.WriteString("<br>")
			case t.SoftLineBreak():
				_ = b.WriteByte('\n')
			}

		case *ast.String:
			if entering {
				_, _ = b.WriteString(html.EscapeString(string(t.Value)))
			}

		case *ast.Emphasis:
			tag := "em"
			if t.Level > 1 {
				tag = "strong"
			}
			writeTag(&b, tag, entering)

		case *east.Strikethrough:
			writeTag(&b, "s", entering)

		case *ast.CodeSpan:
			if !entering {
				return ast.WalkContinue, nil
			}
			var code strings.Builder
			for c := t.FirstChild(); c != nil; c = c.NextSibling() {
				switch v := c.(type) {
				case *ast.Text:
					_, _ = code.Write(v.Segment.Value(source))
				case *ast.String:
					_, _ = code.Write(v.Value)
				}
			}
			_, _ = b.WriteString("<code>" + html.EscapeString(code.String()) + "</code>")
			return ast.WalkSkipChildren, nil

		case *ast.Link:
			if entering {
				_, _ = b.WriteString(`<a href="` + html.EscapeString(string(t.Destination)) + `">`)
			} else {
				_, _ = b.WriteString("</a>")
			}

		case *ast.AutoLink:
			if !entering {
				return ast.WalkContinue, nil
			}
			url := string(t.URL(source))
			if t.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(url), "mailto:") {
				url = "mailto:" + url
			}
			_, _ = b.WriteString(`<a href="` + html.EscapeString(url) + `">` + html.EscapeString(string(t.Label(source))) + "</a>")
			return ast.WalkSkipChildren, nil

		case *ast.Image:
			// Images inside running text keep only their alternative text.
			if entering {
				_, _ = b.WriteString(html.EscapeString(plainText(t, source)))
			}
			return ast.WalkSkipChildren, nil

		case *ast.RawHTML:
			if entering {
				for i := 0; i < t.Segments.Len(); i++ {
					seg := t.Segments.At(i)
					_, _ = b.Write(seg.Value(source))
				}
			}
		}

		return ast.WalkContinue, nil
	})

	return b.String(), err
}

func writeTag(b *strings.Builder, tag string, entering bool) {
	if entering {
		_, _ = b.WriteString("<" + tag + ">")
	} else {
		_, _ = b.WriteString("</" + tag + ">")
	}
}
