package extract

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// extractMarkdown walks the goldmark AST and keeps only the text, one block per line group.
func extractMarkdown(data []byte) (Result, error) {
	source, err := decodeText(data)
	if err != nil {
		return Result{}, err
	}
	src := []byte(source)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var buf strings.Builder
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(src))
				if node.HardLineBreak() || node.SoftLineBreak() {
					buf.WriteString("\n")
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.URL(src))
			}
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(src))
				}
				endBlock(&buf)
				return ast.WalkSkipChildren, nil
			}
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *extast.TableCell:
			if !entering {
				buf.WriteString("\t")
			}
		case *extast.TableRow, *extast.TableHeader:
			if !entering {
				buf.WriteString("\n")
			}
		case *ast.Paragraph, *ast.Heading, *ast.ListItem, *ast.ThematicBreak, *ast.TextBlock:
			if !entering {
				endBlock(&buf)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Text: strings.TrimSpace(buf.String())}, nil
}

// endBlock ends the current block with a blank line unless one is already there.
func endBlock(buf *strings.Builder) {
	s := buf.String()
	switch {
	case s == "", strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		buf.WriteString("\n")
	default:
		buf.WriteString("\n\n")
	}
}
