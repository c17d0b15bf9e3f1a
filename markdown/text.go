package markdown

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// plainText concatenates the text segments below n, joining soft line
// breaks with a space.
func plainText(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := child.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return bytes.TrimSpace(buf.Bytes())
}

// Excerpt returns the first paragraph of content as plain text, cut to at
// most max runes.
func Excerpt(content string, max int) string {
	src := []byte(content)
	doc := md.Parser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() != ast.KindParagraph {
			continue
		}
		runes := []rune(string(plainText(n, src)))
		if len(runes) > max {
			return string(runes[:max]) + "…"
		}
		return string(runes)
	}
	return ""
}
