package parser

import (
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/docsync/pkg/types"
)

var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdx":      true,
}

// IsMarkdown reports whether path names a Markdown document
func IsMarkdown(path string) bool {
	return markdownExtensions[strings.ToLower(filepath.Ext(path))]
}

// CodeSpans returns the byte ranges covered by fenced and indented code
// blocks of a Markdown document. Other files yield nil.
func CodeSpans(path string, content []byte) []types.Span {
	if !IsMarkdown(path) {
		return nil
	}
	return codeSpansFrom(content, 0)
}

// codeSpansFrom parses content[offset:] on its own and returns its code
// spans as offsets into content
func codeSpansFrom(content []byte, offset int) []types.Span {
	if offset >= len(content) {
		return nil
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(content[offset:]))

	var spans []types.Span
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			if lines.Len() > 0 {
				spans = append(spans, types.Span{
					Start: offset + lines.At(0).Start,
					End:   offset + lines.At(lines.Len()-1).Stop,
				})
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return spans
}
