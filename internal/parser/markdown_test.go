package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("README.md"))
	assert.True(t, IsMarkdown("docs/guide.MARKDOWN"))
	assert.True(t, IsMarkdown("page.mdx"))
	assert.False(t, IsMarkdown("main.go"))
	assert.False(t, IsMarkdown("md"))
}

func TestCodeSpans(t *testing.T) {
	content := "# T\n\n```go\nfmt.Println()\n```\n\ntext\n"

	spans := CodeSpans("a.md", []byte(content))
	require.Len(t, spans, 1)
	code := content[spans[0].Start:spans[0].End]
	assert.Contains(t, code, "fmt.Println()")
	assert.NotContains(t, code, "```")

	assert.Nil(t, CodeSpans("a.go", []byte(content)))
	assert.Nil(t, CodeSpans("a.md", nil))
}
