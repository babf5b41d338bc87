package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only blank lines", "\n  \n\t\n", ""},
		{"trims adjacent blank lines", "\n\nfoo()\nbar()\n\n", "foo()\nbar()"},
		{"keeps interior blank lines", "a\n\n\nb", "a\n\n\nb"},
		{"keeps indentation", "\n    indented\n\tx\n", "    indented\n\tx"},
		{"drops trailing newline", "code\n", "code"},
		{"crlf", "a\r\nb\r\n", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := "\n  x := 1\n\n  y := 2\n\n"
	once := Normalize(in)
	assert.Equal(t, once, Normalize(once))
	assert.Equal(t, once, Normalize(once+"\n"))
}

func TestSourceBlock_Equal(t *testing.T) {
	a := SourceBlock{ID: "x", Content: "c", Origin: Origin{Path: "a.go", StartLine: 1, EndLine: 3}}
	b := SourceBlock{ID: "x", Content: "c", Origin: Origin{Path: "b.go", StartLine: 9, EndLine: 12}}
	c := SourceBlock{ID: "x", Content: "other"}

	assert.True(t, a.Equal(b), "origin must not take part in equality")
	assert.False(t, a.Equal(c))
}

func TestSourceBlock_Validate(t *testing.T) {
	valid := SourceBlock{ID: "x", Origin: Origin{Path: "a.go", StartLine: 1, EndLine: 2}}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.ID = " "
	assert.ErrorIs(t, noID.Validate(), ErrInvalidBlock)

	inverted := valid
	inverted.Origin.StartLine = 5
	assert.ErrorIs(t, inverted.Validate(), ErrInvalidBlock)
}

func TestSourceBlock_Lines(t *testing.T) {
	assert.Equal(t, 0, SourceBlock{}.Lines())
	assert.Equal(t, 1, SourceBlock{Content: "a"}.Lines())
	assert.Equal(t, 3, SourceBlock{Content: "a\n\nb"}.Lines())
}

func TestOrigin_Less(t *testing.T) {
	assert.True(t, Origin{Path: "a.go", StartLine: 9}.Less(Origin{Path: "b.go", StartLine: 1}))
	assert.True(t, Origin{Path: "a.go", StartLine: 1}.Less(Origin{Path: "a.go", StartLine: 2}))
	assert.False(t, Origin{Path: "b.go", StartLine: 1}.Less(Origin{Path: "a.go", StartLine: 1}))
	assert.Equal(t, "src/a.go:4", Origin{Path: "src/a.go", StartLine: 4}.String())
}

func TestSourceBlock_Digest(t *testing.T) {
	a := SourceBlock{ID: "a", Content: "x := 1"}
	b := SourceBlock{ID: "b", Content: "x := 1", Origin: Origin{Path: "other.go"}}
	c := SourceBlock{ID: "a", Content: "x := 2"}

	assert.Equal(t, a.Digest(), b.Digest())
	assert.NotEqual(t, a.Digest(), c.Digest())
	assert.Len(t, a.DigestHex(), 64)
}
