package syntax

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_BlockStart(t *testing.T) {
	p := Default().Blocks[0]

	tests := []struct {
		line   string
		wantID string
		wantOK bool
	}{
		{"// START <id:adding_numbers>", "adding_numbers", true},
		{"   // START <id: spaced id >", "spaced id", true},
		{"//📖 #START <id:introduction>", "introduction", true},
		{"// 📖   #START <id:x>", "x", true},
		{"# START <id:py_example>", "py_example", true},
		{"-- START <id:sql>", "sql", true},
		{"<!-- START <id:md> -->", "md", true},
		{"START <id:bare>", "bare", true},
		{"// START <id:>", "", true},
		{"//START_KEY <id:custom>", "", false},
		{"// START", "", false},
		{"fmt.Println(\"START\")", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			id, ok := p.MatchStart(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestDefault_BlockEnd(t *testing.T) {
	p := Default().Blocks[0]

	for _, line := range []string{"END", "  END  ", "// END", "  //END", "//📖 #END", "# END", "#END", "-- END", "<!-- END -->", "/* END */"} {
		assert.True(t, p.MatchEnd(line), line)
	}
	for _, line := range []string{"END;", "BACKEND", "// END of story", "x := END", "// START <id:x>", "// ENDING"} {
		assert.False(t, p.MatchEnd(line), line)
	}
}

func TestDefault_RegionMarker(t *testing.T) {
	r := Default().Region

	tests := []struct {
		line   string
		wantID string
		wantOK bool
	}{
		{"<!-- adding_numbers -->", "adding_numbers", true},
		{"  <!--greet_person-->  ", "greet_person", true},
		{"<!-- 📖REPLACE-1 -->", "REPLACE-1", true},
		{"<!-- REPLACE-1📖 -->", "REPLACE-1", true},
		{"<!-- pkg/example.v2 -->", "pkg/example.v2", true},
		{"<!-- this is prose -->", "", false},
		{"text <!-- inline --> text", "", false},
		{"<!-- prettier-ignore -->", "", false},
		{"<!-- prettier-ignore-start -->", "", false},
		{"<!-- markdownlint-disable -->", "", false},
		{"<!-- toc -->", "", false},
		{"<!-- /toc -->", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			id, ok := r.Match(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestCompile_CustomPatterns(t *testing.T) {
	syn, err := Compile(Config{
		Blocks: []BlockConfig{
			{Name: "key", Start: `//START_KEY <id:(?P<id>[^>]*)>`, End: `//END_KEY`},
			{Start: `#BEGIN (\S+)`, End: `#FINISH`},
		},
		Region: RegionConfig{Marker: `^\[//\]: # \((\S+)\)$`, IgnoreIDs: []string{}},
	})
	require.NoError(t, err)
	require.Len(t, syn.Blocks, 2)
	assert.Equal(t, "key", syn.Blocks[0].Name)
	assert.Equal(t, "pattern-2", syn.Blocks[1].Name)

	id, ok := syn.Blocks[0].MatchStart("//START_KEY <id:adding_numbers>")
	assert.True(t, ok)
	assert.Equal(t, "adding_numbers", id)

	id, ok = syn.Blocks[1].MatchStart("#BEGIN sample")
	assert.True(t, ok)
	assert.Equal(t, "sample", id)

	id, ok = syn.Region.Match("[//]: # (toc)")
	assert.True(t, ok, "empty ignore list disables the defaults")
	assert.Equal(t, "toc", id)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"start without id group", Config{Blocks: []BlockConfig{{Start: `START`, End: `END`}}}},
		{"invalid start regex", Config{Blocks: []BlockConfig{{Start: `(`, End: `END`}}}},
		{"empty end", Config{Blocks: []BlockConfig{{Start: `S (\w+)`, End: ` `}}}},
		{"duplicate names", Config{Blocks: []BlockConfig{
			{Name: "a", Start: `S (\w+)`, End: `E`},
			{Name: "a", Start: `T (\w+)`, End: `F`},
		}}},
		{"region without id group", Config{Region: RegionConfig{Marker: `<!-- x -->`}}},
		{"invalid ignore glob", Config{Region: RegionConfig{IgnoreIDs: []string{"[a"}}}},
		{"invalid strip line", Config{StripLines: []string{`(`}}},
		{"invalid cleanup", Config{Cleanups: []string{`[`}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestFilters_Apply(t *testing.T) {
	f := Filters{
		StripLines: []*regexp.Regexp{regexp.MustCompile(`remove this line`)},
		Cleanups:   []*regexp.Regexp{regexp.MustCompile(`//!\s?`)},
	}

	in := []string{"// remove this line", "//! doc", "fn add() {}"}
	assert.Equal(t, []string{"doc", "fn add() {}"}, f.Apply(in))
	assert.False(t, f.Empty())

	var none Filters
	assert.True(t, none.Empty())
	assert.Equal(t, in, none.Apply(in))
}
