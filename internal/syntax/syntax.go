package syntax

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	// DefaultBlockStart matches `START <id:NAME>` after an optional comment
	// leader, e.g. `// START <id:adding_numbers>` or `//📖 #START <id:x>`.
	DefaultBlockStart = `^\s*(?://+|#+|--|;+|/?\*+|<!--)?\s*(?:📖\s*)?#?START\s*<id:(?P<id>[^>]*)>`

	// DefaultBlockEnd matches a line holding only `END`, after an optional
	// comment leader, e.g. `END`, `// END` or `<!-- END -->`.
	DefaultBlockEnd = `^\s*(?:(?://+|#+|--|;+|/?\*+|<!--)\s*(?:📖\s*)?#?|📖\s*#?)?END\s*(?:\*/|-->)?\s*$`

	// DefaultRegionMarker matches a line holding only `<!-- NAME -->`
	DefaultRegionMarker = `^\s*<!--\s*(?:📖\s*)?(?P<id>[A-Za-z0-9_][\w.:/-]*?)\s*(?:📖\s*)?-->\s*$`

	// DefaultPatternName names the built-in block pattern
	DefaultPatternName = "default"
)

// DefaultIgnoreIDs lists HTML comments commonly found in Markdown that must
// never be taken for region markers.
var DefaultIgnoreIDs = []string{
	"prettier-ignore*",
	"markdownlint-*",
	"toc",
}

var (
	ErrMissingIDGroup = errors.New("pattern must capture the id (named group `id` or group 1)")
	ErrEmptyPattern   = errors.New("pattern is empty")
)

// Syntax describes how blocks and regions are marked. It is passed
// explicitly to every parser call.
type Syntax struct {
	Blocks  []*BlockPattern
	Region  *RegionPattern
	Filters Filters
}

// BlockPattern recognizes the start and end markers of source blocks
type BlockPattern struct {
	Name  string
	Start *regexp.Regexp
	End   *regexp.Regexp

	idIndex int
}

// RegionPattern recognizes region markers in documentation files. Open and
// close markers share the same syntax and repeat the id.
type RegionPattern struct {
	Marker    *regexp.Regexp
	IgnoreIDs []string

	idIndex int
}

// Filters post-process block content before normalization. Both lists are
// empty unless configured.
type Filters struct {
	// StripLines drops every content line matching one of the expressions
	StripLines []*regexp.Regexp
	// Cleanups deletes every match from the content
	Cleanups []*regexp.Regexp
}

// Default returns the built-in syntax
func Default() *Syntax {
	syn, err := Compile(Config{})
	if err != nil {
		panic(fmt.Sprintf("syntax: invalid built-in patterns: %v", err))
	}
	return syn
}

// NewBlockPattern compiles a block pattern from its start and end expressions
func NewBlockPattern(name, start, end string) (*BlockPattern, error) {
	startRe, idx, err := compileWithID(start)
	if err != nil {
		return nil, fmt.Errorf("block pattern %q start: %w", name, err)
	}
	if strings.TrimSpace(end) == "" {
		return nil, fmt.Errorf("block pattern %q end: %w", name, ErrEmptyPattern)
	}
	endRe, err := regexp.Compile(end)
	if err != nil {
		return nil, fmt.Errorf("block pattern %q end: %w", name, err)
	}
	return &BlockPattern{Name: name, Start: startRe, End: endRe, idIndex: idx}, nil
}

// NewRegionPattern compiles a region marker expression
func NewRegionPattern(marker string, ignoreIDs []string) (*RegionPattern, error) {
	re, idx, err := compileWithID(marker)
	if err != nil {
		return nil, fmt.Errorf("region marker: %w", err)
	}
	for _, pattern := range ignoreIDs {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("region ignore id %q: invalid glob", pattern)
		}
	}
	return &RegionPattern{Marker: re, IgnoreIDs: ignoreIDs, idIndex: idx}, nil
}

// MatchStart reports whether line opens a block and returns the trimmed id.
// An empty id is returned with ok=true so the caller can report it.
func (p *BlockPattern) MatchStart(line string) (string, bool) {
	m := p.Start.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[p.idIndex]), true
}

// MatchEnd reports whether line closes a block
func (p *BlockPattern) MatchEnd(line string) bool {
	return p.End.MatchString(line)
}

// Match reports whether line is a region marker and returns its id
func (p *RegionPattern) Match(line string) (string, bool) {
	m := p.Marker.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	id := strings.TrimSpace(m[p.idIndex])
	if id == "" || p.ignored(id) {
		return "", false
	}
	return id, true
}

func (p *RegionPattern) ignored(id string) bool {
	for _, pattern := range p.IgnoreIDs {
		if ok, _ := doublestar.Match(pattern, id); ok {
			return true
		}
	}
	return false
}

// Apply runs the configured filters over the raw content lines
func (f Filters) Apply(lines []string) []string {
	if len(f.StripLines) == 0 && len(f.Cleanups) == 0 {
		return lines
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if matchesAny(f.StripLines, line) {
			continue
		}
		for _, re := range f.Cleanups {
			line = re.ReplaceAllString(line, "")
		}
		kept = append(kept, line)
	}
	return kept
}

// Empty reports whether no filter is configured
func (f Filters) Empty() bool {
	return len(f.StripLines) == 0 && len(f.Cleanups) == 0
}

func matchesAny(res []*regexp.Regexp, line string) bool {
	for _, re := range res {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// compileWithID compiles expr and locates the group carrying the id
func compileWithID(expr string) (*regexp.Regexp, int, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, 0, ErrEmptyPattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, 0, err
	}
	if idx := re.SubexpIndex("id"); idx > 0 {
		return re, idx, nil
	}
	if re.NumSubexp() >= 1 {
		return re, 1, nil
	}
	return nil, 0, ErrMissingIDGroup
}
