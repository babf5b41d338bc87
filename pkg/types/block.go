package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Origin locates a block in the source tree. It is kept for diagnostics only
// and never takes part in block equality.
type Origin struct {
	Path string

	// Marker lines (1-based)
	StartLine int
	EndLine   int

	// Lines holding the normalized content (1-based, inclusive). Both are
	// zero when the block is empty.
	ContentStart int
	ContentEnd   int
}

// String renders the origin as path:line
func (o Origin) String() string {
	return fmt.Sprintf("%s:%d", o.Path, o.StartLine)
}

// Less orders origins by path, then start line
func (o Origin) Less(other Origin) bool {
	if o.Path != other.Path {
		return o.Path < other.Path
	}
	return o.StartLine < other.StartLine
}

// SourceBlock is an identifier-tagged region of source text marked for extraction
type SourceBlock struct {
	ID      string
	Content string
	Origin  Origin
}

// Equal reports whether two blocks carry the same id and content
func (b SourceBlock) Equal(other SourceBlock) bool {
	return b.ID == other.ID && b.Content == other.Content
}

// Digest returns the BLAKE3-256 hash of the content
func (b SourceBlock) Digest() [32]byte {
	return blake3.Sum256([]byte(b.Content))
}

// DigestHex returns Digest as a lowercase hex string
func (b SourceBlock) DigestHex() string {
	d := b.Digest()
	return hex.EncodeToString(d[:])
}

// Lines returns the number of content lines
func (b SourceBlock) Lines() int {
	if b.Content == "" {
		return 0
	}
	return strings.Count(b.Content, "\n") + 1
}

// Validate checks the block before it is registered. Errors wrap
// ErrInvalidBlock.
func (b SourceBlock) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidBlock)
	}
	if b.Origin.StartLine <= 0 || b.Origin.EndLine <= 0 {
		return fmt.Errorf("%w: line numbers must be positive", ErrInvalidBlock)
	}
	if b.Origin.StartLine >= b.Origin.EndLine {
		return fmt.Errorf("%w: start marker must precede end marker", ErrInvalidBlock)
	}
	return nil
}

// Normalize trims fully blank lines adjacent to the start and end of text.
// Interior lines, indentation and blank lines are kept verbatim. The result
// never ends with a newline.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	start, end := TrimBlankBounds(lines)
	return strings.Join(lines[start:end], "\n")
}

// TrimBlankBounds returns the half-open range of lines left after dropping
// leading and trailing lines that contain only whitespace.
func TrimBlankBounds(lines []string) (int, int) {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return start, end
}
