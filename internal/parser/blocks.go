package parser

import (
	"strings"

	"github.com/dshills/docsync/internal/syntax"
	"github.com/dshills/docsync/pkg/types"
)

// openBlock tracks the block currently being collected
type openBlock struct {
	id      string
	line    int // 1-based line of the start marker
	index   int // index of the first content line
	pattern *syntax.BlockPattern
}

// ParseBlocks scans the text of one source file and returns the blocks it
// declares, in file order. It never performs I/O. The first malformed
// marker aborts the scan of this file.
func ParseBlocks(path string, content []byte, syn *syntax.Syntax) ([]types.SourceBlock, error) {
	lines := splitLines(content)
	blocks := make([]types.SourceBlock, 0)
	declared := make(map[string]int)

	var open *openBlock
	for i, l := range lines {
		lineNo := i + 1

		if open != nil {
			if open.pattern.MatchEnd(l.text) {
				blocks = append(blocks, closeBlock(path, open, lines[open.index:i], lineNo, syn.Filters))
				open = nil
				continue
			}
			if id, _, ok := matchStart(syn, l.text); ok {
				err := types.NewMarkerError(types.ErrNestedBlock, path, lineNo, id)
				err.Related = open.line
				return nil, err
			}
			if matchAnyEnd(syn, l.text) {
				err := types.NewMarkerError(types.ErrUnexpectedEnd, path, lineNo, "")
				err.Related = open.line
				err.Detail = "end marker belongs to another pattern than " + open.pattern.Name
				return nil, err
			}
			continue
		}

		if id, pattern, ok := matchStart(syn, l.text); ok {
			if id == "" {
				err := types.NewMarkerError(types.ErrMalformedMarker, path, lineNo, "")
				err.Detail = "start marker without id"
				return nil, err
			}
			if first, dup := declared[id]; dup {
				err := types.NewMarkerError(types.ErrDuplicateIDInFile, path, lineNo, id)
				err.Related = first
				return nil, err
			}
			declared[id] = lineNo
			open = &openBlock{id: id, line: lineNo, index: i + 1, pattern: pattern}
			continue
		}

		// A bare END outside a block is ordinary text, e.g. a heredoc
		// terminator; only commented end markers are reported
		if matchAnyEnd(syn, l.text) && strings.TrimSpace(l.text) != "END" {
			return nil, types.NewMarkerError(types.ErrUnexpectedEnd, path, lineNo, "")
		}
	}

	if open != nil {
		return nil, types.NewMarkerError(types.ErrUnterminatedBlock, path, open.line, open.id)
	}
	return blocks, nil
}

// closeBlock builds the block whose content lines are raw
func closeBlock(path string, open *openBlock, raw []line, endLine int, filters syntax.Filters) types.SourceBlock {
	texts := make([]string, len(raw))
	for i, l := range raw {
		texts[i] = l.text
	}

	origin := types.Origin{
		Path:      path,
		StartLine: open.line,
		EndLine:   endLine,
	}
	start, end := types.TrimBlankBounds(texts)
	if start < end {
		origin.ContentStart = open.line + 1 + start
		origin.ContentEnd = open.line + end
	}

	var content string
	if filters.Empty() {
		content = strings.Join(texts[start:end], "\n")
	} else {
		content = types.Normalize(strings.Join(filters.Apply(texts), "\n"))
	}

	return types.SourceBlock{
		ID:      open.id,
		Content: content,
		Origin:  origin,
	}
}

func matchStart(syn *syntax.Syntax, text string) (string, *syntax.BlockPattern, bool) {
	for _, p := range syn.Blocks {
		if id, ok := p.MatchStart(text); ok {
			return id, p, true
		}
	}
	return "", nil, false
}

func matchAnyEnd(syn *syntax.Syntax, text string) bool {
	for _, p := range syn.Blocks {
		if p.MatchEnd(text) {
			return true
		}
	}
	return false
}
