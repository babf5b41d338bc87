package parser

import (
	"fmt"

	"github.com/dshills/docsync/internal/syntax"
	"github.com/dshills/docsync/pkg/types"
)

// ParseRegions scans the text of one documentation file and returns the
// regions it declares, in file order. Markers alternate open/close and the
// close marker repeats the id of the open one. In Markdown files, open
// markers inside code blocks are ignored. Region interiors are opaque: code
// spans are computed only over the text following the last close marker,
// so a fence inside replaced content cannot hide the markers after it.
func ParseRegions(path string, content []byte, syn *syntax.Syntax) ([]types.DocRegion, error) {
	lines := splitLines(content)
	markdown := IsMarkdown(path)
	regions := make([]types.DocRegion, 0)
	declared := make(map[string]int)

	// Code spans of content[segment:], computed lazily
	segment := 0
	var code []types.Span
	stale := true

	var open *types.DocRegion
	for i, l := range lines {
		lineNo := i + 1

		id, ok := syn.Region.Match(l.text)
		if !ok {
			continue
		}

		if open == nil {
			if markdown {
				if stale {
					code = codeSpansFrom(content, segment)
					stale = false
				}
				if insideAny(code, l.start, l.next) {
					continue
				}
			}
			if first, dup := declared[id]; dup {
				err := types.NewMarkerError(types.ErrDuplicateRegionInFile, path, lineNo, id)
				err.Related = first
				return nil, err
			}
			declared[id] = lineNo
			open = &types.DocRegion{
				ID:       id,
				File:     path,
				Span:     types.Span{Start: l.next, End: l.next},
				OpenLine: lineNo,
			}
			continue
		}

		if id != open.ID {
			err := types.NewMarkerError(types.ErrRegionIDMismatch, path, lineNo, id)
			err.Related = open.OpenLine
			err.Detail = fmt.Sprintf("expected closing marker for %q", open.ID)
			return nil, err
		}

		open.Span.End = l.start
		open.CloseLine = lineNo
		open.ExistingContent = string(content[open.Span.Start:open.Span.End])
		regions = append(regions, *open)
		open = nil
		segment = l.next
		stale = true
	}

	if open != nil {
		return nil, types.NewMarkerError(types.ErrUnterminatedRegion, path, open.OpenLine, open.ID)
	}
	return regions, nil
}

// insideAny reports whether [start, end) overlaps one of the spans
func insideAny(spans []types.Span, start, end int) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}
