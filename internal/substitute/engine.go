package substitute

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/dshills/docsync/pkg/types"
)

// Lookup resolves block ids. *registry.Registry satisfies it.
type Lookup interface {
	Get(id string) (types.SourceBlock, bool)
}

// Engine compares document regions with registered blocks and rewrites
// the regions that drifted
type Engine struct {
	// Context lines around each hunk in Diff output
	DiffContext int
}

// New creates an Engine with default settings
func New() *Engine {
	return &Engine{DiffContext: 3}
}

// Apply compares every region of one document with the registry and computes
// the document's new text. It performs no I/O: the caller decides whether to
// persist the returned text, which is nil when nothing must be written.
//
// In ModeReplace a document with any unknown id is left untouched. In
// ModeCheck the returned text is always nil.
func (e *Engine) Apply(path string, content []byte, regions []types.DocRegion, lookup Lookup, mode types.Mode) (*types.FileResult, []byte) {
	result := &types.FileResult{
		Path:     path,
		Outcomes: make([]types.RegionOutcome, 0, len(regions)),
	}

	newline := "\n"
	if bytes.Contains(content, []byte("\r\n")) {
		newline = "\r\n"
	}

	var out bytes.Buffer
	out.Grow(len(content))
	last := 0
	unknown := 0
	changed := 0

	for _, r := range regions {
		outcome := types.RegionOutcome{ID: r.ID, File: path, Line: r.OpenLine}

		block, ok := lookup.Get(r.ID)
		if !ok {
			outcome.Status = types.StatusUnknownID
			result.Outcomes = append(result.Outcomes, outcome)
			unknown++
			continue
		}

		current := types.Normalize(r.ExistingContent)
		if current == block.Content {
			outcome.Status = types.StatusUnchanged
			result.Outcomes = append(result.Outcomes, outcome)
			continue
		}

		outcome.Current = current
		outcome.Expected = block.Content
		if mode == types.ModeCheck {
			outcome.Status = types.StatusWouldChange
		} else {
			outcome.Status = types.StatusReplaced
		}
		result.Outcomes = append(result.Outcomes, outcome)
		changed++

		out.Write(content[last:r.Span.Start])
		out.WriteString(Interior(block.Content, newline))
		last = r.Span.End
	}

	if mode == types.ModeCheck || changed == 0 {
		return result, nil
	}

	if unknown > 0 {
		// No partial writes: report the regions that would have been
		// replaced as drift instead.
		for i := range result.Outcomes {
			if result.Outcomes[i].Status == types.StatusReplaced {
				result.Outcomes[i].Status = types.StatusWouldChange
			}
		}
		return result, nil
	}

	out.Write(content[last:])
	return result, out.Bytes()
}

// Interior renders block content as the text placed between two region
// markers
func Interior(content, newline string) string {
	if content == "" {
		return ""
	}
	if newline != "\n" {
		content = strings.ReplaceAll(content, "\n", newline)
	}
	return content + newline
}

// Diff renders a unified line diff between the current and expected content
// of one region
func (e *Engine) Diff(name, current, expected string) string {
	if current == expected {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(withNewline(current)),
		B:        difflib.SplitLines(withNewline(expected)),
		FromFile: name + " (document)",
		ToFile:   name + " (source)",
		Context:  e.DiffContext,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return fmt.Sprintf("diff unavailable: %v\n", err)
	}
	return text
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// WriteFile replaces path with content atomically: the data goes to a
// temporary file in the same directory which is then renamed over the
// target. The target's permission bits are preserved.
func WriteFile(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".docsync-*")
	if err != nil {
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		cleanup()
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return &types.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
