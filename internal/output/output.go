// Package output renders collect registries and replace reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/docsync/pkg/types"
)

// Format selects how a registry is rendered
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// DefaultFileName is used when a structured export targets a directory
const DefaultFileName = "docsync"

// Extension returns the file extension of a structured format
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatSQLite:
		return "db"
	default:
		return "txt"
	}
}

// Export is the structured form of a registry
type Export struct {
	Root   string        `json:"root" yaml:"root"`
	Blocks []BlockRecord `json:"blocks" yaml:"blocks"`
	Errors []string      `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// BlockRecord is one block in an Export
type BlockRecord struct {
	ID        string `json:"id" yaml:"id"`
	Content   string `json:"content" yaml:"content"`
	Path      string `json:"path" yaml:"path"`
	StartLine int    `json:"start_line" yaml:"start_line"`
	EndLine   int    `json:"end_line" yaml:"end_line"`
	Lines     int    `json:"lines" yaml:"lines"`
	Digest    string `json:"digest" yaml:"digest"`
}

// NewExport builds an Export from registered blocks
func NewExport(root string, blocks []types.SourceBlock, errs []error) *Export {
	e := &Export{Root: root, Blocks: make([]BlockRecord, 0, len(blocks))}
	for _, b := range blocks {
		e.Blocks = append(e.Blocks, BlockRecord{
			ID:        b.ID,
			Content:   b.Content,
			Path:      b.Origin.Path,
			StartLine: b.Origin.StartLine,
			EndLine:   b.Origin.EndLine,
			Lines:     b.Lines(),
			Digest:    b.DigestHex(),
		})
	}
	for _, err := range errs {
		e.Errors = append(e.Errors, err.Error())
	}
	return e
}

// Encode writes the export as JSON or YAML
func (e *Export) Encode(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(e)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(e); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not a structured format", format)
	}
}

// WriteText prints the content of every block, one after the other
func WriteText(w io.Writer, blocks []types.SourceBlock) error {
	for _, b := range blocks {
		if _, err := fmt.Fprintln(w, b.Content); err != nil {
			return err
		}
	}
	return nil
}

// WriteDir writes the content of every block to dir/<id>. Ids containing
// slashes create subdirectories; ids escaping dir are rejected.
func WriteDir(dir string, blocks []types.SourceBlock) error {
	for _, b := range blocks {
		target := filepath.Join(dir, filepath.FromSlash(b.ID))
		rel, err := filepath.Rel(dir, target)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("block id %q does not name a file below %s", b.ID, dir)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return &types.IOError{Op: "write", Path: target, Err: err}
		}
		if err := os.WriteFile(target, []byte(b.Content), 0o644); err != nil {
			return &types.IOError{Op: "write", Path: target, Err: err}
		}
	}
	return nil
}

// ResolveFile returns the file a structured export is written to: path
// itself when it has an extension, path/docsync.<ext> otherwise
func ResolveFile(path string, format Format) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return filepath.Join(path, DefaultFileName+"."+format.Extension())
}

// CreateFile creates path and its parent directories
func CreateFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &types.IOError{Op: "write", Path: path, Err: err}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, &types.IOError{Op: "write", Path: path, Err: err}
	}
	return f, nil
}
