package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/docsync/internal/syntax"
	"github.com/dshills/docsync/pkg/types"
)

const (
	// DefaultMaxFileSize bounds the size of scanned files (bytes)
	DefaultMaxFileSize = 4 << 20

	// sniffLen is how much of a file is inspected for NUL bytes
	sniffLen = 8000
)

var (
	// ErrBinaryFile is returned for files that look binary
	ErrBinaryFile = errors.New("binary file")
	// ErrFileTooLarge is returned for files above the size limit
	ErrFileTooLarge = errors.New("file too large")
)

// Parser reads files from disk and dispatches them to the block or region
// scanner with an explicit syntax.
type Parser struct {
	syntax      *syntax.Syntax
	maxFileSize int64
}

// New creates a Parser. A nil syntax selects syntax.Default().
func New(syn *syntax.Syntax) *Parser {
	if syn == nil {
		syn = syntax.Default()
	}
	return &Parser{
		syntax:      syn,
		maxFileSize: DefaultMaxFileSize,
	}
}

// WithMaxFileSize sets the size limit; zero or negative disables it
func (p *Parser) WithMaxFileSize(n int64) *Parser {
	p.maxFileSize = n
	return p
}

// Syntax returns the syntax the parser was built with
func (p *Parser) Syntax() *syntax.Syntax {
	return p.syntax
}

// ParseBlockFile reads a source file and returns the blocks it declares
func (p *Parser) ParseBlockFile(path string) ([]types.SourceBlock, error) {
	content, err := p.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBlocks(path, content, p.syntax)
}

// ParseRegionFile reads a documentation file and returns its content along
// with the regions it declares
func (p *Parser) ParseRegionFile(path string) ([]byte, []types.DocRegion, error) {
	content, err := p.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	regions, err := ParseRegions(path, content, p.syntax)
	if err != nil {
		return content, nil, err
	}
	return content, regions, nil
}

// ReadFile loads a file, rejecting binary and oversized files with
// ErrBinaryFile and ErrFileTooLarge
func (p *Parser) ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &types.IOError{Op: "read", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, &types.IOError{Op: "stat", Path: path, Err: err}
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return nil, fmt.Errorf("%s: %w (%d bytes)", path, ErrFileTooLarge, info.Size())
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, &types.IOError{Op: "read", Path: path, Err: err}
	}
	if isBinary(content) {
		return nil, fmt.Errorf("%s: %w", path, ErrBinaryFile)
	}
	return content, nil
}

// IsSkippable reports whether err only means the file is not text to scan
func IsSkippable(err error) bool {
	return errors.Is(err, ErrBinaryFile) || errors.Is(err, ErrFileTooLarge)
}

func isBinary(content []byte) bool {
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.IndexByte(head, 0) >= 0
}

// line is one line of a file without its terminator
type line struct {
	text  string
	start int // byte offset of the first character
	next  int // byte offset of the following line
}

// splitLines splits content on \n, dropping a trailing \r from each line.
// A final newline does not produce an extra empty line.
func splitLines(content []byte) []line {
	var lines []line
	offset := 0
	for offset < len(content) {
		end := bytes.IndexByte(content[offset:], '\n')
		if end < 0 {
			lines = append(lines, line{
				text:  strings.TrimSuffix(string(content[offset:]), "\r"),
				start: offset,
				next:  len(content),
			})
			break
		}
		lines = append(lines, line{
			text:  strings.TrimSuffix(string(content[offset:offset+end]), "\r"),
			start: offset,
			next:  offset + end + 1,
		})
		offset += end + 1
	}
	return lines
}
