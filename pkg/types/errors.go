package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced while scanning, merging or substituting
// unwraps to one of these, so callers can classify with errors.Is.
var (
	ErrUnterminatedBlock      = errors.New("unterminated block")
	ErrNestedBlock            = errors.New("nested block")
	ErrUnexpectedEnd          = errors.New("end marker without open block")
	ErrMalformedMarker        = errors.New("malformed marker")
	ErrDuplicateIDInFile      = errors.New("duplicate block id in file")
	ErrDuplicateIDAcrossFiles = errors.New("duplicate block id across files")
	ErrUnterminatedRegion     = errors.New("unterminated region")
	ErrRegionIDMismatch       = errors.New("region id mismatch")
	ErrDuplicateRegionInFile  = errors.New("duplicate region in file")
	ErrUnknownID              = errors.New("unknown block id")
	ErrDriftDetected          = errors.New("drift detected")
	ErrIO                     = errors.New("i/o error")
	ErrInvalidBlock           = errors.New("invalid block")
)

// MarkerError reports a malformed marker layout inside a single file
type MarkerError struct {
	Kind error
	Path string
	Line int
	ID   string

	// Line of the marker the error relates to (opening marker, first
	// declaration), zero when not applicable
	Related int
	Detail  string
}

func (e *MarkerError) Error() string {
	msg := fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Kind)
	if e.ID != "" {
		msg += fmt.Sprintf(" %q", e.ID)
	}
	if e.Related > 0 {
		msg += fmt.Sprintf(" (see line %d)", e.Related)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *MarkerError) Unwrap() error {
	return e.Kind
}

// ConflictError reports a block id declared more than once in the source tree.
// First always sorts before Second, whatever order the files were scanned in.
type ConflictError struct {
	ID     string
	First  Origin
	Second Origin
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %q declared at %s and %s", ErrDuplicateIDAcrossFiles, e.ID, e.First, e.Second)
}

func (e *ConflictError) Unwrap() error {
	return ErrDuplicateIDAcrossFiles
}

// UnknownIDError reports a document region that references no source block
type UnknownIDError struct {
	ID   string
	Path string
	Line int
}

func (e *UnknownIDError) Error() string {
	return fmt.Sprintf("%s:%d: %v %q", e.Path, e.Line, ErrUnknownID, e.ID)
}

func (e *UnknownIDError) Unwrap() error {
	return ErrUnknownID
}

// IOError wraps a failed file system operation
type IOError struct {
	Op   string // read, write, stat, walk
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both ErrIO and the underlying error
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// NewMarkerError builds a MarkerError for the given kind
func NewMarkerError(kind error, path string, line int, id string) *MarkerError {
	return &MarkerError{Kind: kind, Path: path, Line: line, ID: id}
}
