package pipeline

import (
	"fmt"

	"github.com/dshills/docsync/pkg/types"
)

// SyncReport is the outcome of comparing a documentation tree with a registry
type SyncReport struct {
	Root  string
	Mode  types.Mode
	Files []*types.FileResult // documents with regions or errors, sorted by path
	Stats Statistics
}

// Failed is true when any document failed
func (r *SyncReport) Failed() bool {
	for _, f := range r.Files {
		if f.Failed() {
			return true
		}
	}
	return false
}

// Outcomes flattens the outcomes of every document, in path then line order
func (r *SyncReport) Outcomes() []types.RegionOutcome {
	var out []types.RegionOutcome
	for _, f := range r.Files {
		out = append(out, f.Outcomes...)
	}
	return out
}

// Count returns how many regions carry the given status
func (r *SyncReport) Count(status types.Status) int {
	n := 0
	for _, f := range r.Files {
		n += f.Count(status)
	}
	return n
}

// Errors lists every reportable failure: file errors, unknown ids and, in
// check mode, drift
func (r *SyncReport) Errors() []error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, FileError{Path: f.Path, Err: f.Err})
		}
		for _, o := range f.Outcomes {
			switch o.Status {
			case types.StatusUnknownID:
				errs = append(errs, &types.UnknownIDError{ID: o.ID, Path: o.File, Line: o.Line})
			case types.StatusWouldChange:
				errs = append(errs, fmt.Errorf("%s:%d: %w in %q", o.File, o.Line, types.ErrDriftDetected, o.ID))
			}
		}
	}
	return errs
}
