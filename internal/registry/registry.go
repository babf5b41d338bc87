// Package registry builds the id-to-block mapping of one run.
//
// Merge takes the complete sequence of parsed blocks, so the outcome never
// depends on the order in which files were scanned. Once built, a Registry
// is never mutated and may be shared by any number of goroutines.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dshills/docsync/pkg/types"
)

// Registry maps block ids to blocks
type Registry struct {
	blocks map[string]types.SourceBlock
	ids    []string
}

// Merge builds a Registry from every block found in the source tree. Each id
// declared more than once yields a *types.ConflictError naming both
// origins, and each block failing Validate yields an error wrapping
// types.ErrInvalidBlock. All of them are returned joined, and no registry is
// built.
func Merge(blocks []types.SourceBlock) (*Registry, error) {
	sorted := make([]types.SourceBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Origin.Less(sorted[j].Origin)
	})

	reg := &Registry{
		blocks: make(map[string]types.SourceBlock, len(sorted)),
		ids:    make([]string, 0, len(sorted)),
	}

	var invalid, conflicts []error
	for _, b := range sorted {
		if err := b.Validate(); err != nil {
			invalid = append(invalid, fmt.Errorf("%s: %w", b.Origin, err))
			continue
		}
		if first, exists := reg.blocks[b.ID]; exists {
			conflicts = append(conflicts, &types.ConflictError{
				ID:     b.ID,
				First:  first.Origin,
				Second: b.Origin,
			})
			continue
		}
		reg.blocks[b.ID] = b
		reg.ids = append(reg.ids, b.ID)
	}

	if len(invalid) > 0 || len(conflicts) > 0 {
		sort.SliceStable(conflicts, func(i, j int) bool {
			return conflicts[i].(*types.ConflictError).ID < conflicts[j].(*types.ConflictError).ID
		})
		return nil, errors.Join(append(invalid, conflicts...)...)
	}

	sort.Strings(reg.ids)
	return reg, nil
}

// Get returns the block registered under id
func (r *Registry) Get(id string) (types.SourceBlock, bool) {
	b, ok := r.blocks[id]
	return b, ok
}

// Len returns the number of registered blocks
func (r *Registry) Len() int {
	return len(r.ids)
}

// IDs returns the registered ids in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.ids))
	copy(ids, r.ids)
	return ids
}

// Blocks returns every block, sorted by id
func (r *Registry) Blocks() []types.SourceBlock {
	blocks := make([]types.SourceBlock, 0, len(r.ids))
	for _, id := range r.ids {
		blocks = append(blocks, r.blocks[id])
	}
	return blocks
}

// Conflicts extracts the individual conflicts from an error returned by Merge
func Conflicts(err error) []*types.ConflictError {
	var out []*types.ConflictError
	var single *types.ConflictError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if errors.As(e, &single) {
				out = append(out, single)
			}
		}
		return out
	}
	if errors.As(err, &single) {
		out = append(out, single)
	}
	return out
}
