package types

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkerError(t *testing.T) {
	err := &MarkerError{Kind: ErrNestedBlock, Path: "a.go", Line: 7, ID: "inner", Related: 3}

	assert.True(t, errors.Is(err, ErrNestedBlock))
	assert.False(t, errors.Is(err, ErrUnterminatedBlock))
	assert.Equal(t, `a.go:7: nested block "inner" (see line 3)`, err.Error())

	var merr *MarkerError
	require.True(t, errors.As(error(err), &merr))
	assert.Equal(t, 7, merr.Line)
}

func TestConflictError(t *testing.T) {
	err := &ConflictError{
		ID:     "x",
		First:  Origin{Path: "a/one.go", StartLine: 1},
		Second: Origin{Path: "b/two.go", StartLine: 4},
	}

	assert.True(t, errors.Is(err, ErrDuplicateIDAcrossFiles))
	assert.Contains(t, err.Error(), "a/one.go:1")
	assert.Contains(t, err.Error(), "b/two.go:4")
}

func TestIOError_UnwrapsBoth(t *testing.T) {
	err := &IOError{Op: "read", Path: "missing.md", Err: fs.ErrNotExist}

	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, "failed to read missing.md: file does not exist", err.Error())
}

func TestFileResult_Failed(t *testing.T) {
	ok := &FileResult{Outcomes: []RegionOutcome{{Status: StatusUnchanged}, {Status: StatusReplaced}}}
	assert.False(t, ok.Failed())

	drift := &FileResult{Outcomes: []RegionOutcome{{Status: StatusUnchanged}, {Status: StatusWouldChange}}}
	assert.True(t, drift.Failed())
	assert.Equal(t, 1, drift.Count(StatusWouldChange))

	broken := &FileResult{Err: errors.New("boom")}
	assert.True(t, broken.Failed())
}
