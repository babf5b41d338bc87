package registry

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docsync/pkg/types"
)

func block(id, path string, line int) types.SourceBlock {
	return types.SourceBlock{
		ID:      id,
		Content: fmt.Sprintf("%s from %s", id, path),
		Origin:  types.Origin{Path: path, StartLine: line, EndLine: line + 2},
	}
}

func TestMerge(t *testing.T) {
	reg, err := Merge([]types.SourceBlock{
		block("b", "src/two.go", 1),
		block("a", "src/one.go", 4),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, []string{"a", "b"}, reg.IDs())

	a, ok := reg.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a from src/one.go", a.Content)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	blocks := reg.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "a", blocks[0].ID)
	assert.Equal(t, "b", blocks[1].ID)
}

func TestMerge_Empty(t *testing.T) {
	reg, err := Merge(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, reg.IDs())
}

func TestMerge_Conflict(t *testing.T) {
	reg, err := Merge([]types.SourceBlock{
		block("x", "b/two.go", 3),
		block("y", "a/one.go", 9),
		block("x", "a/one.go", 1),
	})
	require.Error(t, err)
	assert.Nil(t, reg)
	assert.True(t, errors.Is(err, types.ErrDuplicateIDAcrossFiles))

	conflicts := Conflicts(err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "x", conflicts[0].ID)
	assert.Equal(t, "a/one.go", conflicts[0].First.Path)
	assert.Equal(t, "b/two.go", conflicts[0].Second.Path)
	assert.Contains(t, err.Error(), "a/one.go:1")
	assert.Contains(t, err.Error(), "b/two.go:3")
}

func TestMerge_ConflictIsOrderIndependent(t *testing.T) {
	blocks := []types.SourceBlock{
		block("x", "pkg/a.go", 1),
		block("x", "pkg/b.go", 1),
		block("x", "docs/c.go", 7),
		block("z", "z.go", 1),
		block("z", "y.go", 2),
		block("ok", "ok.go", 1),
	}

	want := ""
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := make([]types.SourceBlock, len(blocks))
		copy(shuffled, blocks)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		_, err := Merge(shuffled)
		require.Error(t, err)
		if want == "" {
			want = err.Error()
			continue
		}
		assert.Equal(t, want, err.Error(), "iteration %d", i)
	}

	assert.Len(t, Conflicts(errors.New("unrelated")), 0)
}

func TestMerge_RejectsInvalidBlocks(t *testing.T) {
	noOrigin := types.SourceBlock{ID: "loose", Content: "x"}
	blank := block(" ", "a.go", 4)

	reg, err := Merge([]types.SourceBlock{block("ok", "ok.go", 1), noOrigin, blank})
	require.Error(t, err)
	assert.Nil(t, reg)
	assert.ErrorIs(t, err, types.ErrInvalidBlock)
	assert.Contains(t, err.Error(), "a.go:4")
	assert.Empty(t, Conflicts(err))
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	blocks := []types.SourceBlock{block("b", "z.go", 1), block("a", "a.go", 1)}
	_, err := Merge(blocks)
	require.NoError(t, err)
	assert.Equal(t, "b", blocks[0].ID)
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	var blocks []types.SourceBlock
	for i := 0; i < 100; i++ {
		blocks = append(blocks, block(fmt.Sprintf("id-%03d", i), fmt.Sprintf("f%03d.go", i), 1))
	}
	reg, err := Merge(blocks)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_, ok := reg.Get(fmt.Sprintf("id-%03d", i))
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}
