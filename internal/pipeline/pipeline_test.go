package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/docsync/internal/logger"
	"github.com/dshills/docsync/internal/registry"
	"github.com/dshills/docsync/internal/walker"
	"github.com/dshills/docsync/pkg/types"
)

// createTestFile creates a file below dir, creating parent directories
func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()

	filePath := filepath.Join(dir, filepath.FromSlash(name))
	err := os.MkdirAll(filepath.Dir(filePath), 0755)
	require.NoError(t, err)

	err = os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err)

	return filePath
}

func newTestPipeline(workers int) *Pipeline {
	return New(&Config{
		Workers: workers,
		Walker:  walker.DefaultOptions(),
		Logger:  logger.Discard(),
	})
}

// TestNew verifies pipeline initialization
func TestNew(t *testing.T) {
	p := New(nil)

	assert.NotNil(t, p.parser)
	assert.NotNil(t, p.walker)
	assert.NotNil(t, p.engine)
	assert.Greater(t, p.workers, 0)

	assert.Equal(t, 3, newTestPipeline(3).workers)
}

// TestCollect_Success tests a clean source tree
func TestCollect_Success(t *testing.T) {
	root := t.TempDir()
	createTestFile(t, root, "calc/add.go", "package calc\n\n// START <id:add>\nfunc add(a, b int) int { return a + b }\n// END\n")
	createTestFile(t, root, "calc/sub.py", "# START <id:sub>\ndef sub(a, b):\n    return a - b\n# END\n")
	createTestFile(t, root, "README.md", "no markers here\n")

	result, err := newTestPipeline(4).Collect(context.Background(), root)
	require.NoError(t, err)
	require.NotNil(t, result.Registry)

	assert.False(t, result.Failed())
	assert.Equal(t, []string{"add", "sub"}, result.Registry.IDs())
	assert.Equal(t, 3, result.Stats.FilesScanned)
	assert.Equal(t, 2, result.Stats.Blocks)

	sub, ok := result.Registry.Get("sub")
	require.True(t, ok)
	assert.Equal(t, "def sub(a, b):\n    return a - b", sub.Content)
	assert.Equal(t, filepath.Join(root, "calc", "sub.py"), sub.Origin.Path)
}

// TestCollect_ParseErrorsDoNotStopTheWalk tests per-file error collection
func TestCollect_ParseErrorsDoNotStopTheWalk(t *testing.T) {
	root := t.TempDir()
	createTestFile(t, root, "good.go", "// START <id:good>\nok\n// END\n")
	createTestFile(t, root, "open.go", "// START <id:open>\nnever closed\n")
	createTestFile(t, root, "nested.go", "// START <id:a>\n// START <id:b>\n// END\n")

	result, err := newTestPipeline(2).Collect(context.Background(), root)
	require.NoError(t, err)

	assert.True(t, result.Failed())
	assert.Equal(t, []string{"good"}, result.Registry.IDs())
	assert.Equal(t, 2, result.Stats.FilesFailed)
	require.Len(t, result.Errors, 2)

	// Sorted by path: nested.go, open.go
	assert.True(t, errors.Is(result.Errors[0], types.ErrNestedBlock))
	assert.True(t, errors.Is(result.Errors[1], types.ErrUnterminatedBlock))
	assert.Contains(t, result.Errors[1].Error(), "open.go")
}

// TestCollect_DuplicateAcrossFiles tests the two-file duplicate scenario
func TestCollect_DuplicateAcrossFiles(t *testing.T) {
	root := t.TempDir()
	first := createTestFile(t, root, "a/one.go", "// START <id:x>\none\n// END\n")
	second := createTestFile(t, root, "b/two.go", "// START <id:x>\ntwo\n// END\n")

	for _, workers := range []int{1, 8} {
		result, err := newTestPipeline(workers).Collect(context.Background(), root)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrDuplicateIDAcrossFiles))
		assert.Nil(t, result.Registry)

		conflicts := registry.Conflicts(err)
		require.Len(t, conflicts, 1)
		assert.Equal(t, first, conflicts[0].First.Path)
		assert.Equal(t, second, conflicts[0].Second.Path)
	}
}

// TestCollect_SkipsBinaryAndLargeFiles tests read-time skipping
func TestCollect_SkipsBinaryAndLargeFiles(t *testing.T) {
	root := t.TempDir()
	createTestFile(t, root, "blob.bin", "// START <id:bin>\x00\n// END\n")
	createTestFile(t, root, "big.go", "// START <id:big>\n"+string(make([]byte, 64))+"\n// END\n")
	createTestFile(t, root, "small.go", "// START <id:small>\nx\n// END\n")

	p := New(&Config{MaxFileSize: 40, Walker: walker.DefaultOptions(), Logger: logger.Discard()})
	result, err := p.Collect(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{"small"}, result.Registry.IDs())
	assert.Equal(t, 2, result.Stats.FilesSkipped)
	assert.False(t, result.Failed())
}

// TestCollect_MissingRoot tests an unreadable root
func TestCollect_MissingRoot(t *testing.T) {
	_, err := newTestPipeline(1).Collect(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrIO))
}

// TestCollect_Cancelled tests that cancellation aborts the run
func TestCollect_Cancelled(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.go", "b.go", "c.go"} {
		createTestFile(t, root, name, "package x\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(1).Collect(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}

// TestSync_Replace tests rewriting and the skip of unknown ids
func TestSync_Replace(t *testing.T) {
	src := t.TempDir()
	docs := t.TempDir()
	createTestFile(t, src, "add.go", "// START <id:add>\nreturn a + b\n// END\n")
	good := createTestFile(t, docs, "good.md", "<!-- add -->\nstale\n<!-- add -->\n")
	unknownBody := "<!-- add -->\nstale\n<!-- add -->\n<!-- nope -->\n<!-- nope -->\n"
	unknown := createTestFile(t, docs, "unknown.md", unknownBody)
	createTestFile(t, docs, "plain.md", "nothing to see\n")

	p := newTestPipeline(4)
	collected, err := p.Collect(context.Background(), src)
	require.NoError(t, err)

	report, err := p.Sync(context.Background(), collected.Registry, docs, types.ModeReplace)
	require.NoError(t, err)

	require.Len(t, report.Files, 2)
	assert.Equal(t, good, report.Files[0].Path)
	assert.True(t, report.Files[0].Written)
	assert.Equal(t, unknown, report.Files[1].Path)
	assert.False(t, report.Files[1].Written)

	assert.True(t, report.Failed())
	assert.Equal(t, 1, report.Count(types.StatusReplaced))
	assert.Equal(t, 1, report.Count(types.StatusUnknownID))
	assert.Equal(t, 1, report.Stats.FilesWritten)
	assert.Equal(t, 3, report.Stats.FilesScanned)

	got, err := os.ReadFile(good)
	require.NoError(t, err)
	assert.Equal(t, "<!-- add -->\nreturn a + b\n<!-- add -->\n", string(got))

	untouched, err := os.ReadFile(unknown)
	require.NoError(t, err)
	assert.Equal(t, unknownBody, string(untouched))

	var unknownErr *types.UnknownIDError
	errs := report.Errors()
	require.NotEmpty(t, errs)
	assert.True(t, errors.As(errs[0], &unknownErr) || errors.Is(errs[0], types.ErrDriftDetected))
}

// TestSync_Check tests that check mode never writes
func TestSync_Check(t *testing.T) {
	src := t.TempDir()
	createTestFile(t, src, "add.go", "// START <id:add>\nreturn a + b\n// END\n")
	doc := createTestFile(t, src, "README.md", "<!-- add -->\nstale\n<!-- add -->\n")

	p := newTestPipeline(2)
	collected, err := p.Collect(context.Background(), src)
	require.NoError(t, err)

	report, err := p.Sync(context.Background(), collected.Registry, src, types.ModeCheck)
	require.NoError(t, err)
	assert.True(t, report.Failed())
	assert.Equal(t, 1, report.Count(types.StatusWouldChange))
	assert.Equal(t, 0, report.Stats.FilesWritten)

	errs := report.Errors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], types.ErrDriftDetected)

	got, err := os.ReadFile(doc)
	require.NoError(t, err)
	assert.Equal(t, "<!-- add -->\nstale\n<!-- add -->\n", string(got))
}

// TestSync_RegionErrorsAreAttributed tests per-document parse failures
func TestSync_RegionErrorsAreAttributed(t *testing.T) {
	docs := t.TempDir()
	createTestFile(t, docs, "broken.md", "<!-- a -->\nunterminated\n")

	reg, err := registry.Merge(nil)
	require.NoError(t, err)

	report, err := newTestPipeline(1).Sync(context.Background(), reg, docs, types.ModeReplace)
	require.NoError(t, err)
	require.Len(t, report.Files, 1)
	assert.ErrorIs(t, report.Files[0].Err, types.ErrUnterminatedRegion)
	assert.Equal(t, 1, report.Stats.FilesFailed)
	assert.True(t, report.Failed())
}

// TestSync_NoRegions tests that an empty documentation tree is valid
func TestSync_NoRegions(t *testing.T) {
	docs := t.TempDir()
	createTestFile(t, docs, "README.md", "# Nothing\n")

	reg, err := registry.Merge(nil)
	require.NoError(t, err)

	report, err := newTestPipeline(1).Sync(context.Background(), reg, docs, types.ModeCheck)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Empty(t, report.Files)
	assert.Equal(t, 0, report.Stats.Regions)
}

// TestSync_RejectsConcurrentReplace tests the run lock
func TestSync_RejectsConcurrentReplace(t *testing.T) {
	reg, err := registry.Merge(nil)
	require.NoError(t, err)

	p := newTestPipeline(1)
	require.True(t, p.lock.TryAcquire())

	_, err = p.Sync(context.Background(), reg, t.TempDir(), types.ModeReplace)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	// Check mode never writes and does not need the lock
	_, err = p.Sync(context.Background(), reg, t.TempDir(), types.ModeCheck)
	assert.NoError(t, err)

	p.lock.Release()
	_, err = p.Sync(context.Background(), reg, t.TempDir(), types.ModeReplace)
	assert.NoError(t, err)
}

// TestRunLock_ConcurrentAcquisition tests that exactly one goroutine wins
func TestRunLock_ConcurrentAcquisition(t *testing.T) {
	var lock RunLock
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if lock.TryAcquire() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	lock.Release()
	assert.True(t, lock.TryAcquire())
}
