package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) record(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, paths)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string{}, r.batches...)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(30*time.Millisecond, 100, rec.record)

	d.Add("b.md")
	d.Add("a.md")
	d.Add("b.md")

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a.md", "b.md"}, rec.snapshot()[0])
}

func TestDebouncer_MaxBatchFlushesImmediately(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(time.Hour, 2, rec.record)

	d.Add("a")
	d.Add("b")

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a", "b"}, batches[0])
}

func TestDebouncer_StopFlushesPending(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(time.Hour, 100, rec.record)

	d.Add("pending")
	d.Stop()
	d.Add("ignored")
	d.Stop()

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"pending"}, batches[0])
}

func TestDebouncer_FlushesDoNotOverlap(t *testing.T) {
	var (
		mu      sync.Mutex
		active  int
		overlap bool
		batches [][]string
	)
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	d := NewDebouncer(10*time.Millisecond, 100, func(paths []string) {
		mu.Lock()
		active++
		if active > 1 {
			overlap = true
		}
		batches = append(batches, paths)
		mu.Unlock()

		started <- struct{}{}
		if paths[0] == "first.md" {
			<-release
		}

		mu.Lock()
		active--
		mu.Unlock()
	})

	d.Add("first.md")
	<-started

	// Arrives while the first batch is still being handled
	d.Add("second.md")
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	assert.Len(t, batches, 1, "second batch must wait for the first")
	mu.Unlock()

	close(release)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("second batch was never delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, overlap)
	assert.Equal(t, [][]string{{"first.md"}, {"second.md"}}, batches)
}

func TestShouldIgnore(t *testing.T) {
	w := &Watcher{config: DefaultConfig()}

	assert.True(t, w.shouldIgnore("/repo/.README.md.docsync-123"))
	assert.True(t, w.shouldIgnore("/repo/node_modules/pkg/index.js"))
	assert.False(t, w.shouldIgnore("/repo/docs/README.md"))

	w.config.WatchHidden = true
	assert.False(t, w.shouldIgnore("/repo/.github"))
}

func TestShouldIgnore_RelativeToRoot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, "generated/**", "*.tmp")
	root := filepath.Join(t.TempDir(), "repo")
	w := &Watcher{config: cfg, roots: []string{root}}

	assert.True(t, w.shouldIgnore(filepath.Join(root, "generated", "api.md")))
	assert.True(t, w.shouldIgnore(filepath.Join(root, "generated")))
	assert.True(t, w.shouldIgnore(filepath.Join(root, "scratch.tmp")))
	assert.False(t, w.shouldIgnore(filepath.Join(root, "docs", "generated.md")))
	assert.False(t, w.shouldIgnore(filepath.Join(root, "docs", "generated", "x.md")))
}

func TestWatcher_ReportsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o755))

	rec := &recorder{}
	cfg := DefaultConfig()
	cfg.Debounce = 20 * time.Millisecond
	w, err := New(cfg, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.AddRoot(root))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	target := filepath.Join(root, "docs", "README.md")
	require.NoError(t, os.WriteFile(target, []byte("hello"), 0o644))

	require.Eventually(t, func() bool {
		for _, batch := range rec.snapshot() {
			for _, p := range batch {
				if p == target {
					return true
				}
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
