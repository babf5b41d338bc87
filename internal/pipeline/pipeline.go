package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/docsync/internal/logger"
	"github.com/dshills/docsync/internal/parser"
	"github.com/dshills/docsync/internal/registry"
	"github.com/dshills/docsync/internal/substitute"
	"github.com/dshills/docsync/internal/syntax"
	"github.com/dshills/docsync/internal/walker"
	"github.com/dshills/docsync/pkg/types"
)

// ErrSyncInProgress is returned when a replace run is requested while another
// one is still writing
var ErrSyncInProgress = errors.New("replace already in progress")

// Pipeline coordinates a run: walk -> parse (parallel) -> merge or substitute
type Pipeline struct {
	parser *parser.Parser
	walker *walker.Walker
	engine *substitute.Engine
	log    *slog.Logger

	// Worker pool configuration
	workers int

	// Held by replace runs
	lock RunLock
}

// Config contains configuration for the pipeline
type Config struct {
	Workers     int            // Number of concurrent workers (default: runtime.NumCPU())
	MaxFileSize int64          // Size limit for scanned files (default: parser.DefaultMaxFileSize)
	Walker      walker.Options // File selection
	Syntax      *syntax.Syntax // Marker syntax (default: syntax.Default())
	Logger      *slog.Logger   // default: logger.ForComponent("pipeline")
}

// FileError attributes a failure to the file it happened in
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Statistics contains statistics about one run
type Statistics struct {
	FilesScanned int
	FilesSkipped int
	FilesFailed  int
	Blocks       int
	Regions      int
	FilesWritten int
	BytesWritten int
	Duration     time.Duration
}

// CollectResult is the outcome of scanning a source tree
type CollectResult struct {
	Root     string
	Registry *registry.Registry // nil when the merge failed
	Errors   []FileError
	Stats    Statistics
}

// Failed reports whether any source file could not be parsed
func (r *CollectResult) Failed() bool {
	return len(r.Errors) > 0
}

// New creates a new Pipeline instance
func New(cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = &Config{Walker: walker.DefaultOptions()}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	maxSize := cfg.MaxFileSize
	if maxSize == 0 {
		maxSize = parser.DefaultMaxFileSize
	}
	log := cfg.Logger
	if log == nil {
		log = logger.ForComponent("pipeline")
	}

	return &Pipeline{
		parser:  parser.New(cfg.Syntax).WithMaxFileSize(maxSize),
		walker:  walker.New(cfg.Walker),
		engine:  substitute.New(),
		log:     log,
		workers: workers,
	}
}

// Engine returns the substitution engine, for rendering diffs
func (p *Pipeline) Engine() *substitute.Engine {
	return p.engine
}

// Collect scans every source file below root in parallel and merges the
// blocks found into a registry. Files that fail to parse are recorded in
// the result and do not stop the walk. A merge conflict is returned as the
// error, together with a result whose Registry is nil.
func (p *Pipeline) Collect(ctx context.Context, root string) (*CollectResult, error) {
	start := time.Now()
	result := &CollectResult{Root: root}

	files, err := p.walker.Files(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	p.log.Debug("discovered source files", "root", root, "files", len(files))

	type parsed struct {
		blocks []types.SourceBlock
		err    error
	}
	results := make([]parsed, len(files))

	err = p.forEach(ctx, files, func(i int, path string) {
		blocks, err := p.parser.ParseBlockFile(path)
		results[i] = parsed{blocks: blocks, err: err}
	})
	if err != nil {
		return nil, err
	}

	// Sequential fold over the completed sequence
	var blocks []types.SourceBlock
	for i, r := range results {
		switch {
		case r.err == nil:
			result.Stats.FilesScanned++
			blocks = append(blocks, r.blocks...)
		case parser.IsSkippable(r.err):
			result.Stats.FilesSkipped++
			p.log.Debug("skipping file", "path", files[i], "reason", r.err)
		default:
			result.Stats.FilesFailed++
			result.Errors = append(result.Errors, FileError{Path: files[i], Err: r.err})
			p.log.Error("failed to parse source file", "path", files[i], "error", r.err)
		}
	}

	reg, err := registry.Merge(blocks)
	result.Stats.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	result.Registry = reg
	result.Stats.Blocks = reg.Len()
	p.log.Info("collected blocks",
		"root", root,
		"files", result.Stats.FilesScanned,
		"blocks", result.Stats.Blocks,
		"failed", result.Stats.FilesFailed,
		"duration", result.Stats.Duration)
	return result, nil
}

// Sync compares every documentation file below docRoot with the registry.
// In ModeReplace drifted files are rewritten, each at most once and
// atomically. Per-file failures are part of the report; the error is only
// set when the run itself could not proceed.
func (p *Pipeline) Sync(ctx context.Context, reg *registry.Registry, docRoot string, mode types.Mode) (*SyncReport, error) {
	if mode == types.ModeReplace {
		if !p.lock.TryAcquire() {
			return nil, ErrSyncInProgress
		}
		defer p.lock.Release()
	}

	start := time.Now()
	report := &SyncReport{Root: docRoot, Mode: mode}

	files, err := p.walker.Files(ctx, docRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	p.log.Debug("discovered documentation files", "root", docRoot, "files", len(files))

	results := make([]*types.FileResult, len(files))
	skipped := make([]bool, len(files))

	err = p.forEach(ctx, files, func(i int, path string) {
		res, skip := p.syncFile(reg, path, mode)
		results[i] = res
		skipped[i] = skip
	})
	if err != nil {
		return nil, err
	}

	for i, res := range results {
		if skipped[i] {
			report.Stats.FilesSkipped++
			continue
		}
		report.Stats.FilesScanned++
		if res == nil {
			continue
		}
		report.Files = append(report.Files, res)
		report.Stats.Regions += len(res.Outcomes)
		if res.Err != nil {
			report.Stats.FilesFailed++
			p.log.Error("failed to process document", "path", res.Path, "error", res.Err)
		}
		if res.Written {
			report.Stats.FilesWritten++
			report.Stats.BytesWritten += res.Bytes
		}
	}
	sort.Slice(report.Files, func(i, j int) bool {
		return report.Files[i].Path < report.Files[j].Path
	})
	report.Stats.Duration = time.Since(start)

	if report.Stats.Regions == 0 && report.Stats.FilesFailed == 0 {
		p.log.Info("no regions found", "root", docRoot)
	}
	p.log.Info("synced documents",
		"root", docRoot,
		"mode", mode.String(),
		"files", report.Stats.FilesScanned,
		"regions", report.Stats.Regions,
		"written", report.Stats.FilesWritten,
		"duration", report.Stats.Duration)
	return report, nil
}

// syncFile handles one document. It returns nil for documents without
// regions, and true when the file is not text.
func (p *Pipeline) syncFile(reg *registry.Registry, path string, mode types.Mode) (*types.FileResult, bool) {
	content, regions, err := p.parser.ParseRegionFile(path)
	if err != nil {
		if parser.IsSkippable(err) {
			p.log.Debug("skipping file", "path", path, "reason", err)
			return nil, true
		}
		return &types.FileResult{Path: path, Err: err}, false
	}
	if len(regions) == 0 {
		return nil, false
	}

	result, text := p.engine.Apply(path, content, regions, reg, mode)
	if text == nil {
		return result, false
	}

	if err := substitute.WriteFile(path, text); err != nil {
		// Nothing reached the target: report the regions as still drifted
		for i := range result.Outcomes {
			if result.Outcomes[i].Status == types.StatusReplaced {
				result.Outcomes[i].Status = types.StatusWouldChange
			}
		}
		result.Err = err
		return result, false
	}
	result.Written = true
	result.Bytes = len(text)
	p.log.Debug("rewrote document", "path", path, "regions", result.Count(types.StatusReplaced))
	return result, false
}

// forEach runs fn for every file on the worker pool. Results are written by
// index, so fn needs no locking. Cancellation stops scheduling new files.
func (p *Pipeline) forEach(ctx context.Context, files []string, fn func(i int, path string)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, path := range files {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
