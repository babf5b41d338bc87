package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dshills/docsync/internal/output"
	"github.com/dshills/docsync/internal/pipeline"
	"github.com/dshills/docsync/internal/storage"
	"github.com/dshills/docsync/internal/watcher"
	"github.com/dshills/docsync/pkg/types"
)

// ReplaceCmd rewrites documentation regions from the blocks of a source tree.
type ReplaceCmd struct {
	Collect string `arg:"" type:"path" help:"File or folder to collect blocks from"`
	Doc     string `arg:"" optional:"" type:"path" help:"Folder holding the documents (default: the collect folder)"`
	Check   bool   `help:"Report drift and unknown ids without writing"`
	DryRun  bool   `name:"dry-run" help:"Alias of --check"`
	Diff    bool   `help:"Print a unified diff for every drifted region"`
	Watch   bool   `short:"w" help:"Keep running and replace again when files change"`
	Quiet   bool   `short:"q" help:"Only print errors"`
}

func (c *ReplaceCmd) mode() types.Mode {
	if c.Check || c.DryRun {
		return types.ModeCheck
	}
	return types.ModeReplace
}

func (c *ReplaceCmd) Run(g *Globals) error {
	a, err := g.setup()
	if err != nil {
		return err
	}
	ctx, stop := signalContext(a.log)
	defer stop()

	collectRoot, err := filepath.Abs(c.Collect)
	if err != nil {
		return err
	}
	docRoot := collectRoot
	if c.Doc != "" {
		if docRoot, err = filepath.Abs(c.Doc); err != nil {
			return err
		}
	}

	failed, err := c.runOnce(ctx, a, g, collectRoot, docRoot)
	if err != nil {
		return err
	}
	if c.Watch {
		return c.watch(ctx, a, g, collectRoot, docRoot)
	}
	if failed {
		return errReported
	}
	return nil
}

// runOnce collects blocks and synchronises the documents once. failed is
// set when anything was reported as an error.
func (c *ReplaceCmd) runOnce(ctx context.Context, a *app, g *Globals, collectRoot, docRoot string) (bool, error) {
	result, err := a.pipeline.Collect(ctx, collectRoot)
	if err != nil {
		if result == nil {
			return false, err
		}
		output.WriteErrors(stderr, append(fileErrors(result), conflictErrors(err)...))
		return true, nil
	}
	// Parse errors do not stop the run: the blocks that were found are used
	output.WriteErrors(stderr, fileErrors(result))

	report, err := a.pipeline.Sync(ctx, result.Registry, docRoot, c.mode())
	if err != nil {
		return false, err
	}

	if !c.Quiet && len(report.Outcomes()) > 0 {
		if err := output.WriteTable(stdout, report); err != nil {
			return false, err
		}
	}
	if c.Diff {
		output.WriteDiffs(stdout, report, a.pipeline.Engine().Diff)
	}
	if !c.Quiet {
		output.WriteSyncSummary(stderr, report)
	}
	output.WriteErrors(stderr, report.Errors())

	if g.DB != "" {
		if err := recordSync(ctx, g, report); err != nil {
			a.log.Error("failed to record run", "db", g.DB, "error", err)
		}
	}

	return result.Failed() || report.Failed(), nil
}

// watch re-runs replace whenever a file under either root changes, until
// the context is cancelled
func (c *ReplaceCmd) watch(ctx context.Context, a *app, g *Globals, collectRoot, docRoot string) error {
	cfg := watcher.DefaultConfig()
	cfg.Debounce = a.cfg.Watch.Debounce
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, a.cfg.Walker.Exclude...)
	cfg.WatchHidden = a.cfg.Walker.IncludeHidden

	w, err := watcher.New(cfg, func(paths []string) {
		a.log.Info("files changed", "count", len(paths))
		if _, err := c.runOnce(ctx, a, g, collectRoot, docRoot); err != nil {
			if errors.Is(err, pipeline.ErrSyncInProgress) || errors.Is(err, context.Canceled) {
				a.log.Debug("skipping run", "reason", err)
				return
			}
			a.log.Error("run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	roots := []string{collectRoot}
	if docRoot != collectRoot {
		roots = append(roots, docRoot)
	}
	for _, root := range roots {
		if err := w.AddRoot(root); err != nil {
			return fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}

	a.log.Info("watching for changes", "roots", roots, "debounce", cfg.Debounce)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func recordSync(ctx context.Context, g *Globals, report *pipeline.SyncReport) error {
	store, err := g.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	kind := storage.RunReplace
	if report.Mode == types.ModeCheck {
		kind = storage.RunCheck
	}
	run := storage.NewRun(kind, report.Root)
	run.FilesScanned = report.Stats.FilesScanned
	return storage.ExportSync(ctx, store, run, report.Files)
}
