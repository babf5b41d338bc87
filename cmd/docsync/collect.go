package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dshills/docsync/internal/output"
	"github.com/dshills/docsync/internal/pipeline"
	"github.com/dshills/docsync/internal/registry"
	"github.com/dshills/docsync/internal/storage"
)

// CollectCmd scans a source tree and prints or exports its blocks.
type CollectCmd struct {
	Path   string `arg:"" optional:"" default:"." type:"path" help:"File or folder to scan (default: current directory)"`
	Format string `short:"f" default:"text" enum:"text,json,yaml,sqlite" help:"Output format (text, json, yaml, sqlite)"`
	Output string `short:"o" type:"path" help:"Output file, or folder (text writes one file per block id)"`
}

func (c *CollectCmd) Run(g *Globals) error {
	format := output.Format(c.Format)
	if format == output.FormatSQLite && c.Output == "" {
		return fmt.Errorf("%w: --format sqlite requires --output", errUsage)
	}

	a, err := g.setup()
	if err != nil {
		return err
	}
	ctx, stop := signalContext(a.log)
	defer stop()

	root, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}

	result, err := a.pipeline.Collect(ctx, root)
	if err != nil {
		if result == nil {
			return err
		}
		// Duplicate ids: nothing is written
		output.WriteErrors(stderr, append(fileErrors(result), conflictErrors(err)...))
		return errReported
	}

	if err := c.write(ctx, result); err != nil {
		return err
	}

	if g.DB != "" && format != output.FormatSQLite {
		if err := recordCollect(ctx, g, result); err != nil {
			a.log.Error("failed to record run", "db", g.DB, "error", err)
		}
	}

	output.WriteCollectSummary(stderr, result)
	if result.Failed() {
		output.WriteErrors(stderr, fileErrors(result))
		return errReported
	}
	return nil
}

// write renders the registry in the selected format
func (c *CollectCmd) write(ctx context.Context, result *pipeline.CollectResult) error {
	format := output.Format(c.Format)
	blocks := result.Registry.Blocks()

	switch format {
	case output.FormatText:
		if c.Output == "" {
			return output.WriteText(stdout, blocks)
		}
		return output.WriteDir(c.Output, blocks)

	case output.FormatSQLite:
		path := output.ResolveFile(c.Output, format)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		store, err := storage.NewSQLiteStorage(path)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		return exportCollect(ctx, store, result)

	default:
		export := output.NewExport(result.Root, blocks, fileErrors(result))
		if c.Output == "" {
			return export.Encode(stdout, format)
		}
		f, err := output.CreateFile(output.ResolveFile(c.Output, format))
		if err != nil {
			return err
		}
		if err := export.Encode(f, format); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}
}

func recordCollect(ctx context.Context, g *Globals, result *pipeline.CollectResult) error {
	store, err := g.openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return exportCollect(ctx, store, result)
}

func exportCollect(ctx context.Context, store storage.Storage, result *pipeline.CollectResult) error {
	run := storage.NewRun(storage.RunCollect, result.Root)
	run.FilesScanned = result.Stats.FilesScanned

	failures := make([]storage.FileError, 0, len(result.Errors))
	for _, e := range result.Errors {
		failures = append(failures, storage.FileError{FilePath: e.Path, Message: e.Err.Error()})
	}
	return storage.ExportCollect(ctx, store, run, result.Registry.Blocks(), failures)
}

func fileErrors(result *pipeline.CollectResult) []error {
	errs := make([]error, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, e)
	}
	return errs
}

func conflictErrors(err error) []error {
	conflicts := registry.Conflicts(err)
	if len(conflicts) == 0 {
		return []error{err}
	}
	errs := make([]error, 0, len(conflicts))
	for _, c := range conflicts {
		errs = append(errs, c)
	}
	return errs
}
