// Package pipeline coordinates the collect and replace runs of docsync.
//
// # Basic Usage
//
//	p := pipeline.New(&pipeline.Config{Workers: 8, Walker: walker.DefaultOptions()})
//
//	collected, err := p.Collect(ctx, "src")
//	if err != nil {
//	    log.Fatal(err) // duplicate ids across files
//	}
//
//	report, err := p.Sync(ctx, collected.Registry, "docs", types.ModeCheck)
//	if report.Failed() {
//	    for _, e := range report.Errors() {
//	        fmt.Println(e)
//	    }
//	}
//
// # Parallel Scan, Sequential Merge
//
// Every file is parsed on a bounded worker pool (errgroup with SetLimit).
// Workers write into a slice pre-sized to the file list, one slot per file,
// so scanning needs no locks. The merge into the registry runs afterwards
// on the completed slice in a single goroutine, which makes conflict
// reports identical whatever order the workers finished in.
//
// # Error Handling
//
// A file that fails to parse is recorded as a FileError and the walk
// continues. Binary and oversized files are skipped silently. Collect only
// returns an error for fatal conditions: an unreadable root, cancellation,
// or a block id declared in more than one file.
//
// During replace, a document with an unknown region id is not written at
// all; other documents are still rewritten. Each document is written at
// most once per run, through a temporary file renamed over the target.
package pipeline
