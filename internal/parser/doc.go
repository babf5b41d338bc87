// Package parser locates blocks in source files and regions in
// documentation files.
//
// Both scanners are pure functions of (path, content, syntax). The path is
// only used for diagnostics and, for regions, to recognize Markdown files.
//
// # Basic Usage
//
//	p := parser.New(syntax.Default())
//
//	blocks, err := p.ParseBlockFile("example/add.go")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range blocks {
//	    fmt.Printf("%s (%s)\n", b.ID, b.Origin)
//	}
//
// # Blocks
//
// A block starts with a line matching the start pattern, which carries the
// id, and ends with the next line matching the end pattern of the same
// block pattern:
//
//	// START <id:adding_numbers>
//	fn add_numbers(a: i32, b: i32) -> i32 {
//	    a + b
//	}
//	// END
//
// Blocks do not nest. Content is every line strictly between the markers,
// passed through the configured filters and normalized with
// types.Normalize.
//
// # Regions
//
// A region is enclosed by two identical marker lines:
//
//	<!-- adding_numbers -->
//	anything, replaced on sync
//	<!-- adding_numbers -->
//
// DocRegion.Span covers the interior only, so rewriting it leaves the
// markers untouched.
//
// # Error Handling
//
// The first malformed marker aborts the scan of that file and is returned as
// a *types.MarkerError. Files with no markers yield an empty slice.
// ReadFile returns ErrBinaryFile or ErrFileTooLarge for files that should be
// skipped rather than reported.
package parser
