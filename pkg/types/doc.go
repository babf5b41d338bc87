// Package types provides the shared domain types of docsync.
//
// A SourceBlock is an identifier-tagged region of source text:
//
//	// START <id:adding_numbers>
//	func add(a, b int) int {
//		return a + b
//	}
//	// END
//
// A DocRegion is the matching region inside a documentation file:
//
//	<!-- adding_numbers -->
//	placeholder
//	<!-- adding_numbers -->
//
// Block content is normalized with Normalize: blank lines adjacent to the
// markers are dropped, everything else is kept verbatim.
//
// # Errors
//
// Every failure unwraps to one of the Err* kinds:
//
//	var merr *types.MarkerError
//	if errors.As(err, &merr) && errors.Is(err, types.ErrNestedBlock) {
//	    fmt.Printf("nested block at %s:%d\n", merr.Path, merr.Line)
//	}
package types
