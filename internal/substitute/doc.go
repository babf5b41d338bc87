// Package substitute rewrites documentation regions from registered blocks.
//
// Apply is pure: it returns the outcomes of every region and, in replace
// mode, the new document text. WriteFile persists that text with a
// temp-file-and-rename so a reader never observes a half-written document.
//
//	result, text := engine.Apply(path, content, regions, reg, types.ModeReplace)
//	if text != nil {
//	    err = substitute.WriteFile(path, text)
//	}
//
// Region interiors are compared after normalization, so a trailing newline
// or blank lines next to the markers never count as drift.
package substitute
