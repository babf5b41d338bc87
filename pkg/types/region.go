package types

// Span is a half-open byte range [Start, End) inside a document
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// DocRegion is an identifier-tagged region inside a documentation file.
// Span covers only the replaceable interior: the marker lines are never
// part of it.
type DocRegion struct {
	ID              string
	File            string
	Span            Span
	ExistingContent string

	// Marker lines (1-based)
	OpenLine  int
	CloseLine int
}
