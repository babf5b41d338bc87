package types

// Mode selects whether the substitution engine writes documents
type Mode int

const (
	// ModeReplace rewrites documents whose regions drifted
	ModeReplace Mode = iota
	// ModeCheck only reports drift
	ModeCheck
)

func (m Mode) String() string {
	if m == ModeCheck {
		return "check"
	}
	return "replace"
}

// Status is the outcome of comparing one region with its block
type Status string

const (
	StatusUnchanged   Status = "unchanged"
	StatusReplaced    Status = "replaced"
	StatusWouldChange Status = "would_change"
	StatusUnknownID   Status = "unknown_id"
)

// OK reports whether the status leaves the run successful
func (s Status) OK() bool {
	return s == StatusUnchanged || s == StatusReplaced
}

// RegionOutcome records what happened to a single region
type RegionOutcome struct {
	ID     string
	File   string
	Line   int
	Status Status

	// Set for StatusWouldChange and StatusReplaced
	Current  string
	Expected string
}

// FileResult aggregates the outcomes of one document
type FileResult struct {
	Path     string
	Outcomes []RegionOutcome
	Written  bool
	Bytes    int
	Err      error
}

// Failed reports whether the file contributes a failure to the run
func (r *FileResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, o := range r.Outcomes {
		if !o.Status.OK() {
			return true
		}
	}
	return false
}

// Count returns how many outcomes carry the given status
func (r *FileResult) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
