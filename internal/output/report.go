package output

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/dshills/docsync/internal/pipeline"
	"github.com/dshills/docsync/pkg/types"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	addedColor = color.New(color.FgGreen)
)

func statusColor(s types.Status) *color.Color {
	switch s {
	case types.StatusUnchanged:
		return okColor
	case types.StatusReplaced:
		return warnColor
	default:
		return errColor
	}
}

// relPath shortens path relative to root for display
func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !filepath.IsAbs(rel) && rel != "." {
		return filepath.ToSlash(rel)
	}
	return path
}

// WriteTable prints one row per region: id, status and location, sorted
// by path then line
func WriteTable(w io.Writer, report *pipeline.SyncReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPATH")
	for _, o := range report.Outcomes() {
		fmt.Fprintf(tw, "%s\t%s\t%s:%d\n",
			o.ID,
			statusColor(o.Status).Sprint(string(o.Status)),
			relPath(report.Root, o.File), o.Line)
	}
	return tw.Flush()
}

// WriteDiffs prints a unified diff for every region whose content differs
// from its block
func WriteDiffs(w io.Writer, report *pipeline.SyncReport, diff func(name, current, expected string) string) {
	for _, o := range report.Outcomes() {
		if o.Status != types.StatusWouldChange && o.Status != types.StatusReplaced {
			continue
		}
		name := fmt.Sprintf("%s:%d %s", relPath(report.Root, o.File), o.Line, o.ID)
		for _, line := range splitKeep(diff(name, o.Current, o.Expected)) {
			switch {
			case len(line) > 0 && line[0] == '+' && !isHeader(line):
				addedColor.Fprint(w, line)
			case len(line) > 0 && line[0] == '-' && !isHeader(line):
				errColor.Fprint(w, line)
			default:
				fmt.Fprint(w, line)
			}
		}
	}
}

func isHeader(line string) bool {
	return len(line) >= 3 && (line[:3] == "+++" || line[:3] == "---")
}

// splitKeep splits s after every newline, keeping the newlines
func splitKeep(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// WriteSyncSummary prints the one-line summary of a replace or check run
func WriteSyncSummary(w io.Writer, report *pipeline.SyncReport) {
	if report.Stats.Regions == 0 {
		fmt.Fprintf(w, "no regions found in %s (%s files scanned)\n",
			report.Root, humanize.Comma(int64(report.Stats.FilesScanned)))
		return
	}

	fmt.Fprintf(w, "%s: %d regions in %d files, %d unchanged, %d replaced, %d drifted, %d unknown",
		report.Mode,
		report.Stats.Regions, len(report.Files),
		report.Count(types.StatusUnchanged),
		report.Count(types.StatusReplaced),
		report.Count(types.StatusWouldChange),
		report.Count(types.StatusUnknownID))
	if report.Stats.FilesWritten > 0 {
		fmt.Fprintf(w, " (%d files rewritten, %s)",
			report.Stats.FilesWritten, humanize.Bytes(uint64(report.Stats.BytesWritten)))
	}
	fmt.Fprintf(w, " in %s\n", report.Stats.Duration.Round(time.Millisecond))
}

// WriteCollectSummary prints the one-line summary of a collect run
func WriteCollectSummary(w io.Writer, result *pipeline.CollectResult) {
	blocks := 0
	if result.Registry != nil {
		blocks = result.Registry.Len()
	}
	fmt.Fprintf(w, "collected %s blocks from %s files (%d skipped, %d failed) in %s\n",
		humanize.Comma(int64(blocks)),
		humanize.Comma(int64(result.Stats.FilesScanned)),
		result.Stats.FilesSkipped, result.Stats.FilesFailed,
		result.Stats.Duration.Round(time.Millisecond))
}

// WriteErrors prints every error on its own line
func WriteErrors(w io.Writer, errs []error) {
	for _, err := range errs {
		errColor.Fprint(w, "error: ")
		fmt.Fprintln(w, err)
	}
}
