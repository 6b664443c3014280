package sizesnap

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

// Reporter writes human-readable size summaries and snapshot diffs.
type Reporter struct {
	w io.Writer
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Sizes prints the summary of every file in the snapshot, in name order.
func (r *Reporter) Sizes(snap snapshot.Snapshot) {
	for _, file := range snap.Files() {
		r.Record(file, snap[file])
	}
}

// Record prints the summary of one file.
func (r *Reporter) Record(file string, rec snapshot.SizeRecord) {
	_, _ = fmt.Fprintf(r.w, "\nComputed sizes of %q\n", file)
	_, _ = fmt.Fprintf(r.w, "  bundler parsing size: %s\n", formatBytes(rec.Bundled))
	_, _ = fmt.Fprintf(r.w, "  browser parsing size (minified): %s\n", formatBytes(rec.Minified))
	_, _ = fmt.Fprintf(r.w, "  download size (minified and gzipped): %s\n", formatBytes(rec.Gzipped))

	if rec.Treeshaked != nil {
		minimal := rec.Treeshaked.Minimal
		_, _ = fmt.Fprintf(r.w, "  treeshaked with minimal resolver (production): %s\n", formatBytes(minimal.Code))
		if minimal.ImportStatements != nil {
			_, _ = fmt.Fprintf(r.w, "    import statements size of it: %s\n", formatBytes(*minimal.ImportStatements))
		}
		_, _ = fmt.Fprintf(r.w, "  treeshaked with module graph (production): %s\n", formatBytes(rec.Treeshaked.Graph.Code))
	}
}

// Mismatch prints the field-level diff of a failed match.
func (r *Reporter) Mismatch(diff snapshot.Diff) {
	_, _ = fmt.Fprintln(r.w, "\nSnapshot is not matched:")
	for _, line := range strings.Split(strings.TrimRight(diff.Format(), "\n"), "\n") {
		if line == "" {
			_, _ = fmt.Fprintln(r.w)
			continue
		}
		_, _ = fmt.Fprintf(r.w, "  %s\n", line)
	}
}

func formatBytes(n int) string {
	return humanize.Comma(int64(n)) + " B"
}
