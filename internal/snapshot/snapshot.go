// Package snapshot holds the size snapshot model, its JSON codec and the
// reconciliation of freshly computed sizes against a stored baseline.
package snapshot

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SizeRecord holds the computed sizes of one output file, in bytes.
type SizeRecord struct {
	Bundled    int              `json:"bundled" yaml:"bundled"`
	Minified   int              `json:"minified" yaml:"minified"`
	Gzipped    int              `json:"gzipped" yaml:"gzipped"`
	Treeshaked *TreeshakeRecord `json:"treeshaked,omitempty" yaml:"treeshaked,omitempty"`
}

// TreeshakeRecord holds the sizes left after re-bundling a zero-import probe
// through both treeshake pipelines. The wire names are kept stable for
// existing snapshot files.
type TreeshakeRecord struct {
	Minimal PipelineResult `json:"rollup" yaml:"rollup"`
	Graph   PipelineResult `json:"webpack" yaml:"webpack"`
}

// PipelineResult is the output of one treeshake pipeline. ImportStatements is
// the part of Code made of import/export declarations and is only set when
// such declarations survived.
type PipelineResult struct {
	Code             int  `json:"code" yaml:"code"`
	ImportStatements *int `json:"import_statements,omitempty" yaml:"import_statements,omitempty"`
}

// Snapshot maps output file names, relative to the project root with forward
// slashes, to their sizes.
type Snapshot map[string]SizeRecord

// Files returns the snapshot's file names in sorted order.
func (s Snapshot) Files() []string {
	files := make([]string, 0, len(s))
	for name := range s {
		files = append(files, name)
	}
	sort.Strings(files)
	return files
}

// Encode serializes the snapshot as indented JSON with sorted keys and a
// trailing newline, so that it diffs cleanly in code review.
func Encode(s Snapshot) ([]byte, error) {
	if s == nil {
		s = Snapshot{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a serialized snapshot. Fields the record types do not know
// are dropped; use DecodeDocument to keep them for comparison.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if s == nil {
		s = Snapshot{}
	}
	return s, nil
}

// Document is a snapshot in its generic JSON shape. Every field of a stored
// record survives decoding, including ones SizeRecord does not define.
type Document map[string]map[string]any

// DecodeDocument parses a serialized snapshot into its generic shape.
func DecodeDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if d == nil {
		d = Document{}
	}
	return d, nil
}

// Document converts the snapshot to its generic shape.
func (s Snapshot) Document() Document {
	d := make(Document, len(s))
	for name, record := range s {
		d[name] = fields(record)
	}
	return d
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
