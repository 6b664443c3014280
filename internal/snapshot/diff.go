package snapshot

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ChangeKind classifies a single difference between two snapshots.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeRemoved ChangeKind = "removed"
	ChangeChanged ChangeKind = "changed"
)

// Change is one field-level difference. Path is the field path inside the
// file's record; it is empty when the whole file was added or removed.
type Change struct {
	File string
	Path []string
	Kind ChangeKind
	Old  any
	New  any
}

// Key returns the name of the changed field, or the file name for whole-file
// changes.
func (c Change) Key() string {
	if len(c.Path) == 0 {
		return c.File
	}
	return c.Path[len(c.Path)-1]
}

func (c Change) header() string {
	if len(c.Path) == 0 {
		return "snapshot"
	}
	return strings.Join(append([]string{c.File}, c.Path[:len(c.Path)-1]...), " > ")
}

// Diff is the ordered list of differences between a baseline and a fresh
// snapshot.
type Diff struct {
	Changes []Change
}

// Empty reports whether the snapshots matched.
func (d Diff) Empty() bool {
	return len(d.Changes) == 0
}

// Format renders the diff with one "- key: old" / "+ key: new" line per
// value, grouped under a header naming the file and the record path.
func (d Diff) Format() string {
	var b strings.Builder
	lastHeader := ""
	for i, change := range d.Changes {
		header := change.header()
		if i == 0 || header != lastHeader {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(header)
			b.WriteString("\n")
			lastHeader = header
		}
		if change.Kind != ChangeAdded {
			fmt.Fprintf(&b, "- %q: %s\n", change.Key(), formatValue(change.Old))
		}
		if change.Kind != ChangeRemoved {
			fmt.Fprintf(&b, "+ %q: %s\n", change.Key(), formatValue(change.New))
		}
	}
	return b.String()
}

func formatValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// Compare diffs a fresh snapshot against a baseline. Numeric fields match when
// they differ by at most threshold; files or fields present on one side only
// never match.
func Compare(baseline, fresh Snapshot, threshold float64) Diff {
	return CompareDocuments(baseline.Document(), fresh.Document(), threshold)
}

// CompareDocuments is Compare on the generic shape, so that fields only one
// side knows about are reported too.
func CompareDocuments(baseline, fresh Document, threshold float64) Diff {
	files := make(map[string]bool)
	for name := range baseline {
		files[name] = true
	}
	for name := range fresh {
		files[name] = true
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var diff Diff
	for _, name := range names {
		oldRecord, inOld := baseline[name]
		newRecord, inNew := fresh[name]
		switch {
		case !inOld:
			diff.Changes = append(diff.Changes, Change{File: name, Kind: ChangeAdded, New: newRecord})
		case !inNew:
			diff.Changes = append(diff.Changes, Change{File: name, Kind: ChangeRemoved, Old: oldRecord})
		default:
			compareFields(&diff, name, nil, oldRecord, newRecord, threshold)
		}
	}
	return diff
}

func compareFields(diff *Diff, file string, path []string, old, fresh map[string]any, threshold float64) {
	keys := make(map[string]bool)
	for k := range old {
		keys[k] = true
	}
	for k := range fresh {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Slice(sorted, func(i, j int) bool { return fieldOrder(sorted[i]) < fieldOrder(sorted[j]) })

	for _, key := range sorted {
		fieldPath := append(append([]string(nil), path...), key)
		oldValue, inOld := old[key]
		newValue, inNew := fresh[key]
		switch {
		case !inOld:
			diff.Changes = append(diff.Changes, Change{File: file, Path: fieldPath, Kind: ChangeAdded, New: newValue})
		case !inNew:
			diff.Changes = append(diff.Changes, Change{File: file, Path: fieldPath, Kind: ChangeRemoved, Old: oldValue})
		default:
			oldMap, oldIsMap := oldValue.(map[string]any)
			newMap, newIsMap := newValue.(map[string]any)
			if oldIsMap && newIsMap {
				compareFields(diff, file, fieldPath, oldMap, newMap, threshold)
				continue
			}
			if !valuesMatch(oldValue, newValue, threshold) {
				diff.Changes = append(diff.Changes, Change{File: file, Path: fieldPath, Kind: ChangeChanged, Old: oldValue, New: newValue})
			}
		}
	}
}

func valuesMatch(old, fresh any, threshold float64) bool {
	oldNum, oldOK := old.(float64)
	newNum, newOK := fresh.(float64)
	if oldOK && newOK {
		return math.Abs(newNum-oldNum) <= threshold
	}
	return formatValue(old) == formatValue(fresh)
}

// fieldOrder sorts record fields in their serialized order, then
// alphabetically.
func fieldOrder(key string) string {
	known := []string{"bundled", "minified", "gzipped", "treeshaked", "rollup", "webpack", "code", "import_statements"}
	for i, k := range known {
		if k == key {
			return fmt.Sprintf("0%02d", i)
		}
	}
	return "1" + key
}

// fields converts a record to its generic JSON shape.
func fields(record SizeRecord) map[string]any {
	data, err := json.Marshal(record)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
