package snapshot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_IdenticalSnapshotsMatch(t *testing.T) {
	for _, threshold := range []float64{0, 1, 100, 1e9} {
		t.Run(fmt.Sprintf("threshold_%v", threshold), func(t *testing.T) {
			diff := Compare(sampleSnapshot(), sampleSnapshot(), threshold)
			assert.True(t, diff.Empty())
		})
	}
}

func TestCompare_Threshold(t *testing.T) {
	baseline := Snapshot{"dist/index.js": {Bundled: 1000, Minified: 500, Gzipped: 200}}
	fresh := Snapshot{"dist/index.js": {Bundled: 1189, Minified: 500, Gzipped: 200}}

	t.Run("within threshold matches", func(t *testing.T) {
		assert.True(t, Compare(baseline, fresh, 1000).Empty())
	})

	t.Run("exactly at threshold matches", func(t *testing.T) {
		assert.True(t, Compare(baseline, fresh, 189).Empty())
	})

	t.Run("beyond threshold reports the field", func(t *testing.T) {
		diff := Compare(baseline, fresh, 100)
		require.Len(t, diff.Changes, 1)

		change := diff.Changes[0]
		assert.Equal(t, "dist/index.js", change.File)
		assert.Equal(t, []string{"bundled"}, change.Path)
		assert.Equal(t, ChangeChanged, change.Kind)
		assert.Equal(t, float64(1000), change.Old)
		assert.Equal(t, float64(1189), change.New)

		formatted := diff.Format()
		assert.Contains(t, formatted, `- "bundled": 1000`)
		assert.Contains(t, formatted, `+ "bundled": 1189`)
		assert.Contains(t, formatted, "dist/index.js\n")
	})
}

func TestCompare_ThresholdMonotonicity(t *testing.T) {
	baseline := sampleSnapshot()
	fresh := sampleSnapshot()
	record := fresh["dist/index.esm.js"]
	record.Gzipped += 37
	record.Treeshaked = &TreeshakeRecord{
		Minimal: PipelineResult{Code: 42 + 12, ImportStatements: IntPtr(15)},
		Graph:   PipelineResult{Code: 5},
	}
	fresh["dist/index.esm.js"] = record

	thresholds := []float64{0, 4, 5, 11, 12, 36, 37, 38, 1000}
	previousMatched := false
	for _, threshold := range thresholds {
		matched := Compare(baseline, fresh, threshold).Empty()
		if previousMatched {
			assert.True(t, matched, "matched at a lower threshold but not at %v", threshold)
		}
		previousMatched = matched
	}
	assert.False(t, Compare(baseline, fresh, 36).Empty())
	assert.True(t, Compare(baseline, fresh, 37).Empty())
}

func TestCompare_StructuralDifferencesIgnoreThreshold(t *testing.T) {
	t.Run("added file", func(t *testing.T) {
		baseline := Snapshot{"a.js": {Bundled: 1, Minified: 1, Gzipped: 21}}
		fresh := Snapshot{
			"a.js": {Bundled: 1, Minified: 1, Gzipped: 21},
			"b.js": {Bundled: 2, Minified: 2, Gzipped: 22},
		}

		diff := Compare(baseline, fresh, 1e9)
		require.Len(t, diff.Changes, 1)
		assert.Equal(t, ChangeAdded, diff.Changes[0].Kind)
		assert.Equal(t, "b.js", diff.Changes[0].File)
		assert.Empty(t, diff.Changes[0].Path)
		assert.Contains(t, diff.Format(), `+ "b.js": {"bundled":2,"gzipped":22,"minified":2}`)
	})

	t.Run("removed file", func(t *testing.T) {
		baseline := Snapshot{"a.js": {Bundled: 1}, "b.js": {Bundled: 2}}
		fresh := Snapshot{"a.js": {Bundled: 1}}

		diff := Compare(baseline, fresh, 1e9)
		require.Len(t, diff.Changes, 1)
		assert.Equal(t, ChangeRemoved, diff.Changes[0].Kind)
		assert.Contains(t, diff.Format(), `- "b.js": `)
	})

	t.Run("treeshaked record appears", func(t *testing.T) {
		baseline := Snapshot{"a.js": {Bundled: 1}}
		fresh := Snapshot{"a.js": {Bundled: 1, Treeshaked: &TreeshakeRecord{}}}

		diff := Compare(baseline, fresh, 1e9)
		require.Len(t, diff.Changes, 1)
		assert.Equal(t, []string{"treeshaked"}, diff.Changes[0].Path)
		assert.Equal(t, ChangeAdded, diff.Changes[0].Kind)
	})

	t.Run("import statements disappear", func(t *testing.T) {
		baseline := sampleSnapshot()
		fresh := sampleSnapshot()
		record := fresh["dist/index.esm.js"]
		record.Treeshaked = &TreeshakeRecord{Minimal: PipelineResult{Code: 42}}
		fresh["dist/index.esm.js"] = record

		diff := Compare(baseline, fresh, 1e9)
		require.Len(t, diff.Changes, 1)
		assert.Equal(t, []string{"treeshaked", "rollup", "import_statements"}, diff.Changes[0].Path)
		assert.Equal(t, ChangeRemoved, diff.Changes[0].Kind)
		assert.Contains(t, diff.Format(), "dist/index.esm.js > treeshaked > rollup\n- \"import_statements\": 15\n")
	})
}

func TestCompare_NestedTreeshakeFields(t *testing.T) {
	baseline := sampleSnapshot()
	fresh := sampleSnapshot()
	record := fresh["dist/index.esm.js"]
	record.Treeshaked = &TreeshakeRecord{
		Minimal: PipelineResult{Code: 42, ImportStatements: IntPtr(15)},
		Graph:   PipelineResult{Code: 250},
	}
	fresh["dist/index.esm.js"] = record

	diff := Compare(baseline, fresh, 10)
	require.Len(t, diff.Changes, 1)
	assert.Equal(t, []string{"treeshaked", "webpack", "code"}, diff.Changes[0].Path)
	assert.Contains(t, diff.Format(), "+ \"code\": 250")
}

func TestCompare_OrderIsDeterministic(t *testing.T) {
	baseline := Snapshot{
		"b.js": {Bundled: 1, Minified: 1, Gzipped: 1},
		"a.js": {Bundled: 1, Minified: 1, Gzipped: 1},
	}
	fresh := Snapshot{
		"b.js": {Bundled: 9, Minified: 9, Gzipped: 9},
		"a.js": {Bundled: 9, Minified: 9, Gzipped: 9},
	}

	diff := Compare(baseline, fresh, 0)
	require.Len(t, diff.Changes, 6)

	var order []string
	for _, c := range diff.Changes {
		order = append(order, c.File+"."+c.Key())
	}
	assert.Equal(t, []string{
		"a.js.bundled", "a.js.minified", "a.js.gzipped",
		"b.js.bundled", "b.js.minified", "b.js.gzipped",
	}, order)
	assert.Equal(t, diff.Format(), Compare(baseline, fresh, 0).Format())
}

func TestDiff_Empty(t *testing.T) {
	assert.True(t, Diff{}.Empty())
	assert.Equal(t, "", Diff{}.Format())
}
