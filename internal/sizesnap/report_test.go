package sizesnap

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

func TestReporter_Record(t *testing.T) {
	t.Run("without tree-shake results", func(t *testing.T) {
		var buf bytes.Buffer
		NewReporter(&buf).Record("dist/index.js", snapshot.SizeRecord{Bundled: 11189, Minified: 5000, Gzipped: 2000})

		out := buf.String()
		assert.Contains(t, out, `Computed sizes of "dist/index.js"`)
		assert.Contains(t, out, "  bundler parsing size: 11,189 B\n")
		assert.Contains(t, out, "  browser parsing size (minified): 5,000 B\n")
		assert.Contains(t, out, "  download size (minified and gzipped): 2,000 B\n")
		assert.NotContains(t, out, "treeshaked")
	})

	t.Run("with tree-shake results", func(t *testing.T) {
		var buf bytes.Buffer
		NewReporter(&buf).Record("dist/index.esm.js", snapshot.SizeRecord{
			Bundled:  1180,
			Minified: 590,
			Gzipped:  305,
			Treeshaked: &snapshot.TreeshakeRecord{
				Minimal: snapshot.PipelineResult{Code: 42, ImportStatements: snapshot.IntPtr(15)},
				Graph:   snapshot.PipelineResult{Code: 0},
			},
		})

		out := buf.String()
		assert.Contains(t, out, "  treeshaked with minimal resolver (production): 42 B\n")
		assert.Contains(t, out, "    import statements size of it: 15 B\n")
		assert.Contains(t, out, "  treeshaked with module graph (production): 0 B\n")
	})

	t.Run("import statements line only when present", func(t *testing.T) {
		var buf bytes.Buffer
		NewReporter(&buf).Record("a.js", snapshot.SizeRecord{Treeshaked: &snapshot.TreeshakeRecord{}})
		assert.NotContains(t, buf.String(), "import statements")
	})
}

func TestReporter_Sizes(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).Sizes(snapshot.Snapshot{
		"b.js": {Bundled: 2},
		"a.js": {Bundled: 1},
	})

	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`"a.js"`)), bytes.Index(buf.Bytes(), []byte(`"b.js"`)))
	assert.Contains(t, out, "bundler parsing size: 2 B")
}

func TestReporter_Mismatch(t *testing.T) {
	diff := snapshot.Compare(
		snapshot.Snapshot{"dist/index.js": {Bundled: 11000, Minified: 5000, Gzipped: 2000}},
		snapshot.Snapshot{"dist/index.js": {Bundled: 11189, Minified: 5000, Gzipped: 2000}},
		100,
	)

	var buf bytes.Buffer
	NewReporter(&buf).Mismatch(diff)

	out := buf.String()
	assert.Contains(t, out, "Snapshot is not matched:")
	assert.Contains(t, out, "  dist/index.js\n")
	assert.Contains(t, out, `  - "bundled": 11000`)
	assert.Contains(t, out, `  + "bundled": 11189`)
}
