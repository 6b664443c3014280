package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordSize(t *testing.T) {
	m := NewMetrics()

	m.RecordSize("dist/index.js", "gzipped", 33)
	m.RecordSize("dist/index.js", "gzipped", 34)

	assert.Equal(t, 34.0, testutil.ToFloat64(m.sizeBytes.WithLabelValues("dist/index.js", "gzipped")))
}

func TestMetrics_RecordPipeline(t *testing.T) {
	m := NewMetrics()

	m.RecordPipeline("graph", 20*time.Millisecond, nil)
	m.RecordPipeline("graph", 30*time.Millisecond, errors.New("boom"))
	m.RecordPipeline("minimal", 10*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.pipelineErrors.WithLabelValues("graph")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.pipelineErrors))
	assert.Equal(t, 2, testutil.CollectAndCount(m.pipelineDuration))
}

func TestMetrics_RecordOutcome(t *testing.T) {
	m := NewMetrics()

	m.RecordOutcome("written")
	m.RecordFile()
	m.RecordFile()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotOutcomes.WithLabelValues("written")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.filesMeasured))
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordFile()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.filesMeasured))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.filesMeasured))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordSize("dist/index.esm.js", "bundled", 1180)
	m.RecordTreeshake("dist/index.esm.js", "minimal", 0)

	path := filepath.Join(t.TempDir(), "sizesnap.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, `sizesnap_size_bytes{file="dist/index.esm.js",measure="bundled"} 1180`)
	assert.Contains(t, text, `sizesnap_treeshake_bytes{file="dist/index.esm.js",pipeline="minimal"} 0`)
	assert.True(t, strings.HasPrefix(text, "# HELP"))
}

func TestMetrics_WriteTextfile_BadPath(t *testing.T) {
	m := NewMetrics()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "sizesnap.prom"))
	assert.ErrorContains(t, err, "failed to write metrics file")
}
