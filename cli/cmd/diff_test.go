package cmd

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxbase-eu/sizesnap/cli/output"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

func writeSnapshot(t *testing.T, path string, snap snapshot.Snapshot) string {
	t.Helper()
	data, err := snapshot.Encode(snap)
	require.NoError(t, err)
	return writeFile(t, path, string(data))
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	baseline := writeSnapshot(t, filepath.Join(dir, "old.json"), snapshot.Snapshot{
		"dist/index.js": {Bundled: 11000, Minified: 5000, Gzipped: 2000},
	})
	fresh := writeSnapshot(t, filepath.Join(dir, "new.json"), snapshot.Snapshot{
		"dist/index.js": {Bundled: 11189, Minified: 5000, Gzipped: 2000},
	})

	t.Run("identical snapshots", func(t *testing.T) {
		stdout, _, err := execute(t, "diff", baseline, baseline)
		require.NoError(t, err)
		assert.Equal(t, "Snapshots match\n", stdout)
	})

	t.Run("differing snapshots", func(t *testing.T) {
		stdout, _, err := execute(t, "diff", baseline, fresh)
		require.ErrorIs(t, err, ErrSnapshotsDiffer)
		assert.Contains(t, stdout, "dist/index.js")
		assert.Contains(t, stdout, "11,189 B")
	})

	t.Run("within threshold", func(t *testing.T) {
		_, _, err := execute(t, "diff", "--threshold", "200", baseline, fresh)
		assert.NoError(t, err)
	})

	t.Run("json output", func(t *testing.T) {
		stdout, _, err := execute(t, "diff", "-o", "json", baseline, fresh)
		require.ErrorIs(t, err, ErrSnapshotsDiffer)

		var entries []output.DiffEntry
		require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "bundled", entries[0].Field)
	})

	t.Run("field only the baseline records", func(t *testing.T) {
		extended := writeFile(t, filepath.Join(dir, "extended.json"),
			`{"dist/index.js":{"bundled":11000,"minified":5000,"gzipped":2000,"parsed":7}}`)

		stdout, _, err := execute(t, "diff", "-o", "json", extended, baseline)
		require.ErrorIs(t, err, ErrSnapshotsDiffer)

		var entries []output.DiffEntry
		require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
		require.Len(t, entries, 1)
		assert.Equal(t, "parsed", entries[0].Field)
		assert.Equal(t, "removed", entries[0].Kind)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		_, _, err := execute(t, "diff", baseline, filepath.Join(dir, "missing.json"))
		assert.ErrorContains(t, err, "no snapshot at")
	})

	t.Run("negative threshold", func(t *testing.T) {
		_, _, err := execute(t, "diff", "--threshold", "-1", baseline, fresh)
		assert.ErrorContains(t, err, "threshold must not be negative")
	})
}

func TestShowCommand(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, filepath.Join(dir, ".size-snapshot.json"), snapshot.Snapshot{
		"dist/index.js": {Bundled: 11189, Minified: 5000, Gzipped: 2000},
	})

	t.Run("configured snapshot", func(t *testing.T) {
		stdout, _, err := execute(t, "show", "-C", dir)
		require.NoError(t, err)
		assert.Contains(t, stdout, "dist/index.js")
		assert.Contains(t, stdout, "11,189 B")
	})

	t.Run("explicit path as yaml", func(t *testing.T) {
		stdout, _, err := execute(t, "show", "-o", "yaml", filepath.Join(dir, ".size-snapshot.json"))
		require.NoError(t, err)
		assert.Contains(t, stdout, "bundled: 11189")
	})

	t.Run("snapshot path from the config file", func(t *testing.T) {
		other := t.TempDir()
		writeFile(t, filepath.Join(other, "sizesnap.yaml"), "snapshotPath: sizes/main.json\n")
		writeSnapshot(t, filepath.Join(other, "sizes", "main.json"), snapshot.Snapshot{"a.js": {Bundled: 7}})

		stdout, _, err := execute(t, "show", "-C", other, "-o", "json")
		require.NoError(t, err)
		snap, err := snapshot.Decode([]byte(stdout))
		require.NoError(t, err)
		assert.Equal(t, 7, snap["a.js"].Bundled)
	})

	t.Run("missing snapshot", func(t *testing.T) {
		_, _, err := execute(t, "show", "-C", t.TempDir())
		assert.ErrorContains(t, err, "no snapshot at .size-snapshot.json")
	})
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sizesnap dev")
}

func TestCompletionCommand(t *testing.T) {
	stdout, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "sizesnap")
}
