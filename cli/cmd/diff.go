package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
	"github.com/fluxbase-eu/sizesnap/internal/storage"
)

// ErrSnapshotsDiffer is returned by the diff command when the snapshots do
// not match, so that the process exits with a non-zero status.
var ErrSnapshotsDiffer = errors.New("snapshots differ")

var diffThreshold float64

var diffCmd = &cobra.Command{
	Use:   "diff <baseline> <fresh>",
	Short: "Compare two snapshot files",
	Long: `Compare two snapshot files without measuring anything.

Either location may be a local path or s3://bucket/key. Sizes that differ by at
most --threshold bytes are treated as equal. The command exits with status 1
when the snapshots differ.

Examples:
  sizesnap diff .size-snapshot.json /tmp/pr.size-snapshot.json
  sizesnap diff --threshold 50 s3://ci-sizes/app/main.json .size-snapshot.json
  sizesnap diff -o json old.json new.json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().Float64Var(&diffThreshold, "threshold", 0,
		"allowed size drift in bytes")
}

func runDiff(cmd *cobra.Command, args []string) error {
	if diffThreshold < 0 {
		return fmt.Errorf("threshold must not be negative")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	baseline, err := loadFrom(cmd.Context(), args[0], ".", cfg.S3, snapshot.LoadDocument)
	if err != nil {
		return err
	}
	fresh, err := loadFrom(cmd.Context(), args[1], ".", cfg.S3, snapshot.LoadDocument)
	if err != nil {
		return err
	}

	diff := snapshot.CompareDocuments(baseline, fresh, diffThreshold)
	if err := GetFormatter().PrintDiff(diff); err != nil {
		return err
	}
	if !diff.Empty() {
		return ErrSnapshotsDiffer
	}
	return nil
}

// loadSnapshot reads the snapshot at path, which is resolved against root
// unless it is absolute or an s3:// location
func loadSnapshot(ctx context.Context, path, root string, s3cfg storage.S3Config) (snapshot.Snapshot, error) {
	return loadFrom(ctx, path, root, s3cfg, snapshot.Load)
}

func loadFrom[T any](ctx context.Context, path, root string, s3cfg storage.S3Config,
	load func(context.Context, storage.Storage, string) (T, error)) (T, error) {
	var zero T
	store, key, err := storage.Open(path, root, s3cfg)
	if err != nil {
		return zero, err
	}
	snap, err := load(ctx, store, key)
	if err != nil {
		if errors.Is(err, snapshot.ErrMissingSnapshot) {
			return zero, fmt.Errorf("no snapshot at %s", path)
		}
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}
