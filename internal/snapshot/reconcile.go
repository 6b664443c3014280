package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/sizesnap/internal/storage"
)

// ErrMissingSnapshot is returned in match mode when no baseline exists.
var ErrMissingSnapshot = errors.New("snapshot is missing, run the build to create one")

// MismatchError is returned in match mode when the fresh sizes differ from
// the baseline beyond the threshold.
type MismatchError struct {
	Diff Diff
}

func (e *MismatchError) Error() string {
	return "snapshot is not matched, rebuild to reconcile"
}

// Outcome describes how a reconciliation finished.
type Outcome string

const (
	OutcomeWritten    Outcome = "written"
	OutcomeMatched    Outcome = "matched"
	OutcomeMismatched Outcome = "mismatched"
)

// Reconciler persists a snapshot or checks it against the stored baseline.
// It reads the baseline at most once and writes at most once per call.
// Concurrent reconciliations against the same key are not supported.
type Reconciler struct {
	storage   storage.Storage
	key       string
	match     bool
	threshold float64
}

// NewReconciler creates a reconciler for the snapshot stored under key.
func NewReconciler(store storage.Storage, key string, match bool, threshold float64) *Reconciler {
	return &Reconciler{
		storage:   store,
		key:       key,
		match:     match,
		threshold: threshold,
	}
}

// Reconcile writes snap in write mode, or compares it against the baseline in
// match mode.
func (r *Reconciler) Reconcile(ctx context.Context, snap Snapshot) (Outcome, error) {
	if !r.match {
		data, err := Encode(snap)
		if err != nil {
			return "", err
		}
		if err := r.storage.Write(ctx, r.key, data); err != nil {
			return "", fmt.Errorf("failed to write snapshot: %w", err)
		}
		log.Debug().
			Str("storage", r.storage.Name()).
			Str("key", r.key).
			Int("files", len(snap)).
			Msg("Snapshot saved")
		return OutcomeWritten, nil
	}

	baseline, err := r.load(ctx)
	if err != nil {
		return "", err
	}

	diff := CompareDocuments(baseline, snap.Document(), r.threshold)
	if !diff.Empty() {
		log.Debug().
			Str("key", r.key).
			Int("changes", len(diff.Changes)).
			Float64("threshold", r.threshold).
			Msg("Snapshot mismatch")
		return "", &MismatchError{Diff: diff}
	}
	return OutcomeMatched, nil
}

// load reads the baseline in its generic shape so that fields the fresh
// records lack still show up in the diff.
func (r *Reconciler) load(ctx context.Context) (Document, error) {
	data, err := read(ctx, r.storage, r.key)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(data)
}

func read(ctx context.Context, store storage.Storage, key string) ([]byte, error) {
	data, err := store.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrMissingSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

// Load reads and decodes the snapshot stored under key.
func Load(ctx context.Context, store storage.Storage, key string) (Snapshot, error) {
	data, err := read(ctx, store, key)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// LoadDocument reads the snapshot stored under key in its generic shape.
func LoadDocument(ctx context.Context, store storage.Storage, key string) (Document, error) {
	data, err := read(ctx, store, key)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(data)
}
