package sizesnap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fluxbase-eu/sizesnap/internal/observability"
	"github.com/fluxbase-eu/sizesnap/internal/size"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
	"github.com/fluxbase-eu/sizesnap/internal/storage"
	"github.com/fluxbase-eu/sizesnap/internal/treeshake"
)

// Plugin is the entry point the host build calls once its output is written.
type Plugin struct {
	options Options
	root    string

	storage  storage.Storage
	key      string
	s3       storage.S3Config
	reporter *Reporter

	concurrency int
	metrics     *observability.Metrics
	minifier    *size.Minifier
}

// PluginOption configures a Plugin.
type PluginOption func(*Plugin)

// WithStorage stores the snapshot in store under the configured snapshot
// path instead of resolving the path to local or S3 storage.
func WithStorage(store storage.Storage) PluginOption {
	return func(p *Plugin) {
		p.storage = store
	}
}

// WithS3Config sets the credentials used for s3:// snapshot paths.
func WithS3Config(cfg storage.S3Config) PluginOption {
	return func(p *Plugin) {
		p.s3 = cfg
	}
}

// WithReporter writes summaries and diffs to w instead of stdout.
func WithReporter(w io.Writer) PluginOption {
	return func(p *Plugin) {
		p.reporter = NewReporter(w)
	}
}

// WithConcurrency bounds how many files are measured at once.
func WithConcurrency(n int) PluginOption {
	return func(p *Plugin) {
		p.concurrency = n
	}
}

// WithMetrics records sizes and pipeline timings in m.
func WithMetrics(m *observability.Metrics) PluginOption {
	return func(p *Plugin) {
		p.metrics = m
	}
}

// WithMinifier shares a minifier, and its cache, between plugins.
func WithMinifier(m *size.Minifier) PluginOption {
	return func(p *Plugin) {
		p.minifier = m
	}
}

// New validates raw options and creates a plugin for the project at root.
// Invalid options fail here, before any output is measured.
func New(raw map[string]any, root string, opts ...PluginOption) (*Plugin, error) {
	options, err := ParseOptions(raw)
	if err != nil {
		return nil, err
	}

	if root == "" {
		root = "."
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	p := &Plugin{
		options:  options,
		root:     root,
		reporter: NewReporter(os.Stdout),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.minifier == nil {
		if p.minifier, err = size.NewMinifier(size.DefaultCacheSize); err != nil {
			return nil, err
		}
	}

	if p.storage == nil {
		if p.storage, p.key, err = storage.Open(options.SnapshotPath, root, p.s3); err != nil {
			return nil, err
		}
	} else {
		p.key = options.SnapshotPath
	}

	return p, nil
}

// Options returns the validated options.
func (p *Plugin) Options() Options {
	return p.options
}

// WriteBundle measures outputs and writes or matches the snapshot. On a
// mismatch the diff is reported and a *snapshot.MismatchError returned along
// with the fresh snapshot.
func (p *Plugin) WriteBundle(ctx context.Context, outputs ...Output) (snapshot.Snapshot, error) {
	var observer treeshake.PipelineObserver
	if p.metrics != nil {
		observer = p.metrics
	}
	runner := treeshake.NewRunner(
		treeshake.NewMinimalPipeline(),
		treeshake.NewGraphPipeline(p.minifier),
		observer,
	)

	snap, err := NewAggregator(p.minifier, runner, p.concurrency, p.metrics).Aggregate(ctx, p.root, outputs)
	if err != nil {
		return nil, err
	}

	if p.options.PrintInfo {
		p.reporter.Sizes(snap)
	}

	reconciler := snapshot.NewReconciler(p.storage, p.key, p.options.MatchSnapshot, p.options.Threshold)
	outcome, err := reconciler.Reconcile(ctx, snap)
	if err != nil {
		var mismatch *snapshot.MismatchError
		if errors.As(err, &mismatch) {
			p.reporter.Mismatch(mismatch.Diff)
			p.recordOutcome(snapshot.OutcomeMismatched)
		}
		return snap, err
	}

	p.recordOutcome(outcome)
	log.Debug().
		Str("outcome", string(outcome)).
		Str("snapshot", p.options.SnapshotPath).
		Int("files", len(snap)).
		Msg("Snapshot reconciled")

	return snap, nil
}

func (p *Plugin) recordOutcome(outcome snapshot.Outcome) {
	if p.metrics != nil {
		p.metrics.RecordOutcome(string(outcome))
	}
}
