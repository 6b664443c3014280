package sizesnap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/fluxbase-eu/sizesnap/internal/bundler"
	"github.com/fluxbase-eu/sizesnap/internal/observability"
	"github.com/fluxbase-eu/sizesnap/internal/size"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
	"github.com/fluxbase-eu/sizesnap/internal/treeshake"
)

// Output describes compiled output handed over by the host build. It is
// either a single file (File and Code) or a directory of chunks (Dir and
// Files, keyed by path relative to Dir).
type Output struct {
	File      string
	Code      string
	Dir       string
	Files     map[string]string
	Format    bundler.Format
	Externals []string
}

// Aggregator measures every file of a set of outputs into one snapshot.
type Aggregator struct {
	minifier    *size.Minifier
	runner      *treeshake.Runner
	concurrency int
	metrics     *observability.Metrics
}

// NewAggregator creates an aggregator. concurrency bounds how many files are
// measured at once; values below 1 mean GOMAXPROCS. metrics may be nil.
func NewAggregator(minifier *size.Minifier, runner *treeshake.Runner, concurrency int, metrics *observability.Metrics) *Aggregator {
	if concurrency < 1 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{
		minifier:    minifier,
		runner:      runner,
		concurrency: concurrency,
		metrics:     metrics,
	}
}

// Aggregate measures all outputs. File names are made relative to root. The
// snapshot is only returned when every file was measured.
func (a *Aggregator) Aggregate(ctx context.Context, root string, outputs []Output) (snapshot.Snapshot, error) {
	modules, err := expandOutputs(root, outputs)
	if err != nil {
		return nil, err
	}

	records := make([]snapshot.SizeRecord, len(modules))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, module := range modules {
		i, module := i, module
		g.Go(func() error {
			rec, err := a.measure(gctx, module)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := make(snapshot.Snapshot, len(modules))
	for i, module := range modules {
		snap[module.Name] = records[i]
	}
	return snap, nil
}

func (a *Aggregator) measure(ctx context.Context, module treeshake.Module) (rec snapshot.SizeRecord, err error) {
	ctx, span := observability.StartMeasureSpan(ctx, module.Name, string(module.Format))
	defer func() { observability.EndSpan(span, err) }()

	minified, err := a.minifier.Minify(module.Code, module.Format)
	if err != nil {
		return rec, fmt.Errorf("%s: %w", module.Name, err)
	}
	gzipped, err := size.Gzipped(minified)
	if err != nil {
		return rec, fmt.Errorf("%s: %w", module.Name, err)
	}

	rec = snapshot.SizeRecord{
		Bundled:  size.Raw(module.Code),
		Minified: size.Raw(minified),
		Gzipped:  gzipped,
	}

	if treeshake.Analyzable(module.Format) {
		analysis, err := bundler.NewAnalyzer(module.Externals).Analyze(ctx, module.Name, module.Code)
		if err != nil {
			return snapshot.SizeRecord{}, fmt.Errorf("%s: %w", module.Name, err)
		}
		for _, warning := range analysis.Warnings {
			log.Warn().Str("file", module.Name).Msg(warning)
		}
		if len(analysis.Exports) == 0 {
			log.Warn().Str("file", module.Name).Msg("Module has no exports, tree-shake results only reflect side effects")
		}
		log.Debug().
			Str("file", module.Name).
			Strs("exports", analysis.Exports).
			Strs("external_imports", analysis.ExternalImports).
			Msg("Module analyzed")

		probe := treeshake.NewProbe(module.Name, analysis.Exports)
		treeshaked, err := a.runner.Run(ctx, probe, module)
		if err != nil {
			return snapshot.SizeRecord{}, err
		}
		rec.Treeshaked = treeshaked
	}

	observability.SetSpanAttributes(ctx,
		attribute.Int("sizesnap.bundled", rec.Bundled),
		attribute.Int("sizesnap.minified", rec.Minified),
		attribute.Int("sizesnap.gzipped", rec.Gzipped),
	)
	a.record(module.Name, rec)
	return rec, nil
}

func (a *Aggregator) record(file string, rec snapshot.SizeRecord) {
	if a.metrics == nil {
		return
	}
	a.metrics.RecordFile()
	a.metrics.RecordSize(file, "bundled", rec.Bundled)
	a.metrics.RecordSize(file, "minified", rec.Minified)
	a.metrics.RecordSize(file, "gzipped", rec.Gzipped)
	if rec.Treeshaked != nil {
		a.metrics.RecordTreeshake(file, "minimal", rec.Treeshaked.Minimal.Code)
		a.metrics.RecordTreeshake(file, "graph", rec.Treeshaked.Graph.Code)
	}
}

// expandOutputs flattens outputs into one module per file with normalized,
// unique names.
func expandOutputs(root string, outputs []Output) ([]treeshake.Module, error) {
	var modules []treeshake.Module
	seen := make(map[string]bool)

	add := func(name, code string, out Output) error {
		normalized, err := normalizeName(root, name)
		if err != nil {
			return err
		}
		if seen[normalized] {
			return fmt.Errorf("duplicate output file %q", normalized)
		}
		seen[normalized] = true
		modules = append(modules, treeshake.Module{
			Name:      normalized,
			Code:      code,
			Format:    out.Format,
			Externals: out.Externals,
		})
		return nil
	}

	for _, out := range outputs {
		switch {
		case out.File != "" && len(out.Files) > 0:
			return nil, fmt.Errorf("output %q sets both a file and chunk files", out.File)
		case out.File != "":
			if err := add(out.File, out.Code, out); err != nil {
				return nil, err
			}
		case len(out.Files) > 0:
			names := make([]string, 0, len(out.Files))
			for name := range out.Files {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				if err := add(filepath.Join(out.Dir, name), out.Files[name], out); err != nil {
					return nil, err
				}
			}
		default:
			return nil, errors.New("output has neither a file nor chunk files")
		}
	}
	return modules, nil
}

// normalizeName returns name relative to root with forward slashes. Absolute
// names outside root are rejected.
func normalizeName(root, name string) (string, error) {
	if filepath.IsAbs(name) {
		rel, err := filepath.Rel(root, name)
		if err != nil {
			return "", fmt.Errorf("output file %q is not under %q: %w", name, root, err)
		}
		name = rel
	}
	name = filepath.ToSlash(filepath.Clean(name))
	if name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return "", fmt.Errorf("output file %q is not under %q", name, root)
	}
	return name, nil
}
