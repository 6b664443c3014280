package treeshake

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/fluxbase-eu/sizesnap/internal/observability"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

// PipelineObserver is notified when a pipeline run finishes.
type PipelineObserver interface {
	RecordPipeline(pipeline string, duration time.Duration, err error)
}

// Runner runs both pipelines against the same probe concurrently. A failure
// in one pipeline does not cancel the other.
type Runner struct {
	minimal  Pipeline
	graph    Pipeline
	observer PipelineObserver
}

// NewRunner creates a runner for the given pipelines. observer may be nil.
func NewRunner(minimal, graph Pipeline, observer PipelineObserver) *Runner {
	return &Runner{
		minimal:  minimal,
		graph:    graph,
		observer: observer,
	}
}

// Run bundles the probe for module with both pipelines.
func (r *Runner) Run(ctx context.Context, probe *Probe, module Module) (*snapshot.TreeshakeRecord, error) {
	var record snapshot.TreeshakeRecord
	var g errgroup.Group

	g.Go(func() error {
		res, err := r.run(ctx, r.minimal, probe, module)
		record.Minimal = res
		return err
	})
	g.Go(func() error {
		res, err := r.run(ctx, r.graph, probe, module)
		record.Graph = res
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Runner) run(ctx context.Context, pipeline Pipeline, probe *Probe, module Module) (res snapshot.PipelineResult, err error) {
	ctx, span := observability.StartPipelineSpan(ctx, pipeline.Name(), module.Name)
	start := time.Now()
	defer func() {
		duration := time.Since(start)
		if r.observer != nil {
			r.observer.RecordPipeline(pipeline.Name(), duration, err)
		}
		observability.EndSpan(span, err)
	}()

	res, err = pipeline.BundleProbe(ctx, probe, module)
	if err != nil {
		return res, fmt.Errorf("%s: %w", module.Name, err)
	}

	log.Debug().
		Str("pipeline", pipeline.Name()).
		Str("file", module.Name).
		Int("code", res.Code).
		Dur("duration", time.Since(start)).
		Msg("Tree-shake probe bundled")

	return res, nil
}
