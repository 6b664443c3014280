package treeshake

import (
	"context"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/fluxbase-eu/sizesnap/internal/bundler"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

// Pipeline bundles the probe against a module and reports what is left.
type Pipeline interface {
	Name() string
	BundleProbe(ctx context.Context, probe *Probe, module Module) (snapshot.PipelineResult, error)
}

// residual trims the trailing newline esbuild appends to every chunk.
func residual(contents []byte) string {
	return strings.TrimRight(string(contents), "\n")
}

func firstOutput(result api.BuildResult) []byte {
	if len(result.OutputFiles) == 0 {
		return nil
	}
	return result.OutputFiles[0].Contents
}

func buildError(stage string, result api.BuildResult) error {
	return bundler.NewBuildError(stage, result.Errors)
}
