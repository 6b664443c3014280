package treeshake

import (
	"context"
	"regexp"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/fluxbase-eu/sizesnap/internal/bundler"
	"github.com/fluxbase-eu/sizesnap/internal/snapshot"
)

// importStatement matches top-level static import and export statements in
// printed output. import.meta and dynamic import() do not match.
var importStatement = regexp.MustCompile(`(?m)^(?:import|export)[\s{*"'][^;]*;`)

// MinimalPipeline serves the probe and module from memory, applies the
// substitutions textually and tree-shakes without minifying. Imports that do
// not name the measured module stay external.
type MinimalPipeline struct{}

// NewMinimalPipeline creates the minimal-resolver pipeline.
func NewMinimalPipeline() *MinimalPipeline {
	return &MinimalPipeline{}
}

// Name returns the pipeline name
func (p *MinimalPipeline) Name() string {
	return "minimal"
}

// BundleProbe bundles the probe and returns the residual code length along
// with the bytes taken by import and export statements, when there are any.
func (p *MinimalPipeline) BundleProbe(ctx context.Context, probe *Probe, module Module) (snapshot.PipelineResult, error) {
	if err := ctx.Err(); err != nil {
		return snapshot.PipelineResult{}, err
	}

	modules := map[string]string{
		ProbeEntry:        probe.Source(),
		probe.ModuleKey(): probe.Replace(module.Code),
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{ProbeEntry},
		Bundle:        true,
		Write:         false,
		Format:        api.FormatESModule,
		Platform:      api.PlatformNeutral,
		Target:        api.ESNext,
		TreeShaking:   api.TreeShakingTrue,
		Charset:       api.CharsetUTF8,
		LegalComments: api.LegalCommentsNone,
		External:      module.Externals,
		LogLevel:      api.LogLevelSilent,
		Plugins: []api.Plugin{
			bundler.VirtualModules(ProbeEntry, modules, module.Externals),
		},
	})
	if len(result.Errors) > 0 {
		return snapshot.PipelineResult{}, buildError("minimal tree-shake", result)
	}

	code, err := reprint(firstOutput(result))
	if err != nil {
		return snapshot.PipelineResult{}, err
	}

	res := snapshot.PipelineResult{Code: len(code)}
	if n := importStatementBytes(code); n > 0 {
		res.ImportStatements = snapshot.IntPtr(n)
	}
	return res, nil
}

// reprint strips the module path comments esbuild adds to bundled output so
// that only residual code is counted.
func reprint(contents []byte) (string, error) {
	code := residual(contents)
	if code == "" {
		return "", nil
	}

	result := api.Transform(code, api.TransformOptions{
		Loader:        api.LoaderJS,
		Format:        api.FormatESModule,
		Target:        api.ESNext,
		Charset:       api.CharsetUTF8,
		LegalComments: api.LegalCommentsNone,
		LogLevel:      api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", bundler.NewBuildError("minimal tree-shake output", result.Errors)
	}
	return residual(result.Code), nil
}

// importStatementBytes sums the bytes taken by import and export statements.
func importStatementBytes(code string) int {
	total := 0
	for _, stmt := range importStatement.FindAllString(code, -1) {
		total += len(stmt)
	}
	return total
}
